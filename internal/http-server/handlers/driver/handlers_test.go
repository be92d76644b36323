package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"RideDesk/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCore struct {
	drivers  []entity.Driver
	approved []string
	rejected []string
	err      error
}

func (c *fakeCore) ApproveDriver(ctx context.Context, phone string) (*entity.Driver, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.approved = append(c.approved, phone)
	d := entity.NewDriver("100")
	d.Phone = phone
	d.Approval = entity.ApprovalApproved
	return d, nil
}

func (c *fakeCore) RejectDriver(ctx context.Context, phone string) (*entity.Driver, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.rejected = append(c.rejected, phone)
	d := entity.NewDriver("100")
	d.Phone = phone
	d.Approval = entity.ApprovalRejected
	return d, nil
}

func (c *fakeCore) ListDrivers(ctx context.Context) ([]entity.Driver, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.drivers, nil
}

func TestApprove(t *testing.T) {
	core := &fakeCore{}
	req := httptest.NewRequest(http.MethodPost, "/drivers/approve",
		strings.NewReader(`{"phone":"+27821234567"}`))
	rec := httptest.NewRecorder()

	Approve(discardLogger(), core)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(core.approved) != 1 || core.approved[0] != "+27821234567" {
		t.Fatalf("approved = %v", core.approved)
	}

	var d entity.Driver
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Approval != entity.ApprovalApproved {
		t.Fatalf("approval = %q", d.Approval)
	}
}

func TestApproveBadRequests(t *testing.T) {
	cases := []struct {
		name, body string
	}{
		{"empty body", ""},
		{"not json", "phone=+27821234567"},
		{"missing phone", `{}`},
		{"short phone", `{"phone":"123"}`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/drivers/approve", strings.NewReader(c.body))
		rec := httptest.NewRecorder()

		Approve(discardLogger(), &fakeCore{})(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestApproveUnknownDriver(t *testing.T) {
	core := &fakeCore{err: entity.ErrNotFound}
	req := httptest.NewRequest(http.MethodPost, "/drivers/approve",
		strings.NewReader(`{"phone":"+27821234567"}`))
	rec := httptest.NewRecorder()

	Approve(discardLogger(), core)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestApproveIncompleteDriver(t *testing.T) {
	core := &fakeCore{err: fmt.Errorf("%w: incomplete documents", entity.ErrValidation)}
	req := httptest.NewRequest(http.MethodPost, "/drivers/approve",
		strings.NewReader(`{"phone":"+27821234567"}`))
	rec := httptest.NewRecorder()

	Approve(discardLogger(), core)(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestReject(t *testing.T) {
	core := &fakeCore{}
	req := httptest.NewRequest(http.MethodPost, "/drivers/reject",
		strings.NewReader(`{"phone":"+27821234567"}`))
	rec := httptest.NewRecorder()

	Reject(discardLogger(), core)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(core.rejected) != 1 {
		t.Fatalf("rejected = %v", core.rejected)
	}
}

func TestList(t *testing.T) {
	d := entity.NewDriver("100")
	d.Name = "Jonah M"
	core := &fakeCore{drivers: []entity.Driver{*d}}

	req := httptest.NewRequest(http.MethodGet, "/drivers/", nil)
	rec := httptest.NewRecorder()

	List(discardLogger(), core)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out []entity.Driver
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Jonah M" {
		t.Fatalf("out = %+v", out)
	}
}
