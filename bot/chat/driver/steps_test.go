package driver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"RideDesk/bot/chat"
	"RideDesk/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMessenger struct {
	texts []string
}

func (m *fakeMessenger) SendText(chatID, text string) error {
	m.texts = append(m.texts, text)
	return nil
}
func (m *fakeMessenger) SendMenu(chatID, text string, rows [][]chat.MenuButton) error { return nil }
func (m *fakeMessenger) SendInlineOptions(chatID, text string, buttons []chat.InlineButton) error {
	return nil
}
func (m *fakeMessenger) SendContactRequest(chatID, text, buttonText string) error {
	m.texts = append(m.texts, text)
	return nil
}
func (m *fakeMessenger) SendLocationRequest(chatID, text, buttonText string) error { return nil }
func (m *fakeMessenger) SendLocation(chatID string, lat, lon float64, livePeriod int64) error {
	return nil
}
func (m *fakeMessenger) AnswerCallback(callbackID, text string) error { return nil }

func (m *fakeMessenger) lastText() string {
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type fakeRepo struct {
	drivers map[string]*entity.Driver
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{drivers: make(map[string]*entity.Driver)}
}

func (r *fakeRepo) GetDriver(ctx context.Context, chatID string) (*entity.Driver, error) {
	d, ok := r.drivers[chatID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) GetDriverByPhone(ctx context.Context, phone string) (*entity.Driver, error) {
	for _, d := range r.drivers {
		if d.Phone == phone {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) UpsertDriver(ctx context.Context, d *entity.Driver) error {
	cp := *d
	r.drivers[d.ChatID] = &cp
	return nil
}

type fakeIngester struct {
	repo *fakeRepo
}

func (f *fakeIngester) Ingest(ctx context.Context, m chat.Messenger, d *entity.Driver, file chat.FileInput) (bool, error) {
	slot := d.NextDocumentSlot()
	if slot == "" {
		return true, nil
	}
	d.Documents[slot] = entity.DocumentSlot{FileID: file.FileID, URL: "/api/v1/files/" + slot}
	if d.NextDocumentSlot() == "" {
		d.Step = entity.StepCompleted
		return true, f.repo.UpsertDriver(ctx, d)
	}
	return false, f.repo.UpsertDriver(ctx, d)
}

func newTestEngine(repo *fakeRepo) *chat.ChatEngine {
	e := chat.NewChatEngine(chat.NewMemoryStore(), discardLogger())
	e.RegisterWorkflow(NewOnboardingWorkflow(repo, &fakeIngester{repo: repo}, discardLogger()))
	e.RegisterWorkflow(NewPinWorkflow(repo, discardLogger()))
	return e
}

func TestOnboardingFlow(t *testing.T) {
	repo := newFakeRepo()
	e := newTestEngine(repo)
	m := &fakeMessenger{}
	ctx := context.Background()

	if err := e.StartWorkflow(ctx, m, "100", WorkflowID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if repo.drivers["100"] == nil {
		t.Fatal("driver record not created on first contact")
	}

	// Too-short name is rejected without advancing.
	if _, err := e.HandleText(ctx, m, "100", "J"); err != nil {
		t.Fatalf("short name: %v", err)
	}
	if repo.drivers["100"].Name != "" {
		t.Fatal("rejected name was persisted")
	}

	if _, err := e.HandleText(ctx, m, "100", "  Jonah M  "); err != nil {
		t.Fatalf("name: %v", err)
	}
	d := repo.drivers["100"]
	if d.Name != "Jonah M" {
		t.Fatalf("name = %q, want trimmed Jonah M", d.Name)
	}
	if d.Step != entity.StepPhone {
		t.Fatalf("step = %q, want phone", d.Step)
	}

	// Garbage phone rejected.
	if _, err := e.HandleText(ctx, m, "100", "call me maybe"); err != nil {
		t.Fatalf("bad phone: %v", err)
	}
	if repo.drivers["100"].Phone != "" {
		t.Fatal("invalid phone was persisted")
	}

	// Typed phone is normalized before storing.
	if _, err := e.HandleText(ctx, m, "100", "+27 82 123 4567"); err != nil {
		t.Fatalf("phone: %v", err)
	}
	d = repo.drivers["100"]
	if d.Phone != "+27821234567" {
		t.Fatalf("phone = %q, want +27821234567", d.Phone)
	}
	if d.Step != entity.StepDocs {
		t.Fatalf("step = %q, want docs", d.Step)
	}

	// Non-file input during document collection gets a reminder, no advance.
	if _, err := e.HandleText(ctx, m, "100", "here you go"); err != nil {
		t.Fatalf("text during docs: %v", err)
	}
	if got := repo.drivers["100"].DocumentsFilled(); got != 0 {
		t.Fatalf("documents filled by text input: %d", got)
	}

	// Send all ten documents.
	for i := range entity.DocumentSlots {
		file := chat.FileInput{FileID: "file-" + entity.DocumentSlots[i], IsPhoto: true}
		if _, err := e.HandleFile(ctx, m, "100", file); err != nil {
			t.Fatalf("file %d: %v", i, err)
		}
	}

	d = repo.drivers["100"]
	if !d.DocumentsComplete() {
		t.Fatalf("documents incomplete after ten files: %d filled", d.DocumentsFilled())
	}
	if d.Step != entity.StepCompleted {
		t.Fatalf("step = %q, want completed", d.Step)
	}
	if e.Active("100") {
		t.Fatal("session survived onboarding completion")
	}
}

func TestOnboardingContactShare(t *testing.T) {
	repo := newFakeRepo()
	e := newTestEngine(repo)
	m := &fakeMessenger{}
	ctx := context.Background()

	if err := e.StartWorkflow(ctx, m, "100", WorkflowID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.HandleText(ctx, m, "100", "Jonah M"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if _, err := e.HandleContact(ctx, m, "100", "27821234567"); err != nil {
		t.Fatalf("contact: %v", err)
	}
	if repo.drivers["100"].Phone != "27821234567" {
		t.Fatalf("phone = %q", repo.drivers["100"].Phone)
	}
}

func TestOnboardingDuplicatePhone(t *testing.T) {
	repo := newFakeRepo()
	other := entity.NewDriver("200")
	other.Phone = "+27821234567"
	repo.drivers["200"] = other

	e := newTestEngine(repo)
	m := &fakeMessenger{}
	ctx := context.Background()

	if err := e.StartWorkflow(ctx, m, "100", WorkflowID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.HandleText(ctx, m, "100", "Jonah M"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if _, err := e.HandleText(ctx, m, "100", "+27821234567"); err != nil {
		t.Fatalf("dup phone: %v", err)
	}
	if repo.drivers["100"].Phone != "" {
		t.Fatal("duplicate phone was persisted")
	}
	if !strings.Contains(m.lastText(), "already registered") {
		t.Fatalf("no duplicate warning, got %q", m.lastText())
	}

	// Same number typed by its owner is fine (re-entry).
	eOwner := newTestEngine(repo)
	if err := eOwner.StartWorkflow(ctx, m, "200", WorkflowID); err != nil {
		t.Fatalf("owner start: %v", err)
	}
	if _, err := eOwner.HandleText(ctx, m, "200", "Owner Name"); err != nil {
		t.Fatalf("owner name: %v", err)
	}
	if _, err := eOwner.HandleText(ctx, m, "200", "+27821234567"); err != nil {
		t.Fatalf("owner phone: %v", err)
	}
	if repo.drivers["200"].Step != entity.StepDocs {
		t.Fatalf("owner step = %q, want docs", repo.drivers["200"].Step)
	}
}

func TestOnboardingRestartAfterCompletion(t *testing.T) {
	repo := newFakeRepo()
	done := entity.NewDriver("100")
	done.Name = "Jonah M"
	done.Step = entity.StepCompleted
	repo.drivers["100"] = done

	e := newTestEngine(repo)
	m := &fakeMessenger{}

	if err := e.StartWorkflow(context.Background(), m, "100", WorkflowID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if e.Active("100") {
		t.Fatal("restart of finished onboarding left a session")
	}
	if !strings.Contains(m.lastText(), "Driver status") {
		t.Fatalf("expected status text, got %q", m.lastText())
	}
	if repo.drivers["100"].Step != entity.StepCompleted {
		t.Fatal("finished record was reset")
	}
}

func TestPinWorkflow(t *testing.T) {
	repo := newFakeRepo()
	d := entity.NewDriver("100")
	d.Step = entity.StepCompleted
	d.Approval = entity.ApprovalApproved
	repo.drivers["100"] = d

	e := newTestEngine(repo)
	m := &fakeMessenger{}
	ctx := context.Background()

	if err := e.StartWorkflow(ctx, m, "100", PinWorkflowID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Wrong shapes are rejected.
	for _, bad := range []string{"123", "12345", "12a4", "pin"} {
		if _, err := e.HandleText(ctx, m, "100", bad); err != nil {
			t.Fatalf("bad pin %q: %v", bad, err)
		}
		if repo.drivers["100"].Credential != nil {
			t.Fatalf("pin %q was accepted", bad)
		}
	}

	if _, err := e.HandleText(ctx, m, "100", "4271"); err != nil {
		t.Fatalf("pin: %v", err)
	}

	got := repo.drivers["100"]
	if got.Credential == nil {
		t.Fatal("no credential stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(got.Credential.Hash), []byte("4271")); err != nil {
		t.Fatalf("stored hash does not match pin: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(got.Credential.Hash), []byte("0000")) == nil {
		t.Fatal("stored hash matches a wrong pin")
	}
	if got.Credential.ExpiresAt.IsZero() {
		t.Fatal("credential has no expiry")
	}
	if got.Step != entity.StepCompleted {
		t.Fatalf("step = %q, want completed", got.Step)
	}
	if e.Active("100") {
		t.Fatal("session survived pin setup")
	}
}
