// Package core aggregates the services behind the admin API handlers.
package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"RideDesk/entity"
	"RideDesk/internal/lib/fileurl"
	"RideDesk/internal/lib/sl"
)

// Repository defines the persistence operations the admin API reads from.
type Repository interface {
	ListDrivers(ctx context.Context) ([]entity.Driver, error)
	ListTrips(ctx context.Context) ([]entity.Trip, error)
	DownloadDocument(ctx context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error)
}

// Approvals applies back-office decisions to driver records.
type Approvals interface {
	Approve(ctx context.Context, phone string) (*entity.Driver, error)
	Reject(ctx context.Context, phone string) (*entity.Driver, error)
}

type Core struct {
	log        *slog.Logger
	repo       Repository
	approvals  Approvals
	signSecret string
	signTTL    time.Duration
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetApprovalService(approvals Approvals) {
	c.approvals = approvals
}

// SetFileSigner configures signing of document links in API responses.
func (c *Core) SetFileSigner(secret string, ttl time.Duration) {
	c.signSecret = secret
	c.signTTL = ttl
}

func (c *Core) ApproveDriver(ctx context.Context, phone string) (*entity.Driver, error) {
	if c.approvals == nil {
		return nil, fmt.Errorf("approval service not available")
	}
	return c.approvals.Approve(ctx, phone)
}

func (c *Core) RejectDriver(ctx context.Context, phone string) (*entity.Driver, error) {
	if c.approvals == nil {
		return nil, fmt.Errorf("approval service not available")
	}
	return c.approvals.Reject(ctx, phone)
}

func (c *Core) ListDrivers(ctx context.Context) ([]entity.Driver, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("repository not available")
	}
	drivers, err := c.repo.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range drivers {
		c.signDocumentLinks(&drivers[i])
	}
	return drivers, nil
}

func (c *Core) ListTrips(ctx context.Context) ([]entity.Trip, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("repository not available")
	}
	return c.repo.ListTrips(ctx)
}

func (c *Core) DownloadDocument(ctx context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error) {
	if c.repo == nil {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("repository not available")
	}
	return c.repo.DownloadDocument(ctx, fileID)
}

// signDocumentLinks replaces stored document paths with expiring signed URLs
// so review staff can open them straight from the listing.
func (c *Core) signDocumentLinks(d *entity.Driver) {
	if c.signSecret == "" {
		return
	}
	for slot, doc := range d.Documents {
		if doc.URL == "" {
			continue
		}
		id := path.Base(doc.URL)
		if i := strings.IndexByte(id, '?'); i >= 0 {
			id = id[:i]
		}
		doc.URL = fileurl.SignURL(id, c.signSecret, c.signTTL)
		d.Documents[slot] = doc
	}
}
