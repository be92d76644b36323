// Package docs implements the driver document ingestion pipeline:
// resolve the inbound file on the chat transport, download it, classify it,
// upload it to the media store and record the slot metadata. Every failure
// leaves the driver record exactly as before the attempt; the user retries by
// resending the file.
package docs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"RideDesk/bot/chat"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

const (
	// downloadTimeout bounds the transport fetch; not retried automatically.
	downloadTimeout = 5 * time.Second
	// uploadTimeout is generous since media stores can be slow.
	uploadTimeout = 2 * time.Minute
)

// FileTransport resolves a transient download URL for an inbound file.
type FileTransport interface {
	ResolveFileURL(fileID string) (string, error)
}

// MediaStore uploads a byte buffer under a folder scoped by conversation and
// a slot-derived name, returning the stored document's URL.
type MediaStore interface {
	UploadDocument(ctx context.Context, folder, name string, data []byte, meta entity.FileMetadata) (string, error)
}

// Repository persists driver records.
type Repository interface {
	UpsertDriver(ctx context.Context, d *entity.Driver) error
}

// Pipeline ingests one document per inbound file-bearing event.
type Pipeline struct {
	transport FileTransport
	store     MediaStore
	repo      Repository
	client    *http.Client
	log       *slog.Logger
}

// NewPipeline creates a document ingestion pipeline.
func NewPipeline(transport FileTransport, store MediaStore, repo Repository, log *slog.Logger) *Pipeline {
	return &Pipeline{
		transport: transport,
		store:     store,
		repo:      repo,
		client:    &http.Client{},
		log:       log.With(sl.Module("doc-pipeline")),
	}
}

// Ingest processes one inbound file for the driver's next unfilled slot.
// Returns true when document collection finished with this file.
func (p *Pipeline) Ingest(ctx context.Context, m chat.Messenger, d *entity.Driver, file chat.FileInput) (bool, error) {
	slot := d.NextDocumentSlot()
	if slot == "" {
		// Late or duplicate submission after completion.
		return true, nil
	}

	url, err := p.transport.ResolveFileURL(file.FileID)
	if err != nil {
		p.log.Warn("resolve file", slog.String("chat_id", d.ChatID), sl.Err(err))
		_ = m.SendText(d.ChatID, "⚠️ Couldn't fetch your file from Telegram. Please send it again.")
		return false, nil
	}

	data, err := p.download(ctx, url)
	if err != nil {
		p.log.Warn("download file", slog.String("chat_id", d.ChatID), sl.Err(err))
		_ = m.SendText(d.ChatID, "⚠️ Downloading your file timed out. Please send it again.")
		return false, nil
	}

	resourceType, format, ok := classify(file)
	if !ok {
		_ = m.SendText(d.ChatID, "❌ Unsupported file type. Please send a photo or a PDF document.")
		return false, nil
	}

	meta := entity.FileMetadata{
		MIMEType:     file.MIMEType,
		ChatID:       d.ChatID,
		Slot:         slot,
		ResourceType: resourceType,
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	storedURL, err := p.store.UploadDocument(uploadCtx, "drivers/"+d.ChatID, slot, data, meta)
	if err != nil {
		p.log.Error("upload document", slog.String("chat_id", d.ChatID), slog.String("slot", slot), sl.Err(err))
		_ = m.SendText(d.ChatID, fmt.Sprintf("⚠️ Uploading your document failed (%v). Please send it again.", err))
		return false, nil
	}

	// Only now does the attempt become visible on the record.
	d.Documents[slot] = entity.DocumentSlot{
		FileID:     file.FileID,
		URL:        storedURL,
		Format:     format,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Verified:   false,
	}

	next := d.NextDocumentSlot()
	if next == "" {
		d.Step = entity.StepCompleted
		d.Approval = entity.ApprovalPending
	}

	if err := p.repo.UpsertDriver(ctx, d); err != nil {
		return false, err
	}

	p.log.Info("document stored",
		slog.String("chat_id", d.ChatID),
		slog.String("slot", slot),
		slog.Int("size", len(data)),
	)

	if next == "" {
		_ = m.SendText(d.ChatID, "🎉 All documents received! Your application is now under review — we'll message you once you're approved.")
		return true, nil
	}

	_ = m.SendText(d.ChatID, fmt.Sprintf("✅ Saved. Now send your %s (%d of %d).",
		entity.SlotTitles[next], d.DocumentsFilled()+1, len(entity.DocumentSlots)))
	return false, nil
}

func (p *Pipeline) download(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", entity.ErrDownload, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// classify maps the inbound media to a storage resource type and format.
func classify(file chat.FileInput) (resourceType, format string, ok bool) {
	switch {
	case file.IsPhoto:
		return entity.ResourceImage, "jpg", true
	case strings.HasPrefix(file.MIMEType, "image/"):
		return entity.ResourceImage, strings.TrimPrefix(file.MIMEType, "image/"), true
	case file.MIMEType == "application/pdf":
		return entity.ResourceRaw, "pdf", true
	}
	return "", "", false
}
