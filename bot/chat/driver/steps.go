package driver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"RideDesk/bot/chat"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

// PinTTL is how long an issued PIN stays valid.
const PinTTL = 24 * time.Hour

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// NameStep — create the driver record on first contact and collect the name.
type NameStep struct {
	repo Repository
}

func (s *NameStep) ID() chat.StepID { return StepName }

func (s *NameStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}

	if d != nil && d.Step == entity.StepCompleted {
		// Restarting a finished onboarding just re-displays the status.
		_ = m.SendText(state.ChatID, StatusText(d))
		return chat.StepResult{Complete: true}
	}

	if d == nil {
		d = entity.NewDriver(state.ChatID)
		if err := s.repo.UpsertDriver(ctx, d); err != nil {
			return chat.StepResult{Error: err}
		}
	}

	if err := m.SendText(state.ChatID, "Welcome to RideDesk driver onboarding! 🚕\nPlease send your full name."); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *NameStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	name := strings.TrimSpace(input.Text)
	if !chat.IsValidName(name) {
		_ = m.SendText(state.ChatID, "❌ Please send your full name (2-50 characters).")
		return chat.StepResult{}
	}

	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if d == nil {
		d = entity.NewDriver(state.ChatID)
	}

	d.Name = name
	d.Step = entity.StepPhone
	if err := s.repo.UpsertDriver(ctx, d); err != nil {
		return chat.StepResult{Error: err}
	}

	_ = m.SendText(state.ChatID, fmt.Sprintf("✅ Thanks, %s!", name))
	return chat.StepResult{NextStep: StepPhone}
}

// PhoneStep — collect and validate a globally unique phone number.
type PhoneStep struct {
	repo Repository
}

func (s *PhoneStep) ID() chat.StepID { return StepPhone }

func (s *PhoneStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	_ = m.SendContactRequest(state.ChatID,
		"Now share your phone number, or type it in international format (e.g. +27821234567):",
		"📱 Share phone number")
	return chat.StepResult{}
}

func (s *PhoneStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	text := input.Text
	if input.Phone != "" {
		text = input.Phone
	}

	if !chat.IsValidPhone(text) {
		_ = m.SendText(state.ChatID, "❌ That doesn't look like a phone number. Use international format, e.g. +27821234567.")
		return chat.StepResult{}
	}
	phone := chat.NormalizePhone(text)

	other, err := s.repo.GetDriverByPhone(ctx, phone)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if other != nil && other.ChatID != state.ChatID {
		_ = m.SendText(state.ChatID, "❌ This phone number is already registered to another driver. Please use a different one.")
		return chat.StepResult{}
	}

	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if d == nil {
		return chat.StepResult{Error: entity.ErrNotFound}
	}

	d.Phone = phone
	d.Step = entity.StepDocs
	if err := s.repo.UpsertDriver(ctx, d); err != nil {
		return chat.StepResult{Error: err}
	}

	_ = m.SendText(state.ChatID, fmt.Sprintf("✅ Phone number saved: %s", phone))
	return chat.StepResult{NextStep: StepDocs}
}

// DocsStep — collect the ten required documents through the ingestion pipeline.
type DocsStep struct {
	repo     Repository
	ingester DocIngester
	log      *slog.Logger
}

func (s *DocsStep) ID() chat.StepID { return StepDocs }

func (s *DocsStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if d == nil {
		return chat.StepResult{Error: entity.ErrNotFound}
	}

	slot := d.NextDocumentSlot()
	if slot == "" {
		return chat.StepResult{Complete: true}
	}

	_ = m.SendText(state.ChatID, fmt.Sprintf(
		"We need %d documents from you (photos or PDF).\nPlease send your %s (%d of %d).",
		len(entity.DocumentSlots), entity.SlotTitles[slot], d.DocumentsFilled()+1, len(entity.DocumentSlots)))
	return chat.StepResult{}
}

func (s *DocsStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	if input.File == nil {
		_ = m.SendText(state.ChatID, "Please send the document as a photo or a PDF file.")
		return chat.StepResult{}
	}

	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if d == nil {
		return chat.StepResult{Error: entity.ErrNotFound}
	}

	done, err := s.ingester.Ingest(ctx, m, d, *input.File)
	if err != nil {
		s.log.Error("document ingestion", slog.String("chat_id", state.ChatID), sl.Err(err))
		return chat.StepResult{Error: err}
	}
	if done {
		return chat.StepResult{Complete: true}
	}
	return chat.StepResult{}
}

// PinStep — accept a 4-digit PIN, store its hash with a 24h expiry.
type PinStep struct {
	repo Repository
	log  *slog.Logger
}

func (s *PinStep) ID() chat.StepID { return StepPin }

func (s *PinStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if d == nil {
		_ = m.SendText(state.ChatID, "You are not registered as a driver yet. Send /start to begin onboarding.")
		return chat.StepResult{Complete: true}
	}

	d.Step = entity.StepPin
	if err := s.repo.UpsertDriver(ctx, d); err != nil {
		return chat.StepResult{Error: err}
	}

	_ = m.SendText(state.ChatID, "Choose a 4-digit PIN for logging in to the driver app and send it here.")
	return chat.StepResult{}
}

func (s *PinStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	pin := strings.TrimSpace(input.Text)
	if !pinPattern.MatchString(pin) {
		_ = m.SendText(state.ChatID, "❌ The PIN must be exactly 4 digits. Try again.")
		return chat.StepResult{}
	}

	d, err := s.repo.GetDriver(ctx, state.ChatID)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if d == nil {
		return chat.StepResult{Error: entity.ErrNotFound}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return chat.StepResult{Error: err}
	}

	d.Credential = &entity.PinCredential{
		Hash:      string(hash),
		ExpiresAt: time.Now().Add(PinTTL),
	}
	d.Step = entity.StepCompleted
	if err := s.repo.UpsertDriver(ctx, d); err != nil {
		return chat.StepResult{Error: err}
	}

	s.log.Info("pin issued", slog.String("chat_id", state.ChatID))
	_ = m.SendText(state.ChatID, "✅ Your PIN is set. It is valid for 24 hours.")
	return chat.StepResult{Complete: true}
}
