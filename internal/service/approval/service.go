// Package approval applies back-office approval decisions to driver records
// and pushes the credential-setup prompt into the driver's conversation.
package approval

import (
	"context"
	"fmt"
	"log/slog"

	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

// Repository defines the driver persistence operations used here.
type Repository interface {
	GetDriverByPhone(ctx context.Context, phone string) (*entity.Driver, error)
	UpsertDriver(ctx context.Context, d *entity.Driver) error
}

// PinPrompter starts the PIN setup conversation for an approved driver.
type PinPrompter interface {
	PromptPin(ctx context.Context, chatID string) error
}

// Service handles approval decisions arriving over the admin API.
type Service struct {
	repo     Repository
	prompter PinPrompter
	log      *slog.Logger
}

// NewService creates an approval service. prompter may be nil when the bot is
// disabled; the status change still applies.
func NewService(repo Repository, prompter PinPrompter, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		prompter: prompter,
		log:      log.With(sl.Module("approval")),
	}
}

// Approve marks the driver approved and hands off into PIN setup.
func (s *Service) Approve(ctx context.Context, phone string) (*entity.Driver, error) {
	d, err := s.repo.GetDriverByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, entity.ErrNotFound
	}
	if !d.DocumentsComplete() {
		return nil, fmt.Errorf("%w: driver %s has incomplete documents", entity.ErrValidation, phone)
	}

	d.Approval = entity.ApprovalApproved
	if err := s.repo.UpsertDriver(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info("driver approved", slog.String("chat_id", d.ChatID), slog.String("phone", phone))

	if s.prompter != nil {
		if err := s.prompter.PromptPin(ctx, d.ChatID); err != nil {
			s.log.Warn("pin prompt", slog.String("chat_id", d.ChatID), sl.Err(err))
		}
	}

	return d, nil
}

// Reject marks the driver rejected.
func (s *Service) Reject(ctx context.Context, phone string) (*entity.Driver, error) {
	d, err := s.repo.GetDriverByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, entity.ErrNotFound
	}

	d.Approval = entity.ApprovalRejected
	if err := s.repo.UpsertDriver(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info("driver rejected", slog.String("chat_id", d.ChatID), slog.String("phone", phone))
	return d, nil
}
