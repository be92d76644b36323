// Package driver implements the driver onboarding conversation: full name,
// phone number, the ten-document collection and, after back-office approval,
// the short-lived PIN setup.
package driver

import (
	"context"
	"log/slog"

	"RideDesk/bot/chat"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

const (
	WorkflowID    chat.WorkflowID = "driver-onboarding"
	PinWorkflowID chat.WorkflowID = "driver-pin"
)

// Step IDs
const (
	StepName  chat.StepID = "name"
	StepPhone chat.StepID = "phone"
	StepDocs  chat.StepID = "docs"
	StepPin   chat.StepID = "pin"
)

// Repository defines the driver persistence operations used by the workflow.
type Repository interface {
	GetDriver(ctx context.Context, chatID string) (*entity.Driver, error)
	GetDriverByPhone(ctx context.Context, phone string) (*entity.Driver, error)
	UpsertDriver(ctx context.Context, d *entity.Driver) error
}

// DocIngester runs the document ingestion pipeline for one inbound file.
// It reports whether document collection finished with this file.
type DocIngester interface {
	Ingest(ctx context.Context, m chat.Messenger, d *entity.Driver, file chat.FileInput) (bool, error)
}

// OnboardingWorkflow implements the driver onboarding flow.
type OnboardingWorkflow struct {
	steps map[chat.StepID]chat.Step
}

func NewOnboardingWorkflow(repo Repository, ingester DocIngester, log *slog.Logger) *OnboardingWorkflow {
	lg := log.With(sl.Module("driver-onboarding"))
	w := &OnboardingWorkflow{
		steps: make(map[chat.StepID]chat.Step),
	}

	w.steps[StepName] = &NameStep{repo: repo}
	w.steps[StepPhone] = &PhoneStep{repo: repo}
	w.steps[StepDocs] = &DocsStep{repo: repo, ingester: ingester, log: lg}

	return w
}

func (w *OnboardingWorkflow) ID() chat.WorkflowID      { return WorkflowID }
func (w *OnboardingWorkflow) InitialStep() chat.StepID { return StepName }

func (w *OnboardingWorkflow) GetStep(id chat.StepID) (chat.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}

// PinWorkflow is the single-step credential setup, entered on back-office
// approval or via the PIN reissue command.
type PinWorkflow struct {
	steps map[chat.StepID]chat.Step
}

func NewPinWorkflow(repo Repository, log *slog.Logger) *PinWorkflow {
	w := &PinWorkflow{
		steps: make(map[chat.StepID]chat.Step),
	}
	w.steps[StepPin] = &PinStep{repo: repo, log: log.With(sl.Module("driver-pin"))}
	return w
}

func (w *PinWorkflow) ID() chat.WorkflowID      { return PinWorkflowID }
func (w *PinWorkflow) InitialStep() chat.StepID { return StepPin }

func (w *PinWorkflow) GetStep(id chat.StepID) (chat.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}
