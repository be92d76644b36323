// Package rider implements the trip request conversation: rider name, contact
// number, destination and pickup location, ending in a broadcast to all
// approved drivers.
package rider

import (
	"context"
	"log/slog"

	"RideDesk/bot/chat"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

const (
	WorkflowID chat.WorkflowID = "trip-request"
)

// Step IDs
const (
	StepAskName     chat.StepID = "ask_name"
	StepContact     chat.StepID = "contact"
	StepDestination chat.StepID = "destination"
	StepLocation    chat.StepID = "location"
)

// Repository defines the trip persistence operations used by the workflow.
// The field updates target the rider's most recent pending trip that does not
// yet carry the field, so a rebuilt session reattaches to the in-progress
// record. They return nil when no such trip exists.
type Repository interface {
	InsertTrip(ctx context.Context, t *entity.Trip) error
	SetTripContact(ctx context.Context, riderChatID, contact string) (*entity.Trip, error)
	SetTripDestination(ctx context.Context, riderChatID, destination string) (*entity.Trip, error)
	SetTripPickup(ctx context.Context, riderChatID string, loc entity.Location) (*entity.Trip, error)
}

// Dispatcher broadcasts a fully captured trip to eligible drivers.
type Dispatcher interface {
	Broadcast(ctx context.Context, m chat.Messenger, trip *entity.Trip) error
}

// TripWorkflow implements the rider trip request flow.
type TripWorkflow struct {
	steps map[chat.StepID]chat.Step
}

func NewTripWorkflow(repo Repository, dispatcher Dispatcher, log *slog.Logger) *TripWorkflow {
	lg := log.With(sl.Module("trip-request"))
	w := &TripWorkflow{
		steps: make(map[chat.StepID]chat.Step),
	}

	w.steps[StepAskName] = &AskNameStep{repo: repo}
	w.steps[StepContact] = &ContactStep{repo: repo}
	w.steps[StepDestination] = &DestinationStep{repo: repo}
	w.steps[StepLocation] = &LocationStep{repo: repo, dispatcher: dispatcher, log: lg}

	return w
}

func (w *TripWorkflow) ID() chat.WorkflowID      { return WorkflowID }
func (w *TripWorkflow) InitialStep() chat.StepID { return StepAskName }

func (w *TripWorkflow) GetStep(id chat.StepID) (chat.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}
