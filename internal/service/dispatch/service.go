// Package dispatch broadcasts captured trips to approved drivers, arbitrates
// which driver wins a trip and relays the rider's live location to the
// assigned driver.
package dispatch

import (
	"context"
	"log/slog"
	"strings"

	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

// AcceptPrefix tags the accept action carried in callback data.
const AcceptPrefix = "accept:"

// Repository defines the persistence operations used by dispatch.
// AcceptTrip is the arbitration primitive: it must atomically transition the
// trip from pending to accepted, succeeding for exactly one caller, and
// return nil when the trip is already taken or unknown.
type Repository interface {
	ListApprovedDrivers(ctx context.Context) ([]entity.Driver, error)
	GetDriver(ctx context.Context, chatID string) (*entity.Driver, error)
	AcceptTrip(ctx context.Context, tripID, driverChatID string) (*entity.Trip, error)
	GetAcceptedTripByRider(ctx context.Context, riderChatID string) (*entity.Trip, error)
}

// EventSink receives trip lifecycle events for the ops dashboard.
type EventSink interface {
	Publish(eventType string, data any)
}

// Service implements the dispatch protocol.
type Service struct {
	repo Repository
	sink EventSink
	log  *slog.Logger
}

// NewService creates a dispatch service. sink may be nil.
func NewService(repo Repository, sink EventSink, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		sink: sink,
		log:  log.With(sl.Module("dispatch")),
	}
}

// AcceptData builds the callback payload for a trip's accept button.
func AcceptData(tripID string) string {
	return AcceptPrefix + tripID
}

// ParseAcceptData extracts the trip id from an accept callback payload.
func ParseAcceptData(data string) (string, bool) {
	if !strings.HasPrefix(data, AcceptPrefix) {
		return "", false
	}
	tripID := strings.TrimPrefix(data, AcceptPrefix)
	return tripID, tripID != ""
}

func (s *Service) publish(eventType string, data any) {
	if s.sink != nil {
		s.sink.Publish(eventType, data)
	}
}
