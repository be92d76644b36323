package rider

import (
	"context"
	"log/slog"
	"strings"

	"RideDesk/bot/chat"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

// AskNameStep — collect the rider's name and create the pending trip.
type AskNameStep struct {
	repo Repository
}

func (s *AskNameStep) ID() chat.StepID { return StepAskName }

func (s *AskNameStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	if err := m.SendText(state.ChatID, "Let's get you a ride! 🚖\nWhat's your name?"); err != nil {
		return chat.StepResult{Error: err}
	}
	return chat.StepResult{}
}

func (s *AskNameStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	name := strings.TrimSpace(input.Text)
	if !chat.IsValidName(name) {
		_ = m.SendText(state.ChatID, "❌ Please send your name (2-50 characters).")
		return chat.StepResult{}
	}

	trip := entity.NewTrip(state.ChatID, name)
	if err := s.repo.InsertTrip(ctx, trip); err != nil {
		return chat.StepResult{Error: err}
	}

	return chat.StepResult{NextStep: StepContact}
}

// ContactStep — collect a contact phone number for the driver to call.
type ContactStep struct {
	repo Repository
}

func (s *ContactStep) ID() chat.StepID { return StepContact }

func (s *ContactStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	_ = m.SendContactRequest(state.ChatID,
		"What number can the driver reach you on? Share your contact or type it:",
		"📱 Share phone number")
	return chat.StepResult{}
}

func (s *ContactStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	text := input.Text
	if input.Phone != "" {
		text = input.Phone
	}

	if !chat.IsValidPhone(text) {
		_ = m.SendText(state.ChatID, "❌ Please send a valid phone number, e.g. +27821234567.")
		return chat.StepResult{}
	}
	contact := chat.NormalizePhone(text)

	trip, err := s.repo.SetTripContact(ctx, state.ChatID, contact)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if trip == nil {
		_ = m.SendText(state.ChatID, "No ride request in progress. Send /ride to start one.")
		return chat.StepResult{Complete: true}
	}

	return chat.StepResult{NextStep: StepDestination}
}

// DestinationStep — collect a free-text destination description.
type DestinationStep struct {
	repo Repository
}

func (s *DestinationStep) ID() chat.StepID { return StepDestination }

func (s *DestinationStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	_ = m.SendText(state.ChatID, "Where are you going? Send the destination address.")
	return chat.StepResult{}
}

func (s *DestinationStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	destination := strings.TrimSpace(input.Text)
	if len(destination) < 2 {
		_ = m.SendText(state.ChatID, "❌ Please send the destination address.")
		return chat.StepResult{}
	}

	trip, err := s.repo.SetTripDestination(ctx, state.ChatID, destination)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if trip == nil {
		_ = m.SendText(state.ChatID, "No ride request in progress. Send /ride to start one.")
		return chat.StepResult{Complete: true}
	}

	return chat.StepResult{NextStep: StepLocation}
}

// LocationStep — require a structured coordinate payload, then hand the
// completed trip to the dispatcher.
type LocationStep struct {
	repo       Repository
	dispatcher Dispatcher
	log        *slog.Logger
}

func (s *LocationStep) ID() chat.StepID { return StepLocation }

func (s *LocationStep) Enter(ctx context.Context, m chat.Messenger, state *chat.ChatState) chat.StepResult {
	_ = m.SendLocationRequest(state.ChatID,
		"Almost done! Share your pickup location using the button below.",
		"📍 Share pickup location")
	return chat.StepResult{}
}

func (s *LocationStep) HandleInput(ctx context.Context, m chat.Messenger, state *chat.ChatState, input chat.UserInput) chat.StepResult {
	if input.Location == nil {
		_ = m.SendText(state.ChatID, "Please use the location button to share your pickup point — typing the address won't work here.")
		return chat.StepResult{}
	}

	loc := entity.Location{
		Latitude:  input.Location.Latitude,
		Longitude: input.Location.Longitude,
	}

	trip, err := s.repo.SetTripPickup(ctx, state.ChatID, loc)
	if err != nil {
		return chat.StepResult{Error: err}
	}
	if trip == nil {
		_ = m.SendText(state.ChatID, "No ride request in progress. Send /ride to start one.")
		return chat.StepResult{Complete: true}
	}

	_ = m.SendText(state.ChatID, "✅ Got it! Looking for a driver near you...")

	if err := s.dispatcher.Broadcast(ctx, m, trip); err != nil {
		s.log.Error("broadcast", slog.String("trip_id", trip.ID), sl.Err(err))
	}

	return chat.StepResult{Complete: true}
}
