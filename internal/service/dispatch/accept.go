package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"RideDesk/bot/chat"
	"RideDesk/internal/lib/sl"
)

// HandleAccept resolves one accept action. The winner is whoever's conditional
// status update succeeds against the store first; arrival order here is
// irrelevant. Losers and unknown trip ids both get the neutral
// "no longer available" response.
func (s *Service) HandleAccept(ctx context.Context, m chat.Messenger, driverChatID, callbackID, data string) error {
	tripID, ok := ParseAcceptData(data)
	if !ok {
		return fmt.Errorf("malformed accept payload: %q", data)
	}

	trip, err := s.repo.AcceptTrip(ctx, tripID, driverChatID)
	if err != nil {
		return fmt.Errorf("accepting trip %s: %w", tripID, err)
	}

	if trip == nil {
		_ = m.AnswerCallback(callbackID, "This ride is no longer available.")
		return nil
	}

	_ = m.AnswerCallback(callbackID, "Ride is yours!")

	driver, err := s.repo.GetDriver(ctx, driverChatID)
	if err != nil {
		s.log.Error("load winning driver", slog.String("driver", driverChatID), sl.Err(err))
	}

	driverLine := "your driver"
	if driver != nil {
		driverLine = fmt.Sprintf("%s (%s)", driver.Name, driver.Phone)
	}

	_ = m.SendText(driverChatID, fmt.Sprintf(
		"✅ You accepted the ride for %s.\nContact: %s\nDestination: %s\nHead to the pickup point!",
		trip.RiderName, trip.Contact, trip.Destination))

	_ = m.SendText(trip.RiderChatID, fmt.Sprintf(
		"🚕 Your driver is on the way!\nDriver: %s\nYou can share your live location to help them find you.",
		driverLine))

	s.log.Info("trip accepted",
		slog.String("trip_id", trip.ID),
		slog.String("driver", driverChatID),
	)
	s.publish("trip_accepted", trip)

	return nil
}
