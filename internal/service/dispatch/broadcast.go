package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"RideDesk/bot/chat"
	"RideDesk/entity"
	"RideDesk/internal/lib/sl"
)

// Broadcast sends the trip summary with an accept action to every approved
// driver. Fire-and-forget per recipient: a failed send is logged and the
// broadcast continues; nothing is retried.
func (s *Service) Broadcast(ctx context.Context, m chat.Messenger, trip *entity.Trip) error {
	if trip.Pickup == nil {
		return fmt.Errorf("trip %s has no pickup location", trip.ID)
	}

	drivers, err := s.repo.ListApprovedDrivers(ctx)
	if err != nil {
		return fmt.Errorf("listing approved drivers: %w", err)
	}

	summary := fmt.Sprintf("🚖 <b>New ride request</b>\nRider: %s\nContact: %s\nDestination: %s",
		trip.RiderName, trip.Contact, trip.Destination)
	buttons := []chat.InlineButton{
		{Text: "✅ Accept ride", Data: AcceptData(trip.ID)},
	}

	sent := 0
	for _, d := range drivers {
		if err := m.SendLocation(d.ChatID, trip.Pickup.Latitude, trip.Pickup.Longitude, 0); err != nil {
			s.log.Warn("send pickup location", slog.String("driver", d.ChatID), sl.Err(err))
			continue
		}
		if err := m.SendInlineOptions(d.ChatID, summary, buttons); err != nil {
			s.log.Warn("send trip summary", slog.String("driver", d.ChatID), sl.Err(err))
			continue
		}
		sent++
	}

	s.log.Info("trip broadcast",
		slog.String("trip_id", trip.ID),
		slog.Int("drivers", len(drivers)),
		slog.Int("sent", sent),
	)
	s.publish("trip_requested", trip)

	return nil
}
