package dispatch

import (
	"context"
	"log/slog"

	"RideDesk/bot/chat"
	"RideDesk/internal/lib/sl"
)

// RelayLocation forwards a rider's location update to the driver assigned to
// the rider's accepted trip. Updates from riders without an accepted trip are
// silently dropped. Returns whether a relay was sent.
func (s *Service) RelayLocation(ctx context.Context, m chat.Messenger, riderChatID string, loc chat.LocationInput) (bool, error) {
	trip, err := s.repo.GetAcceptedTripByRider(ctx, riderChatID)
	if err != nil {
		return false, err
	}
	if trip == nil || trip.DriverID == "" {
		return false, nil
	}

	if err := m.SendLocation(trip.DriverID, loc.Latitude, loc.Longitude, loc.LivePeriod); err != nil {
		s.log.Warn("relay location",
			slog.String("trip_id", trip.ID),
			slog.String("driver", trip.DriverID),
			sl.Err(err),
		)
		return false, err
	}

	return true, nil
}
