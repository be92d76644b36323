package trip

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"RideDesk/entity"
	"RideDesk/internal/lib/api/response"
	"RideDesk/internal/lib/sl"
)

type Core interface {
	ListTrips(ctx context.Context) ([]entity.Trip, error)
}

// List returns all trip records, newest first.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.trip"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		trips, err := handler.ListTrips(r.Context())
		if err != nil {
			logger.Error("list trips", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list trips"))
			return
		}

		render.JSON(w, r, trips)
	}
}
