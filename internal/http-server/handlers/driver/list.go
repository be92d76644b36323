package driver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"RideDesk/internal/lib/api/response"
	"RideDesk/internal/lib/sl"
)

// List returns all driver records, newest first.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.driver"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		drivers, err := handler.ListDrivers(r.Context())
		if err != nil {
			logger.Error("list drivers", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list drivers"))
			return
		}

		render.JSON(w, r, drivers)
	}
}
