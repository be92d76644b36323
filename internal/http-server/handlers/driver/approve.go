package driver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"RideDesk/entity"
	"RideDesk/internal/lib/api/response"
	"RideDesk/internal/lib/sl"
)

var validate = validator.New()

type DecisionRequest struct {
	Phone string `json:"phone" validate:"required,min=8"`
}

// Approve handles the back-office approval trigger: it flips the driver to
// approved and pushes the PIN setup prompt into their conversation.
func Approve(log *slog.Logger, handler Core) http.HandlerFunc {
	return decision(log, "approve", func(r *http.Request, phone string) (*entity.Driver, error) {
		return handler.ApproveDriver(r.Context(), phone)
	})
}

// Reject marks a driver application as rejected.
func Reject(log *slog.Logger, handler Core) http.HandlerFunc {
	return decision(log, "reject", func(r *http.Request, phone string) (*entity.Driver, error) {
		return handler.RejectDriver(r.Context(), phone)
	})
}

func decision(log *slog.Logger, action string, apply func(r *http.Request, phone string) (*entity.Driver, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.driver"),
			slog.String("action", action),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req DecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Phone is required"))
			return
		}

		d, err := apply(r, req.Phone)
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("Driver not found"))
			case errors.Is(err, entity.ErrValidation):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error(err.Error()))
			default:
				logger.Error("driver decision", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Failed to update driver"))
			}
			return
		}

		logger.Info("driver decision applied", slog.String("chat_id", d.ChatID))
		render.JSON(w, r, d)
	}
}
