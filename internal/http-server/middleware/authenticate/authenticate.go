// Package authenticate guards the admin API with a static bearer key.
package authenticate

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"

	"RideDesk/internal/lib/api/response"
	"RideDesk/internal/lib/sl"
)

func New(log *slog.Logger, apiKey string) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod, sl.Secret("api_key", apiKey)).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			remote := r.RemoteAddr
			// if the request is coming from a proxy, use the X-Forwarded-For header
			if xRemote := r.Header.Get("X-Forwarded-For"); xRemote != "" {
				remote = xRemote
			}
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remote),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming request")
			}()

			if apiKey == "" {
				authFailed(ww, r, "Unauthorized: authentication not enabled")
				return
			}

			token := ""
			header := r.Header.Get("Authorization")
			if strings.Contains(header, "Bearer") {
				parts := strings.Split(header, " ")
				token = parts[len(parts)-1]
			}
			if token != apiKey {
				authFailed(ww, r, "Unauthorized: invalid api key")
				return
			}

			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r)
		}

		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
