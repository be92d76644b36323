package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"RideDesk/internal/config"
	"RideDesk/internal/http-server/handlers/driver"
	"RideDesk/internal/http-server/handlers/errors"
	"RideDesk/internal/http-server/handlers/files"
	"RideDesk/internal/http-server/handlers/trip"
	"RideDesk/internal/http-server/middleware/authenticate"
	"RideDesk/internal/http-server/middleware/timeout"
	"RideDesk/internal/lib/sl"
	"RideDesk/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler aggregates the operations the admin API exposes.
type Handler interface {
	driver.Core
	trip.Core
	files.Core
}

// New builds the router and serves the admin API. Blocks until the listener
// stops.
func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api/v1", func(v1 chi.Router) {
		// Signed document links authenticate through their HMAC.
		v1.Get("/files/{id}", files.Download(log, handler, conf.Files.SignSecret))

		if hub != nil {
			v1.Get("/ws", hub.ServeWS)
		}

		v1.Group(func(r chi.Router) {
			r.Use(timeout.Timeout(5))
			r.Use(authenticate.New(log, conf.Listen.ApiKey))

			r.Route("/drivers", func(r chi.Router) {
				r.Get("/", driver.List(log, handler))
				r.Post("/approve", driver.Approve(log, handler))
				r.Post("/reject", driver.Reject(log, handler))
			})
			r.Route("/trips", func(r chi.Router) {
				r.Get("/", trip.List(log, handler))
			})
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
