package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/Kultup/helpDesk-sub006/internal/config"
	"github.com/Kultup/helpDesk-sub006/internal/http-server/handlers/errors"
	"github.com/Kultup/helpDesk-sub006/internal/http-server/handlers/registration"
	"github.com/Kultup/helpDesk-sub006/internal/http-server/handlers/ticket"
	"github.com/Kultup/helpDesk-sub006/internal/http-server/middleware/authenticate"
	"github.com/Kultup/helpDesk-sub006/internal/http-server/middleware/timeout"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
	"github.com/Kultup/helpDesk-sub006/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler is everything the HTTP surface needs from the application.
type Handler interface {
	ticket.Core
	registration.Core
}

// New builds the router and serves it. Blocks until the listener fails.
func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// dashboard event stream authenticates by query param on upgrade
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, conf.Listen.ApiKey, log, w, r)
	})

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(render.SetContentType(render.ContentTypeJSON))
		v1.Use(authenticate.New(log, conf.Listen.ApiKey))

		v1.Route("/tickets", func(r chi.Router) {
			r.Post("/created", ticket.Created(log, handler))
			r.Post("/closed", ticket.Closed(log, handler))
			r.Post("/status", ticket.StatusChanged(log, handler))
			r.Post("/sla", ticket.SLAAssigned(log, handler))
		})

		v1.Route("/registration", func(r chi.Router) {
			r.Post("/approved", registration.Approved(log, handler))
			r.Post("/rejected", registration.Rejected(log, handler))
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
