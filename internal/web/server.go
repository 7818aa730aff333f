package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"signalrelay/internal/core"
)

// Status is what GET /api/status reports.
type Status struct {
	Mode     string    `json:"mode"`
	Platform string    `json:"platform"`
	Venue    string    `json:"venue"`
	Started  time.Time `json:"started"`
}

type Deps struct {
	Relay   *core.Relay
	Metrics http.Handler
	Status  Status
	// WebhookSecret enables POST /api/messages when set.
	WebhookSecret string
	Logger        zerolog.Logger
}

type Server struct {
	Addr string

	deps Deps
	hub  *sseHub
	log  zerolog.Logger
}

func NewServer(addr string, d Deps) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{Addr: addr, deps: d, hub: newHub(), log: d.Logger}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", s.handlePing)
	r.Get("/api/status", s.handleStatus)
	if s.deps.WebhookSecret != "" && s.deps.Relay != nil {
		r.With(s.signed).Post("/api/messages", s.handleMessages)
	}
	r.Get("/sse", s.hub.Subscribe)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}
	return r
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Close()
		_ = srv.Shutdown(shutCtx)
	}()
	s.log.Info().Str("addr", s.Addr).Bool("webhook", s.deps.WebhookSecret != "").Msg("web: listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Publish streams one processed line to SSE subscribers. It has the
// signature of core.RelayOpts.OnOutcome.
func (s *Server) Publish(msg core.Message, o core.Outcome) {
	s.hub.Broadcast("outcome", viewOf(msg.ChannelID, o))
}
