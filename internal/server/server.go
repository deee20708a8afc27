// Package server exposes a session over HTTP and pushes its changes to
// websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"qrprompt/internal/config"
	"qrprompt/internal/i18n"
	"qrprompt/internal/logging"
	"qrprompt/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server serves one session controller.
type Server struct {
	cfg     config.ServerConfig
	ctrl    *session.Controller
	tr      *i18n.Translator
	hub     *Hub
	router  chi.Router
	started time.Time

	relayMu sync.Mutex
	lastSeq uint64
}

// New wires the routes. tr is the fallback language for error messages
// when the request carries no usable Accept-Language.
func New(cfg config.ServerConfig, ctrl *session.Controller, tr *i18n.Translator) *Server {
	if tr == nil {
		tr = i18n.New("fr")
	}
	s := &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		tr:      tr,
		hub:     NewHub(),
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/ws", newWSHandler(s.hub, origins))

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Get("/fiche", s.handleFiche)
		r.Put("/values/{id}", s.handleSetValue)
		r.Post("/gps", s.handleGPS)
		r.Post("/photos/{id}", s.handlePhoto)
		r.Get("/prompt", s.handlePrompt)
		r.Get("/targets", s.handleTargets)
		r.Get("/targets/{name}/url", s.handleTargetURL)
		r.Post("/reset", s.handleReset)
		r.Get("/bundle", s.handleBundle)
	})

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hub and the HTTP server on ln. Session events are pushed
// to websocket clients for as long as it runs. It returns nil after a clean
// shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logging.Get(logging.CategoryServer)

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.GetReadTimeout(),
		WriteTimeout: s.cfg.GetWriteTimeout(),
	}

	unsubscribe := s.ctrl.Subscribe(func(ev session.Event) { s.relay(ev) })
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Infow("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// relay broadcasts ev unless a later event already went out. It reports
// whether ev was sent.
func (s *Server) relay(ev session.Event) bool {
	s.relayMu.Lock()
	defer s.relayMu.Unlock()
	if ev.Seq <= s.lastSeq {
		logging.Get(logging.CategoryServer).Debugw("stale event dropped", "seq", ev.Seq, "last", s.lastSeq)
		return false
	}
	payload, err := json.Marshal(wsMessage{
		Seq:     ev.Seq,
		Type:    string(ev.Type),
		Prompt:  ev.Prompt,
		Meta:    ev.Meta,
		FieldID: ev.FieldID,
	})
	if err != nil {
		return false
	}
	s.lastSeq = ev.Seq
	s.hub.Broadcast(payload)
	return true
}

type wsMessage struct {
	Seq     uint64 `json:"seq"`
	Type    string `json:"type"`
	Prompt  string `json:"prompt"`
	Meta    string `json:"meta"`
	FieldID string `json:"field_id,omitempty"`
}
