// Package http exposes the expense tracker as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

type Server struct {
	http.Server
	expenses  *services.ExpenseService
	analytics *services.AnalyticsService
	limiter   *rateLimiter
	loc       *time.Location
	now       func() time.Time
	ready     atomic.Bool

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithLocation sets the zone used for month queries and date-only input.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithRateLimit caps write requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.limiter = newRateLimiter(perMinute) }
}

// NewServer wires routes and middleware onto a ready-to-run http.Server.
func NewServer(addr string, expenses *services.ExpenseService, analytics *services.AnalyticsService, logger *applog.Logger, opts ...Option) *Server {
	s := &Server{
		expenses:  expenses,
		analytics: analytics,
		limiter:   newRateLimiter(defaultRateLimit),
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ready.Store(true)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(applog.RequestLogger(logger, func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.limitWrites)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/expenses/{id}", s.handleGetExpense)
		r.Put("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/analytics", s.handleAnalytics)
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleAddCategory)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go s.limiter.startCleanup()
	return s
}

// Shutdown marks the server unready, stops background work and drains
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.ready.Store(false)
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
