package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zazmarga/tango-api/internal/mail"
	"github.com/zazmarga/tango-api/internal/metrics"
	"github.com/zazmarga/tango-api/internal/milonga"
	"github.com/zazmarga/tango-api/internal/quote"
)

// MilongaCounter reports the cached number of milongas running today.
type MilongaCounter interface {
	Count(ctx context.Context) int
	Snapshot() milonga.Status
}

// Options carries the HTTP-facing settings.
type Options struct {
	APIKey         string
	AllowUnsetKey  bool
	AllowedOrigins []string
	RequestTimeout time.Duration
	ImagesDir      string
	IndexFile      string
}

// Server wires HTTP handlers to the milonga counter, quotes and mail relay.
type Server struct {
	router   chi.Router
	milongas MilongaCounter
	quotes   *quote.Service
	mailer   mail.Sender
	logger   *zap.Logger
	opts     Options
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	milongas MilongaCounter,
	quotes *quote.Service,
	mailer mail.Sender,
	opts Options,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		milongas: milongas,
		quotes:   quotes,
		mailer:   mailer,
		logger:   logger,
		opts:     opts,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger.Named("http")))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware(opts.AllowedOrigins))
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/milongas", s.getMilongas)
		r.Get("/milongas/status", s.getMilongasStatus)
		r.Get("/random_quote", s.getRandomQuote)
		r.Get("/quotes/{id}", s.getQuote)
		r.Post("/send-message", s.sendMessage)

		r.Group(func(r chi.Router) {
			r.Use(requireAPIKey(opts.APIKey, opts.AllowUnsetKey))
			r.Post("/add-quote", s.addQuote)
			r.Put("/update-quote/{id}", s.updateQuote)
		})
	})

	s.mountStatic(r)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
