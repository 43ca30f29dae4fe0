package httpapi

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/archive"
	"ghostwriter/app/internal/pipeline"
)

// PostRunner executes one research-write-publish run for the facade.
type PostRunner interface {
	CreatePost(ctx context.Context, topic, status string) (*pipeline.Result, error)
}

// PostRunnerFunc adapts a function to the PostRunner interface.
type PostRunnerFunc func(ctx context.Context, topic, status string) (*pipeline.Result, error)

// CreatePost calls the wrapped function.
func (f PostRunnerFunc) CreatePost(ctx context.Context, topic, status string) (*pipeline.Result, error) {
	return f(ctx, topic, status)
}

// Options configures the HTTP server wiring.
type Options struct {
	Runner      PostRunner
	Archive     archive.Repository
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server exposes the pipeline and the run archive as a JSON API via Huma.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	runner      PostRunner
	archive     archive.Repository
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, eris.New("post runner is required")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Ghostwriter", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:         api,
		mux:         mux,
		runner:      opts.Runner,
		archive:     opts.Archive,
		logger:      opts.Logger,
		sentry:      opts.SentryHub,
		rateLimiter: NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL),
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerCreatePostRoute()
	s.registerListRunsRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
