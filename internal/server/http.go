package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/config"
	"github.com/flashgen/question-service/internal/feedback"
	"github.com/flashgen/question-service/internal/generation"
	"github.com/flashgen/question-service/internal/logging"
)

// Check reports whether a backing dependency is reachable.
type Check func(ctx context.Context) error

// Routes carries the domain handlers. Admin guards pool management; nil
// leaves those routes open, which only tests should do.
type Routes struct {
	Questions *generation.HTTPHandlers
	Feedback  *feedback.HTTPHandlers
	Admin     func(http.Handler) http.Handler
}

// NewHTTPServer wires base and domain routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, checks map[string]Check, routes Routes) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(logger, checks, routes),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewHandler(logger zerolog.Logger, checks map[string]Check, routes Routes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				log.Error().Err(err).Str("dependency", name).Msg("dependency ping failed")
				http.Error(w, "upstream error", http.StatusBadGateway)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if q := routes.Questions; q != nil {
		admin := routes.Admin
		if admin == nil {
			admin = func(next http.Handler) http.Handler { return next }
		}
		mux.HandleFunc("POST /v1/questions", q.Create)
		mux.HandleFunc("GET /v1/questions/{id}", q.Get)
		mux.HandleFunc("POST /v1/questions/{id}/answers", q.Answer)
		mux.Handle("POST /v1/questions/cache", admin(http.HandlerFunc(q.FillPool)))
		mux.HandleFunc("GET /v1/questions/cache/size", q.PoolSize)
	}

	if f := routes.Feedback; f != nil {
		mux.HandleFunc("POST /v1/feedback", f.Submit)
		mux.HandleFunc("GET /v1/feedback/{id}", f.Get)
		mux.HandleFunc("GET /ws/feedback", f.Stream)
	}

	return withLogger(mux, logger)
}

// withLogger puts a request-scoped logger into the context and logs each
// request once it completes.
func withLogger(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))

		reqLogger.Debug().Int("status", rec.status).Dur("took", time.Since(start)).Msg("request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack is needed for the WebSocket upgrade on /ws/feedback.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
