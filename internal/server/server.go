package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"priceScope/internal/pricing"
)

// Options wires the read-only pricing API.
type Options struct {
	Source SnapshotSource
	Rules  *pricing.Rules
	// Lookup resolves pairs for token pricing. Nil uses the snapshot's pair index.
	Lookup   pricing.PairLookup
	Metrics  *pricing.Metrics
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Server is the read-only HTTP API.
type Server struct {
	router   *mux.Router
	opts     Options
	logger   *zap.Logger
	requests *prometheus.HistogramVec
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = pricing.NewMetrics(nil)
	}

	var reg prometheus.Registerer
	if opts.Registry != nil {
		reg = opts.Registry
	}

	s := &Server{
		router: mux.NewRouter(),
		opts:   opts,
		logger: opts.Logger,
		requests: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricescope_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	if s.opts.Registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/native-price", s.nativePrice).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{address}/price", s.tokenPrice).Methods(http.MethodGet)
	api.HandleFunc("/pairs/{address}", s.pair).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.requests.WithLabelValues(route, http.StatusText(wrapper.statusCode)).Observe(elapsed.Seconds())

		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Debug("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("elapsed", elapsed),
		)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
