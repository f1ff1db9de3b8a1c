// Package api exposes summaries, personas and metrics over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/dataset"
	"github.com/KaramelBytes/mindscope/internal/logger"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

// MaxUploadSize bounds dataset uploads.
const MaxUploadSize = 50 << 20

// Options configures a Handler.
type Options struct {
	Runtime        ai.Runtime
	Generation     ai.GenerationConfig
	Summarizer     summarizer.Config
	SampleCount    int
	Load           dataset.Options
	PersonasDir    string
	AllowedOrigins []string
}

type Handler struct {
	opts Options
}

func NewHandler(opts Options) *Handler {
	if opts.SampleCount <= 0 {
		opts.SampleCount = summarizer.DefaultOptions().Samples
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	return &Handler{opts: opts}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Post("/api/summaries", h.CreateSummary)
	r.Get("/api/personas", h.ListPersonas)
	r.Get("/api/personas/{name}", h.GetPersona)
	r.Post("/api/metrics", h.GenerateMetrics)
	r.Post("/api/metrics/refine", h.RefineMetric)
}

// Router builds the chi router with middleware and CORS.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	h.RegisterRoutes(r)
	return r
}

// requestID tags each request with an X-Request-Id, keeping one sent by the
// client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.InfoWithFields("http request", logger.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": w.Header().Get("X-Request-Id"),
			"remote":     r.RemoteAddr,
		})
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Log.Infof("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
