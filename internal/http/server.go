// Package http serves the REST API and the embedded web UI.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pache/internal/cache"
	"pache/internal/core"
	"pache/internal/service"
	appweb "pache/web"
)

type Server struct {
	http.Server
	svc         *service.PacheService
	templates   *template.Template
	rateLimiter *rateLimiter

	// Balances are recomputed on every read otherwise; a short TTL keeps
	// repeated polling cheap while mutations invalidate eagerly.
	balancesCache *cache.LRU[[]core.CalculatedBalance]

	cancelCleanup context.CancelFunc
	shutdownOnce  sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *service.PacheService) *Server {
	mux := http.NewServeMux()

	cleanupCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:           svc,
		rateLimiter:   newRateLimiter(60),
		balancesCache: cache.NewLRU[[]core.CalculatedBalance](100, 5*time.Minute),
		cancelCleanup: cancel,
	}
	go s.balancesCache.Janitor(cleanupCtx, 10*time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/paches", s.withMiddleware(s.handleListPaches))
	mux.HandleFunc("POST /api/paches", s.withMiddleware(s.handleCreatePache))
	mux.HandleFunc("GET /api/paches/{id}", s.withMiddleware(s.handleGetPache))
	mux.HandleFunc("PUT /api/paches/{id}", s.withMiddleware(s.handleUpdatePache))
	mux.HandleFunc("DELETE /api/paches/{id}", s.withMiddleware(s.handleDeletePache))

	mux.HandleFunc("POST /api/paches/{id}/members", s.withMiddleware(s.handleAddMember))
	mux.HandleFunc("DELETE /api/paches/{id}/members/{memberId}", s.withMiddleware(s.handleDeleteMember))
	mux.HandleFunc("POST /api/paches/{id}/expenses", s.withMiddleware(s.handleAddExpense))
	mux.HandleFunc("DELETE /api/paches/{id}/expenses/{expenseId}", s.withMiddleware(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/paches/{id}/payments", s.withMiddleware(s.handleRecordPayment))
	mux.HandleFunc("DELETE /api/paches/{id}/payments/{paymentId}", s.withMiddleware(s.handleDeletePayment))
	mux.HandleFunc("GET /api/paches/{id}/balances", s.withMiddleware(s.handleBalances))

	return s
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cancelCleanup()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
