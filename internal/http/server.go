// Package http exposes the JSON API: transaction and budget CRUD, CSV
// import and the report endpoints backed by the analytics engine.
// Callers identify themselves with the X-User-ID header; every handler
// is scoped to that user.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MHMB/pennywise-finance-app/internal/analytics"
	"github.com/MHMB/pennywise-finance-app/internal/cache"
	"github.com/MHMB/pennywise-finance-app/internal/services"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
)

type Server struct {
	http.Server

	repo      *storage.SQLiteRepository
	engine    *analytics.Engine
	importSvc *services.ImportService

	importMaxBytes int64
	rateLimiter    *rateLimiter

	// Cached report payloads, keyed "<user>|<path>?<query>".
	reportCache *cache.LRUCache[[]byte]

	shutdownOnce sync.Once
}

type Options struct {
	Addr           string
	ImportMaxBytes int64
	CacheSize      int
	CacheTTL       time.Duration
}

func NewServer(opts Options, repo *storage.SQLiteRepository, engine *analytics.Engine, importSvc *services.ImportService) *Server {
	if opts.ImportMaxBytes <= 0 {
		opts.ImportMaxBytes = 10 << 20
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		repo:           repo,
		engine:         engine,
		importSvc:      importSvc,
		importMaxBytes: opts.ImportMaxBytes,
		rateLimiter:    newRateLimiter(),
		reportCache:    cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.api(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.api(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.api(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.api(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.api(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/duplicates", s.api(s.handleFindDuplicates))
	mux.HandleFunc("GET /api/transactions/categories", s.api(s.handleListCategories))
	mux.HandleFunc("POST /api/transactions/import", s.api(s.handleImportCSV))

	mux.HandleFunc("POST /api/budgets", s.api(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.api(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.api(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.api(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.api(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/status", s.api(s.handleBudgetStatus))
	mux.HandleFunc("GET /api/budgets/alerts", s.api(s.handleBudgetAlerts))
	mux.HandleFunc("GET /api/budgets/recommendations", s.api(s.handleBudgetRecommendations))
	mux.HandleFunc("GET /api/budgets/{id}/history", s.api(s.handleBudgetHistory))
	mux.HandleFunc("POST /api/budgets/optimize", s.api(s.handleOptimizeBudgets))

	mux.HandleFunc("GET /api/reports/summary", s.api(s.handleReportSummary))
	mux.HandleFunc("GET /api/reports/category", s.api(s.handleReportCategory))
	mux.HandleFunc("GET /api/reports/trends", s.api(s.handleReportTrends))
	mux.HandleFunc("GET /api/reports/budget", s.api(s.handleReportBudget))

	return s
}

// api wraps a handler with request logging, security headers, rate
// limiting on writes and the X-User-ID requirement.
func (s *Server) api(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := contextWithRequestID(r.Context(), requestID)

		user := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if user == "" {
			writeError(w, http.StatusBadRequest, "missing X-User-ID header")
			return
		}
		ctx = context.WithValue(ctx, userIDKey, user)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"user_id", user,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.DistinctCategories(r.Context(), "readiness-probe"); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops background goroutines before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateUser drops every cached report for one user after a write.
func (s *Server) invalidateUser(user string) {
	s.reportCache.DeletePrefix(user + "|")
}

// Simple per-IP rate limiter for write requests.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}
