// Package http exposes the ingestion and insight endpoints.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"raseed/internal/cache"
	"raseed/internal/insights"
	applog "raseed/internal/log"
	"raseed/internal/services"
)

type Server struct {
	http.Server
	ingest      *services.ReceiptService
	composer    *insights.Composer
	rateLimiter *rateLimiter

	// Composed insight payloads, keyed uid|YYYY-MM. Ingestion drops every
	// entry for the affected user.
	insightCache *cache.LRUCache[*insights.Report]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and caching, returning a ready-to-run server.
func NewServer(addr string, ingest *services.ReceiptService, composer *insights.Composer, cacheSize int, cacheTTL time.Duration, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		ingest:           ingest,
		composer:         composer,
		rateLimiter:      newRateLimiter(),
		insightCache:     cache.NewLRUCache[*insights.Report](cacheSize, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/receipts", s.withProtection(s.handleIngestReceipt))
	mux.HandleFunc("/api/insights", s.withProtection(s.handleInsights))
	mux.HandleFunc("/api/insights/monthly", s.withProtection(s.handleMonthly))
	mux.HandleFunc("/api/insights/trends", s.withProtection(s.handleTrends))
	mux.HandleFunc("/api/insights/recurring", s.withProtection(s.handleRecurring))
	mux.HandleFunc("/api/insights/anomalies", s.withProtection(s.handleAnomalies))
	mux.HandleFunc("/api/insights/time-slots", s.withProtection(s.handleTimeSlots))

	return s
}

// withProtection adds security headers and rate limits write requests.
func (s *Server) withProtection(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.insightCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines along with the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func insightCacheKey(uid string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", uid, year, month)
}
