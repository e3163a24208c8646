// Package httpapi exposes the pillbox countdown over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

// NewRouter wires health, metrics, and the pillbox API. trustProxy makes the
// preview limiter key on forwarding headers instead of the peer address.
func NewRouter(log *zap.Logger, repo store.Repo, now func() time.Time, trustProxy bool) http.Handler {
	if now == nil {
		now = time.Now
	}
	h := &Handler{Repo: repo, Log: log, Now: now}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(recoverer(log))
	r.Use(requestLog(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/chats/{chatID}/countdown", h.Countdown)
		r.With(PreviewRateLimiter(trustProxy).Middleware, maxBytes).Post("/preview", h.Preview)
	})
	return r
}

// NewServer wraps the router in an http.Server with the bot's short timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      3 * time.Second,
	}
}
