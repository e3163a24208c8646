package httpapi

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture status and size.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// routePattern returns the matched chi pattern so metrics are not keyed by chat id.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// requestLog logs each request and counts it in the request metric.
// Use after RequestID middleware so the ID is available.
func requestLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrap := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)

			route := routePattern(r)
			if route != "/metrics" {
				metrics.RecordRequest(r.Method, route, wrap.status)
			}
			log.Debug("request",
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrap.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int("size", wrap.size),
			)
		})
	}
}

// recoverer turns a handler panic into a logged 500 JSON response.
func recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						zap.String("request_id", chimw.GetReqID(r.Context())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()),
					)
					JSONError(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// maxBodyBytes caps request bodies for routes that accept JSON.
const maxBodyBytes = 64 << 10

func maxBytes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// IPRateLimiter limits requests per client IP using a token bucket per IP.
// Buckets idle for longer than idleTTL are dropped.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time

	// TrustProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
	// Only set it when a proxy you run overwrites those headers.
	TrustProxy bool
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a per-IP rate limiter. limit is events per second;
// burst is max tokens per bucket.
func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweepLocked(now)
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

func (l *IPRateLimiter) sweepLocked(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// size reports how many buckets are tracked.
func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// clientIP returns the host part of RemoteAddr. Behind a trusted proxy it
// prefers the last X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware answers 429 once the client IP exceeds its rate.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r, l.TrustProxy)) {
			JSONError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PreviewRateLimiter allows 60 previews per minute per IP, burst 10.
func PreviewRateLimiter(trustProxy bool) *IPRateLimiter {
	l := NewIPRateLimiter(rate.Limit(60.0/60.0), 10)
	l.TrustProxy = trustProxy
	return l
}
