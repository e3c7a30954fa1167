package server

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rshade/tripcarbon/internal/metrics"
)

// TraceIDHeader carries the request trace ID in both directions.
const TraceIDHeader = "X-Trace-ID"

type contextKey string

const traceIDKey contextKey = "trace_id"

// TraceIDFromContext returns the trace ID set by the logging middleware.
func TraceIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int64
	headerWritten bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.headerWritten {
		rw.statusCode = code
		rw.headerWritten = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// loggingMiddleware assigns a trace ID, logs each request and records the
// HTTP metrics under the matched route pattern.
func loggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := r.Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.New().String()
			}
			w.Header().Set(TraceIDHeader, traceID)

			wrapped := newResponseWriter(w)
			req := r.WithContext(context.WithValue(r.Context(), traceIDKey, traceID))
			next.ServeHTTP(wrapped, req)

			// The mux records the matched pattern on the request it served.
			route := req.Pattern
			if route == "" {
				route = "unmatched"
			}
			duration := time.Since(start)
			metrics.RecordHTTPRequest(route, wrapped.statusCode, duration)

			event := logger.Info()
			if wrapped.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("trace_id", traceID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", wrapped.statusCode).
				Int64("bytes", wrapped.bytesWritten).
				Dur("duration", duration).
				Msg("http request")
		})
	}
}

// recoveryMiddleware turns panics, including calculator panics on invalid
// input, into 500 responses.
func recoveryMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error().
						Str("trace_id", TraceIDFromContext(r.Context())).
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Msg("panic serving request")
					writeError(w, http.StatusInternalServerError, "internal error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestSizeLimiter caps request bodies.
func requestSizeLimiter(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware answers preflight requests and sets CORS headers for the
// allowed origins.
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowed, "*")
	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (wildcard || slices.Contains(allowed, origin)) {
				h := w.Header()
				if wildcard {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+TraceIDHeader)
				h.Set("Access-Control-Expose-Headers", TraceIDHeader)
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	rate        rate.Limit
	burst       int
	maxVisitors int
	idleAfter   time.Duration
	stop        chan struct{}
	stopOnce    sync.Once

	// TrustProxy keys clients by forwarding headers. Set before use.
	TrustProxy bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing r requests per second with the
// given burst, per client. Call Stop to end the cleanup goroutine.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors:    make(map[string]*visitor),
		rate:        r,
		burst:       burst,
		maxVisitors: 10000,
		idleAfter:   3 * time.Minute,
		stop:        make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleAfter {
			delete(rl.visitors, ip)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		if len(rl.visitors) >= rl.maxVisitors {
			rl.evictOldest()
		}
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()
	return v.limiter.Allow()
}

// evictOldest drops the least recently seen client. Caller holds mu.
func (rl *RateLimiter) evictOldest() {
	var (
		oldestIP   string
		oldestTime time.Time
	)
	for ip, v := range rl.visitors {
		if oldestIP == "" || v.lastSeen.Before(oldestTime) {
			oldestIP, oldestTime = ip, v.lastSeen
		}
	}
	delete(rl.visitors, oldestIP)
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r, rl.TrustProxy)) {
			metrics.RateLimitedTotal.Inc()
			writeError(w, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the connection address. With trustProxy it prefers the
// first X-Forwarded-For address, then X-Real-IP; clients can set those
// headers freely unless a proxy overwrites them.
func clientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteIP(r)
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" && net.ParseIP(realIP) != nil {
		return realIP
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
