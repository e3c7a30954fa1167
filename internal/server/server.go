// Package server exposes the calculator and the offset wizard over an HTTP
// JSON API.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/payment"
	"github.com/rshade/tripcarbon/internal/store"
	"github.com/rshade/tripcarbon/internal/wizard"
)

const maxBodyBytes = 64 << 10

// sessionLockStripes is the number of session mutexes. Sessions hashing to
// the same stripe wait for each other.
const sessionLockStripes = 256

// Options configures a Server. Zero values take the documented defaults.
type Options struct {
	// Calculator defaults to the default policy.
	Calculator *carbon.Calculator
	// Store defaults to an in-memory store.
	Store  store.Store
	Logger zerolog.Logger

	// PixKey defaults to payment.DefaultPixKey.
	PixKey string
	// SuccessReset defaults to wizard.DefaultSuccessResetAfter.
	SuccessReset time.Duration

	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
	// TrustProxy makes the limiter key clients by forwarding headers
	// instead of the connection address.
	TrustProxy bool

	AllowedOrigins []string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server serves the HTTP API.
type Server struct {
	calc         *carbon.Calculator
	store        store.Store
	logger       zerolog.Logger
	pixKey       string
	successReset time.Duration
	now          func() time.Time
	limiter      *RateLimiter
	handler      http.Handler

	// locks serializes operations on the same session. The table has a
	// fixed size, so made-up IDs in URLs cannot grow it.
	locks [sessionLockStripes]sync.Mutex
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		calc:         opts.Calculator,
		store:        opts.Store,
		logger:       opts.Logger.With().Str("component", "http").Logger(),
		pixKey:       opts.PixKey,
		successReset: opts.SuccessReset,
		now:          opts.Now,
	}
	if s.calc == nil {
		s.calc = carbon.NewCalculator(carbon.DefaultPolicy())
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.pixKey == "" {
		s.pixKey = payment.DefaultPixKey
	}
	if s.successReset <= 0 {
		s.successReset = wizard.DefaultSuccessResetAfter
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = requestSizeLimiter(maxBodyBytes)(h)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = NewRateLimiter(rate.Limit(opts.RateLimit), burst)
		s.limiter.TrustProxy = opts.TrustProxy
		h = s.limiter.Middleware(h)
	}
	h = corsMiddleware(opts.AllowedOrigins)(h)
	h = recoveryMiddleware(s.logger)(h)
	h = loggingMiddleware(s.logger)(h)
	s.handler = h
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/calculate", s.handleCalculate)
	mux.HandleFunc("GET /api/v1/tables/states", s.handleStates)
	mux.HandleFunc("GET /api/v1/tables/states/{state}/cities", s.handleCities)
	mux.HandleFunc("GET /api/v1/tables/vehicles", s.handleVehicles)

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/login", s.sessionOp(opLogin))
	mux.HandleFunc("POST /api/v1/sessions/{id}/origin", s.sessionOp(opOrigin))
	mux.HandleFunc("POST /api/v1/sessions/{id}/transport", s.sessionOp(opTransport))
	mux.HandleFunc("POST /api/v1/sessions/{id}/distance", s.sessionOp(opDistance))
	mux.HandleFunc("POST /api/v1/sessions/{id}/calculate", s.sessionOp(opCalculate))
	mux.HandleFunc("POST /api/v1/sessions/{id}/result", s.sessionOp(opResult))
	mux.HandleFunc("POST /api/v1/sessions/{id}/payment", s.sessionOp(opPayment))
	mux.HandleFunc("POST /api/v1/sessions/{id}/payment/confirm", s.sessionOp(opConfirmPayment))
	mux.HandleFunc("POST /api/v1/sessions/{id}/back", s.sessionOp(opBack))
	mux.HandleFunc("POST /api/v1/sessions/{id}/restart", s.sessionOp(opRestart))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases background resources. The store is owned by the caller.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionLock returns the mutex guarding id.
func (s *Server) sessionLock(id string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(id)%sessionLockStripes]
}

// lockSession locks id's mutex and returns the unlock function.
func (s *Server) lockSession(id string) func() {
	mu := s.sessionLock(id)
	mu.Lock()
	return mu.Unlock
}
