// Package http serves the billing projection and item endpoints as JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"faturamento/internal/core"
	applog "faturamento/internal/log"
	"faturamento/internal/middleware/ratelimit"
	"faturamento/internal/middleware/security"
	"faturamento/internal/middleware/trace"
	"faturamento/internal/projection"
	"faturamento/internal/services"
)

// DefaultBillingWait bounds how long a billing request waits for a running
// projection before answering with its progress.
const DefaultBillingWait = 7 * time.Second

// maxBillingWait caps client supplied waits.
const maxBillingWait = 30 * time.Second

// writeSlack covers the store read and encoding after the longest wait.
const writeSlack = 10 * time.Second

// BillingGrids renders billing grids.
type BillingGrids interface {
	Grid(ctx context.Context, req services.GridRequest) (projection.Grid, error)
}

// Items lists and creates financial items.
type Items interface {
	CreateItem(ctx context.Context, rec core.ItemRecord) (core.ItemRecord, error)
	ListItems(ctx context.Context, ledger core.Ledger) ([]core.ItemRecord, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig wires a Server.
type ServerConfig struct {
	Addr    string
	Billing BillingGrids
	Items   Items
	// Ready, if set, is consulted by /readyz.
	Ready  Pinger
	Logger *applog.Logger
	// BillingWait defaults to DefaultBillingWait.
	BillingWait time.Duration
	RateLimit   ratelimit.Config
	Clock       func() time.Time
}

type Server struct {
	http.Server
	billing     BillingGrids
	items       Items
	ready       Pinger
	logger      *applog.Logger
	billingWait time.Duration
	clock       func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig())
	}
	if cfg.BillingWait == 0 {
		cfg.BillingWait = DefaultBillingWait
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Server{
		billing:     cfg.Billing,
		items:       cfg.Items,
		ready:       cfg.Ready,
		logger:      cfg.Logger.WithComponent(applog.ComponentHTTP),
		billingWait: cfg.BillingWait,
		clock:       cfg.Clock,
		limiter:     ratelimit.NewLimiter(cfg.RateLimit),
		detector:    security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(cfg.Logger, s.detector.ExtractClientIP)
	s.limiter.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/billing", s.handleBilling)
	mux.HandleFunc("/api/items", s.handleItems)
	mux.HandleFunc("/", handleNotFound)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, handleRateLimited, http.MethodPost)(h)
	h = s.rejectSuspicious(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      max(cfg.BillingWait, maxBillingWait) + writeSlack,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// rejectSuspicious answers probing requests with 404 without routing them.
func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
			NotFound("not found").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops accepting requests and ends background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
