// Package http exposes the budget persistence API: load and save of one
// document per identity, server-side export and a read-only analysis view.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/cache"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/middleware/ratelimit"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/middleware/security"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/middleware/trace"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

const (
	defaultIdentityHeader = "X-Budget-Identity"
	recordCacheSize       = 256
	recordCacheTTL        = time.Minute
	cacheSweepInterval    = 5 * time.Minute
)

// Publisher announces saved budget versions. *amqp.Client implements it.
type Publisher interface {
	PublishBudgetSaved(ctx context.Context, identity string, updatedAt time.Time) error
}

// Options configures a Server. Repository is required.
type Options struct {
	Addr               string
	Repository         storage.BudgetRepository
	Publisher          Publisher
	Evaluator          *advice.Evaluator
	IdentityHeader     string
	APIToken           string
	RateLimitPerMinute int
	Logger             *log.Logger
	Now                func() time.Time
}

type Server struct {
	http.Server
	repo           storage.BudgetRepository
	publisher      Publisher
	evaluator      *advice.Evaluator
	identityHeader string
	apiToken       string

	// Latest record per identity, invalidated on every save.
	records      *cache.LRUCache[storage.BudgetRecord]
	cacheManager *cache.Manager

	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	logger     *log.Logger
	structured *log.StructuredLogger

	started      time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and starts the background cache
// sweep. Call Shutdown to stop it.
func NewServer(opts Options) *Server {
	logger := log.OrDiscard(opts.Logger).WithComponent(log.ComponentHTTP)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = advice.NewEvaluator(advice.DefaultRules(), nil)
	}
	header := opts.IdentityHeader
	if header == "" {
		header = defaultIdentityHeader
	}

	s := &Server{
		repo:           opts.Repository,
		publisher:      opts.Publisher,
		evaluator:      evaluator,
		identityHeader: header,
		apiToken:       opts.APIToken,
		records:        cache.NewLRUCache[storage.BudgetRecord](recordCacheSize, recordCacheTTL),
		cacheManager:   cache.NewManager(logger.WithComponent(log.ComponentCache).Logger),
		detector:       security.NewDetector(logger),
		logger:         logger,
		structured:     log.NewStructuredLogger(logger),
		started:        now(),
		now:            now,
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Methods:           []string{http.MethodPost},
	})
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	s.cacheManager.Register(s.records)
	if evaluator.Memo != nil {
		s.cacheManager.Register(evaluator.Memo.Cache())
	}
	s.cacheManager.StartCleanup(cacheSweepInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("GET /budget", s.requireIdentity(s.handleGetBudget))
	mux.Handle("POST /budget", s.requireIdentity(s.handleSaveBudget))
	mux.Handle("POST /budget/export", s.requireIdentity(s.handleExport))
	mux.Handle("GET /budget/analysis", s.requireIdentity(s.handleAnalysis))

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Addr = opts.Addr
	s.Handler = h
	s.ReadHeaderTimeout = 10 * time.Second
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, msgRateLimited)
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
