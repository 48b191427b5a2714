package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
	"github.com/AppleZ1995/CalendarAssistant/internal/middleware/ratelimit"
	"github.com/AppleZ1995/CalendarAssistant/internal/middleware/security"
	"github.com/AppleZ1995/CalendarAssistant/internal/middleware/trace"
)

// MomentService is the moments use-case surface the handlers depend on.
type MomentService interface {
	Create(ctx context.Context, in core.MomentInput) (core.Moment, error)
	List(ctx context.Context) ([]core.Moment, error)
	ListByDate(ctx context.Context, date string) ([]core.Moment, error)
	ListByCategory(ctx context.Context, category string) ([]core.Moment, error)
	Get(ctx context.Context, id int64) (core.Moment, bool, error)
	Update(ctx context.Context, id int64, in core.MomentInput) (core.UpdateResult, error)
	Delete(ctx context.Context, id int64) (core.DeleteResult, error)
	ListExpensesInRange(ctx context.Context, start, end string) ([]core.Moment, error)
	ExpenseSummaryByCategory(ctx context.Context) ([]core.CategorySummary, error)
	TotalExpenses(ctx context.Context) ([]core.CurrencyTotal, error)
}

// MoneyService is the money use-case surface the handlers depend on.
type MoneyService interface {
	Create(ctx context.Context, in core.MoneyInput) (core.MoneyRecord, error)
	List(ctx context.Context) ([]core.MoneyRecord, error)
	ListByType(ctx context.Context, typ string) ([]core.MoneyRecord, error)
	ListByDateRange(ctx context.Context, start, end string) ([]core.MoneyRecord, error)
	SummaryByType(ctx context.Context) ([]core.TypeSummary, error)
	Get(ctx context.Context, id int64) (core.MoneyRecord, bool, error)
	Update(ctx context.Context, id int64, in core.MoneyInput) (core.UpdateResult, error)
	Delete(ctx context.Context, id int64) (core.DeleteResult, error)
}

// Pinger reports whether a dependency is reachable. Used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values pick sensible defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Ready is checked by /readyz; nil reports ready without checks.
	Ready Pinger
}

type appMetrics struct {
	momentsCreated int64
	moneyCreated   int64
	storeFailures  int64
	uptime         time.Time
}

type Server struct {
	http.Server

	moments MomentService
	money   MoneyService
	ready   Pinger
	logger  *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, moments MomentService, money MoneyService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()

	s := &Server{
		moments:          moments,
		money:            money,
		ready:            opts.Ready,
		logger:           logger,
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:      &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/moments", s.handleCreateMoment)
	mux.HandleFunc("GET /api/moments", s.handleListMoments)
	mux.HandleFunc("GET /api/moments/date/{date}", s.handleMomentsByDate)
	mux.HandleFunc("GET /api/moments/category/{category}", s.handleMomentsByCategory)
	mux.HandleFunc("GET /api/moments/{id}", s.handleGetMoment)
	mux.HandleFunc("PUT /api/moments/{id}", s.handleUpdateMoment)
	mux.HandleFunc("DELETE /api/moments/{id}", s.handleDeleteMoment)

	mux.HandleFunc("GET /api/expenses/summary", s.handleExpenseSummary)
	mux.HandleFunc("GET /api/expenses/total", s.handleExpenseTotals)
	mux.HandleFunc("GET /api/expenses/range", s.handleExpensesInRange)

	mux.HandleFunc("GET /api/money", s.handleListMoney)
	mux.HandleFunc("GET /api/money/type/{type}", s.handleMoneyByType)
	mux.HandleFunc("GET /api/money/summary/all", s.handleMoneySummary)
	mux.HandleFunc("GET /api/money/range/{start}/{end}", s.handleMoneyInRange)
	mux.HandleFunc("POST /api/money", s.handleCreateMoney)
	mux.HandleFunc("GET /api/money/{id}", s.handleGetMoney)
	mux.HandleFunc("PUT /api/money/{id}", s.handleUpdateMoney)
	mux.HandleFunc("DELETE /api/money/{id}", s.handleDeleteMoney)

	mux.HandleFunc("GET /api/v1/courses", s.handleCourses)
}

// chain applies, outermost first: tracing, security headers, probe
// detection and rate limiting.
func (s *Server) chain(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	h := limited(next)
	h = s.securityDetector.Middleware(h)
	h = headers.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "")
}

// Shutdown stops background routines and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) countStoreFailure() {
	atomic.AddInt64(&s.appMetrics.storeFailures, 1)
}
