package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"finbook/internal/core"
	applog "finbook/internal/log"
	"finbook/internal/metrics"
	"finbook/internal/middleware/ratelimit"
	"finbook/internal/middleware/security"
	"finbook/internal/middleware/trace"
	appweb "finbook/web"
)

// TransactionRecorder is the ledger surface the pages need.
type TransactionRecorder interface {
	Load(ctx context.Context) (*core.DayGroups, error)
	Append(ctx context.Context, timestamp string, kind core.Kind, amount float64, remark string) (core.Transaction, error)
	Balance(ctx context.Context) (float64, error)
}

// ExpenseRecorder is the daily expense surface the pages need.
type ExpenseRecorder interface {
	Load(ctx context.Context) (*core.ExpenseBook, error)
	Append(ctx context.Context, date string, amountSpent float64) (core.Expense, error)
	TotalSpent(ctx context.Context) (float64, error)
}

type Server struct {
	http.Server
	templates    *template.Template
	transactions TransactionRecorder
	expenses     ExpenseRecorder
	metrics      *metrics.Collector
	rateLimiter  *ratelimit.Limiter
	clientIP     *security.ClientIPResolver
	logger       *applog.Logger
	now          func() time.Time
	started      time.Time

	requestsPerMinute int
	readiness         []readinessCheck
	shutdownOnce      sync.Once
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithMetrics exposes m on /metrics and feeds it request samples.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit caps POST requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.requestsPerMinute = perMinute }
}

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, check func(ctx context.Context) error) Option {
	return func(s *Server) {
		if check != nil {
			s.readiness = append(s.readiness, readinessCheck{name: name, check: check})
		}
	}
}

// WithTrustedProxies lets the listed CIDRs set the client address through
// forwarding headers. Invalid entries are logged and skipped.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) {
		for _, cidr := range cidrs {
			if err := s.clientIP.AddTrustedProxy(cidr); err != nil {
				s.logger.Warn("Ignoring trusted proxy",
					applog.FieldError, err,
					applog.FieldOperation, applog.OpStartup)
			}
		}
	}
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, tx TransactionRecorder, ex ExpenseRecorder, logger *applog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Server{
		Server:       http.Server{Addr: addr, ReadHeaderTimeout: 10 * time.Second},
		transactions: tx,
		expenses:     ex,
		clientIP:     security.NewClientIPResolver(),
		logger:       logger.WithComponent(applog.ComponentHTTP),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()

	t, err := parseTemplates()
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpStartup)
	}
	s.templates = t

	limits := ratelimit.DefaultConfig()
	if s.requestsPerMinute > 0 {
		limits.RequestsPerMinute = s.requestsPerMinute
	}
	s.rateLimiter = ratelimit.NewLimiter(limits)

	var handler http.Handler = s.routes()
	handler = s.rateLimiter.Middleware(s.clientIP.ExtractClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.logger, s.clientIP.ExtractClientIP, routeLabel, s.metrics).Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /add_transaction", s.handleAddTransaction)
	mux.HandleFunc("GET /transactions", s.handleTransactions)
	mux.HandleFunc("GET /balance", s.handleBalance)
	mux.HandleFunc("GET /expenses", s.handleExpenses)
	mux.HandleFunc("POST /expenses", s.handleAddExpense)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"amount": core.FormatDisplay,
	}
	return template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// knownRoutes bounds the route label cardinality of request metrics.
var knownRoutes = map[string]bool{
	"/":                true,
	"/add_transaction": true,
	"/transactions":    true,
	"/balance":         true,
	"/expenses":        true,
	"/healthz":         true,
	"/readyz":          true,
	"/metrics":         true,
}

func routeLabel(r *http.Request) string {
	path := r.URL.Path
	switch {
	case knownRoutes[path]:
		return path
	case strings.HasPrefix(path, "/static/"):
		return "/static/"
	default:
		return "other"
	}
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Close stops the rate limiter and closes every connection immediately.
func (s *Server) Close() error {
	s.rateLimiter.Stop()
	return s.Server.Close()
}
