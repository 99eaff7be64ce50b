// Package emulator serves the finance tracker REST API from local SQLite
// storage. It owns the balance rules: remaining amounts, debt status, category
// uniqueness and plan limits are decided here, never by the client.
package emulator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
)

const (
	BasePath = "/api/v1"

	// DefaultMonthlyPrice is the premium price per month in IDR.
	DefaultMonthlyPrice = 49000
	// trialDays is the length of a trial started from the emulator.
	trialDays = 14
)

// Store is the persistence the emulator needs.
type Store interface {
	Ping(ctx context.Context) error

	ListDebts(ctx context.Context, f core.DebtFilters, today core.Date, page, size int) (core.Page[core.Debt], error)
	AllDebts(ctx context.Context) ([]core.Debt, error)
	GetDebt(ctx context.Context, id string) (core.Debt, error)
	CreateDebt(ctx context.Context, in core.DebtInput) (core.Debt, error)
	UpdateDebt(ctx context.Context, id string, in core.DebtInput) (core.Debt, error)
	DeleteDebt(ctx context.Context, id string) error
	AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error)
	UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error)
	DeletePayment(ctx context.Context, debtID, paymentID string) error
	MarkPaid(ctx context.Context, id string) (core.Debt, error)

	ListTransactions(ctx context.Context, f core.TransactionFilters, page, size int) (core.Page[core.Transaction], error)
	ReportTransactions(ctx context.Context, f core.ReportFilters, page, size int) (core.Page[core.Transaction], error)
	QueryTransactions(ctx context.Context, f core.ReportFilters) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, walletID string, n int) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	ListCategories(ctx context.Context, kind core.TransactionType) ([]core.Category, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
	UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListWallets(ctx context.Context) ([]core.Wallet, error)
	GetWallet(ctx context.Context, id string) (core.Wallet, error)
	CountWallets(ctx context.Context) (int, error)
	CreateWallet(ctx context.Context, in core.WalletInput) (core.Wallet, error)
	UpdateWallet(ctx context.Context, id string, in core.WalletInput) (core.Wallet, error)
	DeleteWallet(ctx context.Context, id string) error

	GetSubscription(ctx context.Context) (core.Subscription, error)
	SetPlan(ctx context.Context, tier core.Tier, status core.SubscriptionStatus, duration time.Duration) error
	TrialUsed(ctx context.Context) (bool, error)
	CreateCheckout(ctx context.Context, key string, amount core.Money) (core.CheckoutPayment, error)
	GetCheckout(ctx context.Context, id string) (core.CheckoutPayment, error)
	ListCheckouts(ctx context.Context, page, size int) (core.Page[core.CheckoutPayment], error)
	SetCheckoutStatus(ctx context.Context, id, status string) (core.CheckoutPayment, error)
}

type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every API call. An
// empty token leaves the API open.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMonthlyPrice(p core.Money) Option {
	return func(s *Server) { s.monthlyPrice = p }
}

// WithRateLimit caps requests per client and minute. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.ratePerMinute = perMinute }
}

type Server struct {
	store         Store
	token         string
	logger        *log.Logger
	now           func() time.Time
	loc           *time.Location
	monthlyPrice  core.Money
	ratePerMinute int

	limiter  *ratelimit.Limiter
	detector *security.Detector
	router   chi.Router
	http     *http.Server
}

func New(store Store, opts ...Option) *Server {
	s := &Server{
		store:        store,
		logger:       log.Discard(),
		now:          time.Now,
		loc:          time.UTC,
		monthlyPrice: core.NewMoney(DefaultMonthlyPrice),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentEmulator)
	s.detector = security.NewDetector()
	if s.ratePerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.ratePerMinute})
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) today() core.Date {
	return core.Today(s.now().In(s.loc))
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Suspicious request rejected",
			"method", r.Method, log.FieldPath, r.URL.Path, "client_ip", s.detector.ClientIP(r))
		s.writeMessage(w, r, http.StatusBadRequest, "Bad request")
	}))
	if s.limiter != nil {
		r.Use(s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.writeMessage(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route(BasePath, func(r chi.Router) {
		r.Use(s.auth)

		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.listDebts)
			r.Post("/", s.createDebt)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getDebt)
				r.Put("/", s.updateDebt)
				r.Delete("/", s.deleteDebt)
				r.Post("/payments", s.addPayment)
				r.Put("/payments/{paymentID}", s.updatePayment)
				r.Delete("/payments/{paymentID}", s.deletePayment)
				r.Post("/mark-paid", s.markPaid)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.listTransactions)
			r.Post("/", s.createTransaction)
			r.Get("/{id}", s.getTransaction)
			r.Put("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.createCategory)
			r.Get("/{id}", s.getCategory)
			r.Put("/{id}", s.updateCategory)
			r.Delete("/{id}", s.deleteCategory)
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", s.listWallets)
			r.Post("/", s.createWallet)
			r.Get("/{id}", s.getWallet)
			r.Put("/{id}", s.updateWallet)
			r.Delete("/{id}", s.deleteWallet)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/me", s.getSubscription)
			r.Post("/upgrade", s.upgradeInfo)
			r.Get("/trial-eligibility", s.trialEligibility)
			r.Post("/trial", s.startTrial)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", s.listPayments)
			r.Post("/subscription", s.createSubscriptionPayment)
			r.Get("/{id}", s.getPayment)
			r.Post("/{id}/cancel", s.cancelPayment)
			r.Post("/{id}/settle", s.settlePayment)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(s.requirePremium("Reports are available for Premium users only"))
			r.Get("/summary", s.reportSummary)
			r.Get("/transactions", s.reportTransactions)
			r.Get("/debts", s.reportDebts)
			r.Get("/category-breakdown", s.reportCategoryBreakdown)
			r.Get("/trend", s.reportTrend)
		})

		r.Get("/dashboard/summary", s.dashboardSummary)
		r.Post("/export/{type}", s.export)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeMessage(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeMessage(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Storage not ready", log.FieldError, err)
		s.writeMessage(w, r, http.StatusServiceUnavailable, "Storage not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("Emulator listening", "addr", addr, "base_path", BasePath, "auth", s.token != "")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
