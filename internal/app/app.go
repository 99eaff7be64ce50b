// Package app is the orchestration layer between the domain stores and
// whatever presents them. Each façade validates through its store, turns the
// outcome into exactly one notification and, on success, may navigate.
// Every operation returns the store's error unchanged so callers can keep
// their input when it fails.
package app

import (
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/category"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/reports"
	"fintrack/internal/subscription"
	"fintrack/internal/transactions"
	"fintrack/internal/ui"
	"fintrack/internal/wallet"
)

// Transport is the whole backend contract.
type Transport interface {
	ledger.Transport
	transactions.Transport
	category.Transport
	wallet.Transport
	subscription.Transport
	reports.Transport
	reports.DashboardTransport
	export.Transport
}

type Options struct {
	Notifier  ui.Notifier
	Navigator ui.Navigator
	Logger    *log.Logger
	Clock     func() time.Time
	PageSize  int
	ExportDir string
	// Sheets enables the SHEETS export format when set.
	Sheets export.SheetWriter
	// CacheTTL applies to category lists and report sections. Zero selects
	// the package defaults; negative disables report caching.
	CacheTTL time.Duration
}

// App owns one instance of every store for the lifetime of a session.
type App struct {
	Debts        *Debts
	Transactions *Transactions
	Categories   *Categories
	Wallets      *Wallets
	Subscription *Subscription
	Reports      *Reports
	Dashboard    *Dashboard
	Exports      *Exports

	caches *cache.Manager
	logger *log.Logger
}

func New(transport Transport, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultPageSize
	}
	if opts.Notifier == nil {
		opts.Notifier = ui.NewLogNotifier(opts.Logger)
	}
	if opts.Navigator == nil {
		opts.Navigator = ui.NewLogNotifier(opts.Logger)
	}
	logger := opts.Logger.WithComponent(log.ComponentApp)
	act := actions{notifier: opts.Notifier, navigator: opts.Navigator, logger: logger, now: opts.Clock}

	categoryTTL := category.DefaultCacheTTL
	reportTTL := reports.DefaultCacheTTL
	switch {
	case opts.CacheTTL > 0:
		categoryTTL, reportTTL = opts.CacheTTL, opts.CacheTTL
	case opts.CacheTTL < 0:
		reportTTL = 0
	}
	categoryCache := cache.NewLRUCache[[]core.Category](8, categoryTTL, cache.WithClock(opts.Clock))

	subs := subscription.New(transport, opts.Logger)
	reportService := reports.New(transport,
		reports.WithClock(opts.Clock),
		reports.WithLogger(opts.Logger),
		reports.WithPageSize(opts.PageSize),
		reports.WithCacheTTL(reportTTL))

	exportOpts := []export.Option{export.WithClock(opts.Clock), export.WithLogger(opts.Logger)}
	if opts.Sheets != nil {
		exportOpts = append(exportOpts, export.WithSheets(opts.Sheets))
	}

	a := &App{
		Debts: &Debts{actions: act, ledger: ledger.New(transport,
			ledger.WithClock(opts.Clock),
			ledger.WithLogger(opts.Logger),
			ledger.WithPageSize(opts.PageSize))},
		Transactions: &Transactions{actions: act, store: transactions.New(transport,
			transactions.WithClock(opts.Clock),
			transactions.WithLogger(opts.Logger),
			transactions.WithPageSize(opts.PageSize))},
		Categories: &Categories{actions: act, store: category.New(transport,
			category.WithCache(categoryCache),
			category.WithLogger(opts.Logger))},
		Wallets:      &Wallets{actions: act, store: wallet.New(transport, opts.Logger), subscription: subs},
		Subscription: &Subscription{actions: act, service: subs},
		Reports:      &Reports{actions: act, service: reportService},
		Dashboard:    &Dashboard{actions: act, dashboard: reports.NewDashboard(transport, opts.Logger)},
		Exports:      &Exports{actions: act, service: export.New(transport, subs, opts.ExportDir, exportOpts...)},

		caches: cache.NewManager(opts.Logger),
		logger: logger,
	}
	a.caches.Register(categoryCache)
	for _, c := range reportService.Caches() {
		a.caches.Register(c)
	}
	return a
}

// StartCacheCleanup sweeps expired cache entries every interval until Close.
func (a *App) StartCacheCleanup(interval time.Duration) {
	a.caches.StartCleanup(interval)
}

// SweepCaches drops expired cache entries now and reports how many went.
func (a *App) SweepCaches() int {
	return a.caches.Sweep()
}

func (a *App) Close() {
	a.caches.Stop()
	a.logger.Debug("App closed")
}
