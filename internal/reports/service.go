// Package reports loads the analytics views: financial summary, category
// breakdown, income/expense trend, debt report and the paginated transaction
// report, all driven by one shared filter set.
package reports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/collection"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	DefaultCacheTTL  = time.Minute
	defaultCacheSize = 32
	debtReportKey    = "debts"
)

type Transport interface {
	ReportSummary(ctx context.Context, filters core.ReportFilters) (core.FinancialSummary, error)
	ReportTransactions(ctx context.Context, filters core.ReportFilters, page, size int) (core.Page[core.Transaction], error)
	ReportDebts(ctx context.Context) (core.DebtReport, error)
	ReportCategoryBreakdown(ctx context.Context, filters core.ReportFilters) ([]core.CategoryBreakdown, error)
	ReportTrend(ctx context.Context, filters core.ReportFilters) ([]core.TrendPoint, error)
}

// Section names one independently loaded part of the report page.
type Section string

const (
	SectionSummary   Section = "summary"
	SectionBreakdown Section = "category-breakdown"
	SectionTrend     Section = "trend"
	SectionDebts     Section = "debts"
)

// PartialError reports the sections that failed during LoadAll. The sections
// that succeeded are stored.
type PartialError struct {
	Failed map[Section]error
}

func (e *PartialError) Error() string {
	if len(e.Failed) == 1 {
		return "1 report section failed to load"
	}
	return fmt.Sprintf("%d report sections failed to load", len(e.Failed))
}

func (e *PartialError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPageSize(size int) Option {
	return func(s *Service) { s.pageSize = size }
}

// WithCacheTTL sets how long loaded sections are reused for an identical
// filter set. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

type Service struct {
	transport Transport
	list      *collection.Controller[core.Transaction, core.ReportFilters]
	now       func() time.Time
	logger    *log.Logger
	pageSize  int
	ttl       time.Duration

	summaries  *cache.LRUCache[core.FinancialSummary]
	breakdowns *cache.LRUCache[[]core.CategoryBreakdown]
	trends     *cache.LRUCache[[]core.TrendPoint]
	debtReport *cache.LRUCache[core.DebtReport]

	mu         sync.Mutex
	generation uint64
	summary    *core.FinancialSummary
	breakdown  []core.CategoryBreakdown
	trend      []core.TrendPoint
	debts      *core.DebtReport
	errs       map[Section]error
	loading    int
}

func New(transport Transport, opts ...Option) *Service {
	s := &Service{
		transport: transport,
		now:       time.Now,
		logger:    log.Discard(),
		pageSize:  core.DefaultPageSize,
		ttl:       DefaultCacheTTL,
		errs:      make(map[Section]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentReports)
	s.list = collection.New[core.Transaction, core.ReportFilters](transport.ReportTransactions, core.DefaultReportFilters(),
		collection.WithPageSize(s.pageSize),
		collection.WithName("report transaction"),
		collection.WithLogger(s.logger))
	if s.ttl > 0 {
		s.summaries = cache.NewLRUCache[core.FinancialSummary](defaultCacheSize, s.ttl, cache.WithClock(s.now))
		s.breakdowns = cache.NewLRUCache[[]core.CategoryBreakdown](defaultCacheSize, s.ttl, cache.WithClock(s.now))
		s.trends = cache.NewLRUCache[[]core.TrendPoint](defaultCacheSize, s.ttl, cache.WithClock(s.now))
		s.debtReport = cache.NewLRUCache[core.DebtReport](1, s.ttl, cache.WithClock(s.now))
	}
	return s
}

// Caches exposes the section caches so a cache.Manager can sweep them.
func (s *Service) Caches() []cache.Cleaner {
	if s.ttl <= 0 {
		return nil
	}
	return []cache.Cleaner{s.summaries, s.breakdowns, s.trends, s.debtReport}
}

// Transactions is the paginated transaction report.
func (s *Service) Transactions() *collection.Controller[core.Transaction, core.ReportFilters] {
	return s.list
}

func (s *Service) Filters() core.ReportFilters {
	return s.list.Filters()
}

func (s *Service) ActiveFilterCount() int {
	return s.list.Filters().ActiveCount()
}

// SetFilters merges a filter change after checking the resulting window.
// The transaction report returns to page 0.
func (s *Service) SetFilters(mutate func(*core.ReportFilters)) error {
	next := s.list.Filters()
	mutate(&next)
	if err := ValidateWindow(next.StartDate, next.EndDate); err != nil {
		return err
	}
	if next.Granularity != "" && !next.Granularity.Valid() {
		return core.Invalid("granularity", core.ErrInvalidGranularity, "Invalid granularity")
	}
	s.list.SetFilters(func(f *core.ReportFilters) { *f = next })
	s.bump()
	return nil
}

func (s *Service) ResetFilters() {
	s.list.ResetFilters()
	s.bump()
}

// SetDateRange replaces the window. Both ends are required.
func (s *Service) SetDateRange(start, end core.Date) error {
	if err := ValidateDateRange(start, end); err != nil {
		return err
	}
	return s.SetFilters(func(f *core.ReportFilters) {
		f.StartDate = start
		f.EndDate = end
	})
}

// ApplyDatePreset sets the window from a named preset relative to today.
func (s *Service) ApplyDatePreset(p Preset) error {
	start, end, ok := p.Range(core.Today(s.now()))
	if !ok {
		return core.Invalid("preset", core.ErrInvalidDateRange, fmt.Sprintf("Unknown date preset %q", p))
	}
	return s.SetDateRange(start, end)
}

func (s *Service) SetGranularity(g core.Granularity) error {
	if !g.Valid() {
		return core.Invalid("granularity", core.ErrInvalidGranularity, "Invalid granularity")
	}
	return s.SetFilters(func(f *core.ReportFilters) { f.Granularity = g })
}

// LoadAll loads summary, category breakdown, trend and debt report
// concurrently. Sections that succeed are stored even when others fail; a
// *PartialError lists the failures. A premium rejection on any section is
// returned on its own so callers can offer an upgrade.
func (s *Service) LoadAll(ctx context.Context) error {
	loads := []struct {
		section Section
		load    func(context.Context) error
	}{
		{SectionSummary, s.LoadSummary},
		{SectionBreakdown, s.LoadBreakdown},
		{SectionTrend, s.LoadTrend},
		{SectionDebts, s.LoadDebtReport},
	}

	var (
		mu     sync.Mutex
		failed = make(map[Section]error)
	)
	g := new(errgroup.Group)
	for _, l := range loads {
		l := l
		g.Go(func() error {
			if err := l.load(ctx); err != nil {
				mu.Lock()
				failed[l.section] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}
	for _, err := range failed {
		if errors.Is(err, core.ErrPremiumRequired) {
			return err
		}
	}
	for _, err := range failed {
		if errors.Is(err, context.Canceled) || errors.Is(err, collection.ErrStale) {
			return err
		}
	}
	s.logger.WarnContext(ctx, "Report sections failed", "failed", len(failed))
	return &PartialError{Failed: failed}
}

func (s *Service) LoadSummary(ctx context.Context) error {
	filters, gen := s.snapshot()
	v, err := cached(ctx, s.summaries, filters.Key(), func(ctx context.Context) (core.FinancialSummary, error) {
		return s.transport.ReportSummary(ctx, filters)
	})
	return s.commit(ctx, gen, SectionSummary, err, func() { s.summary = &v })
}

func (s *Service) LoadBreakdown(ctx context.Context) error {
	filters, gen := s.snapshot()
	v, err := cached(ctx, s.breakdowns, filters.Key(), func(ctx context.Context) ([]core.CategoryBreakdown, error) {
		return s.transport.ReportCategoryBreakdown(ctx, filters)
	})
	return s.commit(ctx, gen, SectionBreakdown, err, func() { s.breakdown = v })
}

func (s *Service) LoadTrend(ctx context.Context) error {
	filters, gen := s.snapshot()
	if filters.Granularity == "" {
		filters.Granularity = core.Daily
	}
	v, err := cached(ctx, s.trends, filters.Key(), func(ctx context.Context) ([]core.TrendPoint, error) {
		return s.transport.ReportTrend(ctx, filters)
	})
	return s.commit(ctx, gen, SectionTrend, err, func() { s.trend = v })
}

// LoadDebtReport loads the debt portfolio report. It ignores the date filters.
func (s *Service) LoadDebtReport(ctx context.Context) error {
	_, gen := s.snapshot()
	v, err := cached(ctx, s.debtReport, debtReportKey, s.transport.ReportDebts)
	return s.commit(ctx, gen, SectionDebts, err, func() { s.debts = &v })
}

// Refresh drops cached sections and loads everything again.
func (s *Service) Refresh(ctx context.Context) error {
	s.purge()
	return s.LoadAll(ctx)
}

// Clear forgets every loaded section and error. Filters are kept.
func (s *Service) Clear() {
	s.mu.Lock()
	s.generation++
	s.summary = nil
	s.breakdown = nil
	s.trend = nil
	s.debts = nil
	s.errs = make(map[Section]error)
	s.mu.Unlock()
	s.list.Clear()
}

func (s *Service) Summary() (core.FinancialSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return core.FinancialSummary{}, false
	}
	return *s.summary, true
}

func (s *Service) Breakdown() []core.CategoryBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.breakdown)
}

// TopCategories returns the n largest breakdown entries by total amount.
func (s *Service) TopCategories(n int) []core.CategoryBreakdown {
	return TopCategories(s.Breakdown(), n)
}

func (s *Service) Trend() []core.TrendPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.trend)
}

func (s *Service) DebtReport() (core.DebtReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debts == nil {
		return core.DebtReport{}, false
	}
	return *s.debts, true
}

// Err returns the last error of a section, nil when it loaded.
func (s *Service) Err(section Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[section]
}

func (s *Service) HasError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs) > 0
}

func (s *Service) Loading() bool {
	s.mu.Lock()
	busy := s.loading > 0
	s.mu.Unlock()
	return busy || s.list.Loading()
}

// TopCategories sorts a copy of the breakdown by total amount, largest
// first, and keeps at most n entries.
func TopCategories(items []core.CategoryBreakdown, n int) []core.CategoryBreakdown {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b core.CategoryBreakdown) int {
		return b.TotalAmount.Cmp(a.TotalAmount)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *Service) snapshot() (core.ReportFilters, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	return s.list.Filters(), s.generation
}

// commit stores a section result unless the filters changed or ctx was
// cancelled while it was in flight.
func (s *Service) commit(ctx context.Context, gen uint64, section Section, err error, store func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if gen != s.generation {
		return collection.ErrStale
	}
	if err != nil {
		s.errs[section] = err
		return fmt.Errorf("load %s report: %w", section, err)
	}
	delete(s.errs, section)
	store()
	return nil
}

func (s *Service) bump() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

func (s *Service) purge() {
	if s.ttl <= 0 {
		return
	}
	s.summaries.Purge()
	s.breakdowns.Purge()
	s.trends.Purge()
	s.debtReport.Purge()
}

func cached[T any](ctx context.Context, c *cache.LRUCache[T], key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
