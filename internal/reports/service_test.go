package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/collection"
	"fintrack/internal/core"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fakeReports struct {
	mu        sync.Mutex
	calls     map[Section]int
	fail      map[Section]error
	filters   []core.ReportFilters
	breakdown []core.CategoryBreakdown
}

func newFake() *fakeReports {
	return &fakeReports{calls: map[Section]int{}, fail: map[Section]error{}}
}

func (f *fakeReports) hit(s Section, filters *core.ReportFilters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[s]++
	if filters != nil {
		f.filters = append(f.filters, *filters)
	}
	return f.fail[s]
}

func (f *fakeReports) count(s Section) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[s]
}

func (f *fakeReports) ReportSummary(ctx context.Context, filters core.ReportFilters) (core.FinancialSummary, error) {
	if err := f.hit(SectionSummary, &filters); err != nil {
		return core.FinancialSummary{}, err
	}
	return core.FinancialSummary{
		TotalIncome:      core.MustParseMoney("500"),
		TotalExpense:     core.MustParseMoney("200"),
		NetBalance:       core.MustParseMoney("300"),
		TransactionCount: 4,
	}, nil
}

func (f *fakeReports) ReportTransactions(ctx context.Context, filters core.ReportFilters, page, size int) (core.Page[core.Transaction], error) {
	f.hit("transactions", &filters)
	return core.NewPage([]core.Transaction{{ID: "t1"}}, page, size, 1), nil
}

func (f *fakeReports) ReportDebts(ctx context.Context) (core.DebtReport, error) {
	if err := f.hit(SectionDebts, nil); err != nil {
		return core.DebtReport{}, err
	}
	return core.DebtReport{OpenCount: 2}, nil
}

func (f *fakeReports) ReportCategoryBreakdown(ctx context.Context, filters core.ReportFilters) ([]core.CategoryBreakdown, error) {
	if err := f.hit(SectionBreakdown, &filters); err != nil {
		return nil, err
	}
	return f.breakdown, nil
}

func (f *fakeReports) ReportTrend(ctx context.Context, filters core.ReportFilters) ([]core.TrendPoint, error) {
	if err := f.hit(SectionTrend, &filters); err != nil {
		return nil, err
	}
	return []core.TrendPoint{{Period: "2025-03-01"}}, nil
}

func newService(f *fakeReports, opts ...Option) *Service {
	return New(f, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestService_LoadAllStoresEverySection(t *testing.T) {
	f := newFake()
	s := newService(f)

	if err := s.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	sum, ok := s.Summary()
	if !ok || !sum.NetBalance.Equal(core.MustParseMoney("300")) {
		t.Errorf("Summary = %+v, %v", sum, ok)
	}
	if len(s.Trend()) != 1 {
		t.Errorf("Trend = %v", s.Trend())
	}
	if dr, ok := s.DebtReport(); !ok || dr.OpenCount != 2 {
		t.Errorf("DebtReport = %+v, %v", dr, ok)
	}
	if s.HasError() {
		t.Error("HasError after a clean load")
	}
}

func TestService_LoadAllPartialFailure(t *testing.T) {
	tests := []struct {
		name    string
		fail    []Section
		wantMsg string
	}{
		{"one section", []Section{SectionTrend}, "1 report section failed to load"},
		{"two sections", []Section{SectionTrend, SectionBreakdown}, "2 report sections failed to load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			for _, sec := range tt.fail {
				f.fail[sec] = errors.New("boom")
			}
			s := newService(f)

			err := s.LoadAll(context.Background())
			var partial *PartialError
			if !errors.As(err, &partial) {
				t.Fatalf("err = %v, want *PartialError", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if _, ok := s.Summary(); !ok {
				t.Error("successful section was not stored")
			}
			for _, sec := range tt.fail {
				if s.Err(sec) == nil {
					t.Errorf("Err(%s) = nil", sec)
				}
			}
		})
	}
}

func TestService_LoadAllPremiumRequired(t *testing.T) {
	f := newFake()
	forbidden := fmt.Errorf("403: %w", core.ErrPremiumRequired)
	f.fail[SectionSummary] = forbidden
	f.fail[SectionTrend] = errors.New("boom")
	s := newService(f)

	err := s.LoadAll(context.Background())
	if !errors.Is(err, core.ErrPremiumRequired) {
		t.Fatalf("err = %v, want ErrPremiumRequired", err)
	}
	var partial *PartialError
	if errors.As(err, &partial) {
		t.Error("premium rejection reported as a partial failure")
	}
}

func TestService_CachesByFilterKey(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newService(f)

	for i := 0; i < 2; i++ {
		if err := s.LoadSummary(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.count(SectionSummary); got != 1 {
		t.Errorf("summary calls = %d, want 1", got)
	}

	if err := s.SetFilters(func(rf *core.ReportFilters) { rf.Type = core.Expense }); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadSummary(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.count(SectionSummary); got != 2 {
		t.Errorf("summary calls after filter change = %d, want 2", got)
	}

	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.count(SectionSummary); got != 3 {
		t.Errorf("summary calls after refresh = %d, want 3", got)
	}
}

func TestService_CacheDisabled(t *testing.T) {
	f := newFake()
	s := newService(f, WithCacheTTL(0))
	for i := 0; i < 2; i++ {
		if err := s.LoadTrend(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.count(SectionTrend); got != 2 {
		t.Errorf("trend calls = %d, want 2", got)
	}
	if s.Caches() != nil {
		t.Error("Caches should be empty when caching is off")
	}
}

func TestService_SetFiltersValidatesWindow(t *testing.T) {
	tests := []struct {
		name    string
		start   core.Date
		end     core.Date
		wantMsg string
	}{
		{"start after end", core.NewDate(2025, 3, 10), core.NewDate(2025, 3, 1), "Start date must be before end date"},
		{"too wide", core.NewDate(2024, 1, 1), core.NewDate(2025, 1, 2), "Date range cannot exceed 365 days"},
		{"exactly a year", core.NewDate(2024, 3, 15), core.NewDate(2025, 3, 15), ""},
		{"open ended", core.NewDate(2020, 1, 1), core.Date{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(newFake())
			err := s.SetFilters(func(f *core.ReportFilters) {
				f.StartDate = tt.start
				f.EndDate = tt.end
			})
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !s.Filters().StartDate.Equal(tt.start) {
					t.Error("filters not applied")
				}
				return
			}
			if err == nil || err.Error() != tt.wantMsg || !errors.Is(err, core.ErrInvalidDateRange) {
				t.Fatalf("err = %v, want %q", err, tt.wantMsg)
			}
			if s.ActiveFilterCount() != 0 {
				t.Error("rejected filters were applied")
			}
		})
	}
}

func TestService_SetDateRangeNeedsBothEnds(t *testing.T) {
	s := newService(newFake())
	err := s.SetDateRange(core.NewDate(2025, 1, 1), core.Date{})
	if !errors.Is(err, core.ErrMissingDate) || err.Error() != "Please select both start and end dates" {
		t.Fatalf("err = %v", err)
	}
}

func TestPreset_Range(t *testing.T) {
	today := core.NewDate(2025, 3, 15)
	tests := []struct {
		preset     Preset
		start, end core.Date
	}{
		{Last7Days, core.NewDate(2025, 3, 8), today},
		{Last30Days, core.NewDate(2025, 2, 13), today},
		{ThisMonth, core.NewDate(2025, 3, 1), today},
		{LastMonth, core.NewDate(2025, 2, 1), core.NewDate(2025, 2, 28)},
		{ThisYear, core.NewDate(2025, 1, 1), today},
	}
	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			start, end, ok := tt.preset.Range(today)
			if !ok {
				t.Fatal("preset not recognised")
			}
			if !start.Equal(tt.start) || !end.Equal(tt.end) {
				t.Errorf("Range = %s..%s, want %s..%s", start, end, tt.start, tt.end)
			}
		})
	}
	if _, _, ok := Preset("fortnight").Range(today); ok {
		t.Error("unknown preset accepted")
	}
}

func TestService_LastMonthAcrossYearBoundary(t *testing.T) {
	s := New(newFake(), WithClock(func() time.Time { return time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC) }))
	if err := s.ApplyDatePreset(LastMonth); err != nil {
		t.Fatal(err)
	}
	f := s.Filters()
	if !f.StartDate.Equal(core.NewDate(2024, 12, 1)) || !f.EndDate.Equal(core.NewDate(2024, 12, 31)) {
		t.Errorf("window = %s..%s", f.StartDate, f.EndDate)
	}
	if s.ActiveFilterCount() != 2 {
		t.Errorf("ActiveFilterCount = %d, want 2", s.ActiveFilterCount())
	}
}

func TestService_SetGranularity(t *testing.T) {
	s := newService(newFake())
	if err := s.SetGranularity("HOURLY"); !errors.Is(err, core.ErrInvalidGranularity) {
		t.Errorf("err = %v", err)
	}
	if err := s.SetGranularity(core.Monthly); err != nil {
		t.Fatal(err)
	}
	if s.Filters().Granularity != core.Monthly {
		t.Errorf("Granularity = %s", s.Filters().Granularity)
	}
	if s.ActiveFilterCount() != 0 {
		t.Error("granularity counted as an active filter")
	}
}

func TestService_ResetClearsFiltersAndTransactionsUseThem(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newService(f)
	if err := s.SetFilters(func(rf *core.ReportFilters) { rf.WalletIDs = []string{"w1"} }); err != nil {
		t.Fatal(err)
	}
	if err := s.Transactions().Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.filters[len(f.filters)-1].WalletIDs; len(got) != 1 || got[0] != "w1" {
		t.Errorf("transaction report filters = %v", got)
	}

	s.ResetFilters()
	if s.ActiveFilterCount() != 0 || s.Filters().Granularity != core.Daily {
		t.Errorf("Filters after reset = %+v", s.Filters())
	}
}

func TestService_ClearForgetsSections(t *testing.T) {
	s := newService(newFake())
	if err := s.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Clear()
	if _, ok := s.Summary(); ok {
		t.Error("summary survived Clear")
	}
	if len(s.Breakdown()) != 0 || len(s.Trend()) != 0 {
		t.Error("sections survived Clear")
	}
}

func TestService_CancelledLoadDoesNotStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newService(newFake())

	if err := s.LoadSummary(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, ok := s.Summary(); ok {
		t.Error("cancelled load stored a summary")
	}
	if s.Loading() {
		t.Error("Loading stuck after cancelled load")
	}
}

func TestService_FilterChangeMidLoadIsStale(t *testing.T) {
	f := newFake()
	s := newService(f, WithCacheTTL(0))
	blocking := &blockingSummary{fakeReports: f, s: s}
	s.transport = blocking

	if err := s.LoadSummary(context.Background()); !errors.Is(err, collection.ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if _, ok := s.Summary(); ok {
		t.Error("stale summary stored")
	}
}

type blockingSummary struct {
	*fakeReports
	s *Service
}

func (b *blockingSummary) ReportSummary(ctx context.Context, filters core.ReportFilters) (core.FinancialSummary, error) {
	b.s.ResetFilters()
	return b.fakeReports.ReportSummary(ctx, filters)
}

func TestTopCategories(t *testing.T) {
	var items []core.CategoryBreakdown
	for i, amount := range []string{"10", "70", "30", "50", "20", "60"} {
		items = append(items, core.CategoryBreakdown{CategoryID: fmt.Sprint(i), TotalAmount: core.MustParseMoney(amount)})
	}
	top := TopCategories(items, 5)
	if len(top) != 5 {
		t.Fatalf("len = %d", len(top))
	}
	want := []string{"70", "60", "50", "30", "20"}
	for i, w := range want {
		if !top[i].TotalAmount.Equal(core.MustParseMoney(w)) {
			t.Errorf("top[%d] = %s, want %s", i, top[i].TotalAmount, w)
		}
	}
	if !items[0].TotalAmount.Equal(core.MustParseMoney("10")) {
		t.Error("input slice was reordered")
	}
	if got := TopCategories(items[:2], 5); len(got) != 2 {
		t.Errorf("short input: len = %d", len(got))
	}
}
