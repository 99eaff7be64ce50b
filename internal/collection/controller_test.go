package collection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fintrack/internal/core"
)

type testFilters struct {
	Type   string
	Status string
}

type fetchCall struct {
	filters testFilters
	page    int
	size    int
}

// fakeSource serves a fixed list of items split into pages.
type fakeSource struct {
	mu    sync.Mutex
	items []string
	err   error
	calls []fetchCall
	hook  func()
}

func (s *fakeSource) fetch(ctx context.Context, f testFilters, page, size int) (core.Page[string], error) {
	s.mu.Lock()
	s.calls = append(s.calls, fetchCall{filters: f, page: page, size: size})
	err, hook := s.err, s.hook
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return core.Page[string]{}, err
	}
	start := page * size
	if start > len(s.items) {
		start = len(s.items)
	}
	end := start + size
	if end > len(s.items) {
		end = len(s.items)
	}
	return core.NewPage(s.items[start:end], page, size, int64(len(s.items))), nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestController(src *fakeSource, size int) *Controller[string, testFilters] {
	return New(src.fetch, testFilters{Status: "OPEN"}, WithPageSize(size), WithName("debts"))
}

func TestController_InitialState(t *testing.T) {
	c := newTestController(&fakeSource{}, 0)

	if c.State() != Idle {
		t.Errorf("State = %v, want idle", c.State())
	}
	info := c.Pagination()
	if info.Page != 0 || info.Size != core.DefaultPageSize {
		t.Errorf("Pagination = %+v, want page 0 size %d", info, core.DefaultPageSize)
	}
	if c.HasItems() {
		t.Error("HasItems = true on a fresh controller")
	}
}

func TestController_FetchReplacesItems(t *testing.T) {
	src := &fakeSource{items: []string{"a", "b", "c", "d", "e"}}
	c := newTestController(src, 2)

	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := c.Items(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Items = %v", got)
	}

	if err := c.Fetch(context.Background(), WithPage(1)); err != nil {
		t.Fatalf("Fetch page 1: %v", err)
	}
	if got := c.Items(); len(got) != 2 || got[0] != "c" {
		t.Errorf("Items = %v, want page 1 replacing page 0", got)
	}
	info := c.Pagination()
	if info.Page != 1 || info.TotalElements != 5 || info.TotalPages != 3 || info.Last {
		t.Errorf("Pagination = %+v", info)
	}
	if c.State() != Loaded {
		t.Errorf("State = %v, want loaded", c.State())
	}
}

func TestController_LoadMoreAppends(t *testing.T) {
	src := &fakeSource{items: []string{"a", "b", "c"}}
	c := newTestController(src, 2)
	ctx := context.Background()

	if err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}

	if got := c.Items(); len(got) != 3 || got[2] != "c" {
		t.Errorf("Items = %v", got)
	}
	if !c.Pagination().Last || c.HasMore() {
		t.Error("expected last page after loading everything")
	}
}

func TestController_LoadMoreOnLastPageIsNoop(t *testing.T) {
	src := &fakeSource{items: []string{"a"}}
	c := newTestController(src, 20)
	ctx := context.Background()

	if err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	before := c.Pagination()
	calls := src.callCount()

	if err := c.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	if src.callCount() != calls {
		t.Errorf("LoadMore issued %d extra calls", src.callCount()-calls)
	}
	if c.Pagination() != before {
		t.Errorf("pagination changed: %+v -> %+v", before, c.Pagination())
	}
	if len(c.Items()) != 1 {
		t.Errorf("Items = %v", c.Items())
	}
}

func TestController_AppendDoesNotDeduplicate(t *testing.T) {
	src := &fakeSource{items: []string{"a", "b"}}
	c := newTestController(src, 2)
	ctx := context.Background()

	if err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Fetch(ctx, WithPage(0), Appending()); err != nil {
		t.Fatal(err)
	}
	if got := c.Items(); len(got) != 4 {
		t.Errorf("Items = %v, want duplicates kept", got)
	}
}

func TestController_ErrorKeepsItems(t *testing.T) {
	src := &fakeSource{items: []string{"a", "b", "c"}}
	c := newTestController(src, 2)
	ctx := context.Background()

	if err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	src.err = boom
	if err := c.LoadMore(ctx); !errors.Is(err, boom) {
		t.Fatalf("LoadMore err = %v, want boom", err)
	}

	if c.State() != Error || !errors.Is(c.Err(), boom) {
		t.Errorf("State = %v, Err = %v", c.State(), c.Err())
	}
	if got := c.Items(); len(got) != 2 {
		t.Errorf("Items = %v, want prior page intact", got)
	}
	if c.Pagination().Page != 0 {
		t.Errorf("Page = %d, want 0 after failed load more", c.Pagination().Page)
	}

	src.err = nil
	if err := c.LoadMore(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.Err() != nil || len(c.Items()) != 3 {
		t.Errorf("after retry: err=%v items=%v", c.Err(), c.Items())
	}
}

func TestController_SetFiltersResetsPage(t *testing.T) {
	tests := []struct {
		name      string
		startPage int
	}{
		{"from first page", 0},
		{"from third page", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{items: []string{"a", "b", "c", "d", "e", "f"}}
			c := newTestController(src, 2)
			if err := c.Fetch(context.Background(), WithPage(tt.startPage)); err != nil {
				t.Fatal(err)
			}
			calls := src.callCount()

			c.SetFilters(func(f *testFilters) { f.Type = "PAYABLE" })

			if c.Pagination().Page != 0 {
				t.Errorf("Page = %d, want 0", c.Pagination().Page)
			}
			if f := c.Filters(); f.Type != "PAYABLE" || f.Status != "OPEN" {
				t.Errorf("Filters = %+v, want merged", f)
			}
			if src.callCount() != calls {
				t.Error("SetFilters must not fetch")
			}
		})
	}
}

func TestController_FetchUsesCurrentFilters(t *testing.T) {
	src := &fakeSource{}
	c := newTestController(src, 5)

	c.SetFilters(func(f *testFilters) { f.Type = "RECEIVABLE" })
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := src.calls[0]; got.filters.Type != "RECEIVABLE" || got.page != 0 || got.size != 5 {
		t.Errorf("call = %+v", got)
	}
}

func TestController_ResetFiltersIdempotent(t *testing.T) {
	c := newTestController(&fakeSource{}, 2)
	c.SetFilters(func(f *testFilters) {
		f.Type = "PAYABLE"
		f.Status = "PAID"
	})

	c.ResetFilters()
	once := c.Filters()
	c.ResetFilters()
	twice := c.Filters()

	if once != twice {
		t.Errorf("ResetFilters not idempotent: %+v vs %+v", once, twice)
	}
	if once != (testFilters{Status: "OPEN"}) {
		t.Errorf("Filters = %+v, want defaults", once)
	}
}

func TestController_StaleResponseDropped(t *testing.T) {
	src := &fakeSource{items: []string{"a"}}
	c := newTestController(src, 2)
	src.hook = func() {
		c.SetFilters(func(f *testFilters) { f.Type = "PAYABLE" })
	}

	if err := c.Fetch(context.Background()); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if c.HasItems() {
		t.Error("stale response mutated items")
	}
	if c.State() != Idle {
		t.Errorf("State = %v, want idle", c.State())
	}
}

func TestController_CancelledContextDoesNotMutate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{items: []string{"a"}, hook: cancel}
	c := newTestController(src, 2)

	if err := c.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if c.HasItems() {
		t.Error("cancelled fetch mutated items")
	}
}

func TestController_LocalMutations(t *testing.T) {
	src := &fakeSource{items: []string{"a", "b"}}
	c := newTestController(src, 10)
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	is := func(v string) func(string) bool { return func(s string) bool { return s == v } }

	c.Prepend("z")
	if got := c.Items(); got[0] != "z" || c.Pagination().TotalElements != 3 {
		t.Errorf("after Prepend: %v total=%d", got, c.Pagination().TotalElements)
	}

	if !c.Replace(is("a"), "A") {
		t.Error("Replace did not find a")
	}
	if _, ok := c.Find(is("A")); !ok {
		t.Error("Find did not see replacement")
	}

	for _, v := range []string{"z", "A", "b"} {
		if !c.Remove(is(v)) {
			t.Errorf("Remove(%s) = false", v)
		}
	}
	if c.Remove(is("b")) {
		t.Error("Remove of missing item reported true")
	}
	if c.Pagination().TotalElements != 0 {
		t.Errorf("TotalElements = %d, want 0", c.Pagination().TotalElements)
	}

	c.Prepend("x")
	c.SetFilters(func(*testFilters) {})
	c.Remove(is("x"))
	c.Remove(is("x"))
	if c.Pagination().TotalElements < 0 {
		t.Error("TotalElements went negative")
	}
}

func TestController_TrackLoading(t *testing.T) {
	c := newTestController(&fakeSource{}, 2)
	done := c.Track()
	if !c.Loading() {
		t.Error("Loading = false during tracked mutation")
	}
	done()
	done()
	if c.Loading() {
		t.Error("Loading = true after done")
	}
}

func TestController_ClonesSliceFilters(t *testing.T) {
	fetch := func(ctx context.Context, f core.ReportFilters, page, size int) (core.Page[string], error) {
		return core.NewPage[string](nil, page, size, 0), nil
	}
	c := New(fetch, core.DefaultReportFilters())
	c.SetFilters(func(f *core.ReportFilters) { f.WalletIDs = []string{"w1"} })

	got := c.Filters()
	got.WalletIDs[0] = "changed"

	if c.Filters().WalletIDs[0] != "w1" {
		t.Error("Filters returned an alias of the stored slice")
	}
}
