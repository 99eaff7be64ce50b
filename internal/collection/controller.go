// Package collection implements the paginated, filterable list state shared by
// the debt, transaction and report-transaction stores.
//
// A Controller owns one in-memory page sequence plus its pagination metadata
// and filter set. It never notifies anyone itself; callers decide what to do
// with the errors it returns.
package collection

import (
	"context"
	"errors"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrStale is returned when a response arrives after the filters changed.
// The response is dropped.
var ErrStale = errors.New("collection: response superseded by a filter change")

type State int

const (
	Idle State = iota
	Loading
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher loads one page of items for a filter set.
type Fetcher[T any, F any] func(ctx context.Context, filters F, page, size int) (core.Page[T], error)

// Option configures a Controller.
type Option func(*options)

type options struct {
	size   int
	name   string
	logger *log.Logger
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithName labels log records with the entity kind.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type Controller[T any, F any] struct {
	fetch    Fetcher[T, F]
	defaults F
	name     string
	logger   *log.Logger

	mu         sync.Mutex
	filters    F
	items      []T
	info       core.PageInfo
	settled    State
	err        error
	fetching   int
	busy       int
	generation uint64
}

// New creates an idle controller at page 0 with the default filters.
func New[T any, F any](fetch Fetcher[T, F], defaults F, opts ...Option) *Controller[T, F] {
	o := options{size: core.DefaultPageSize, logger: log.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Controller[T, F]{
		fetch:    fetch,
		defaults: defaults,
		name:     o.name,
		logger:   o.logger.WithComponent(log.ComponentCollection),
		settled:  Idle,
		info:     core.PageInfo{Size: o.size, First: true},
	}
	c.filters = c.clone(defaults)
	return c
}

// FetchOption adjusts a single Fetch call.
type FetchOption func(*fetchRequest)

type fetchRequest struct {
	page   int
	size   int
	append bool
}

// WithPage fetches the given 0-indexed page instead of the current one.
func WithPage(page int) FetchOption {
	return func(r *fetchRequest) {
		if page >= 0 {
			r.page = page
		}
	}
}

// WithSize overrides the page size for this and later fetches.
func WithSize(size int) FetchOption {
	return func(r *fetchRequest) {
		if size > 0 {
			r.size = size
		}
	}
}

// Appending concatenates the fetched page to the loaded items.
func Appending() FetchOption {
	return func(r *fetchRequest) { r.append = true }
}

// Fetch loads a page with the current filters. On success the items are
// replaced (or appended) and the pagination metadata is overwritten from the
// response. On failure the loaded items stay as they were.
func (c *Controller[T, F]) Fetch(ctx context.Context, opts ...FetchOption) error {
	c.mu.Lock()
	req := fetchRequest{page: c.info.Page, size: c.info.Size}
	for _, opt := range opts {
		opt(&req)
	}
	filters := c.clone(c.filters)
	gen := c.generation
	c.fetching++
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Fetching page",
		log.NewFields().WithEntity(c.name, "").WithPage(req.page, req.size, req.append).ToSlice()...)

	page, err := c.fetch(ctx, filters, req.page, req.size)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching--

	if gen != c.generation {
		return ErrStale
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		c.settled = Error
		c.err = err
		c.logger.WarnContext(ctx, "Page fetch failed",
			log.NewFields().WithEntity(c.name, "").WithPage(req.page, req.size, req.append).WithError(err).ToSlice()...)
		return err
	}

	if req.append {
		c.items = append(c.items, page.Content...)
	} else {
		c.items = append(make([]T, 0, len(page.Content)), page.Content...)
	}
	info := page.Info()
	if info.Size <= 0 {
		info.Size = req.size
	}
	c.info = info
	c.settled = Loaded
	c.err = nil
	return nil
}

// LoadMore appends the next page. It does nothing when the last page is
// already loaded or another fetch is running.
func (c *Controller[T, F]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.info.Last || c.fetching > 0 {
		c.mu.Unlock()
		return nil
	}
	next := c.info.Page + 1
	if c.settled == Idle {
		next = 0
	}
	c.mu.Unlock()
	return c.Fetch(ctx, WithPage(next), Appending())
}

// SetFilters applies mutate to the current filters and rewinds to page 0.
// It does not fetch.
func (c *Controller[T, F]) SetFilters(mutate func(*F)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.filters)
	c.info.Page = 0
	c.generation++
}

// ResetFilters restores the default filters and rewinds to page 0.
func (c *Controller[T, F]) ResetFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = c.clone(c.defaults)
	c.info.Page = 0
	c.generation++
}

// Clear drops all loaded items and returns to the idle state, keeping the
// filters.
func (c *Controller[T, F]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.info = core.PageInfo{Size: c.info.Size, First: true}
	c.settled = Idle
	c.err = nil
	c.generation++
}

func (c *Controller[T, F]) Filters() F {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone(c.filters)
}

// Items returns a copy of the loaded items in server order.
func (c *Controller[T, F]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Controller[T, F]) Pagination() core.PageInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *Controller[T, F]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetching > 0 {
		return Loading
	}
	return c.settled
}

// Loading covers both page fetches and tracked mutations.
func (c *Controller[T, F]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching > 0 || c.busy > 0
}

// Err is the error of the last failed fetch, cleared by the next success.
func (c *Controller[T, F]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller[T, F]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.info.Last
}

func (c *Controller[T, F]) HasItems() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) > 0
}

// Track marks a mutation as running until the returned func is called.
func (c *Controller[T, F]) Track() (done func()) {
	c.mu.Lock()
	c.busy++
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.busy--
			c.mu.Unlock()
		})
	}
}

// Prepend inserts a freshly created item at the top without re-sorting.
func (c *Controller[T, F]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T{item}, c.items...)
	c.info.TotalElements++
}

// Replace swaps the first item matching match for item.
func (c *Controller[T, F]) Replace(match func(T) bool, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if match(c.items[i]) {
			c.items[i] = item
			return true
		}
	}
	return false
}

// Remove drops the first item matching match. TotalElements never goes
// below zero.
func (c *Controller[T, F]) Remove(match func(T) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if match(c.items[i]) {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			if c.info.TotalElements > 0 {
				c.info.TotalElements--
			}
			return true
		}
	}
	return false
}

func (c *Controller[T, F]) Find(match func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if match(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T, F]) clone(f F) F {
	if cl, ok := any(f).(interface{ Clone() F }); ok {
		return cl.Clone()
	}
	return f
}
