// Package category holds the category list and guards category creation
// against duplicates.
package category

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// DefaultCacheTTL bounds how long a fetched category list is reused.
const DefaultCacheTTL = 5 * time.Minute

type Transport interface {
	ListCategories(ctx context.Context, kind core.TransactionType) ([]core.Category, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
	UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type Option func(*Store)

// WithCache replaces the default list cache.
func WithCache(c cache.Cache[[]core.Category]) Option {
	return func(s *Store) { s.cache = c }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type Store struct {
	transport Transport
	cache     cache.Cache[[]core.Category]
	logger    *log.Logger

	mu         sync.Mutex
	categories []core.Category
	current    *core.Category
	loaded     bool
	busy       int
}

func New(transport Transport, opts ...Option) *Store {
	s := &Store{
		transport: transport,
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewLRUCache[[]core.Category](8, DefaultCacheTTL)
	}
	s.logger = s.logger.WithComponent(log.ComponentCategory)
	return s
}

// Fetch loads the categories of one type, or all of them when kind is empty.
// A cached list younger than the cache TTL is reused. On failure the cache is
// emptied and the loaded list is kept.
func (s *Store) Fetch(ctx context.Context, kind core.TransactionType) error {
	key := cacheKey(kind)
	if cached, ok := s.cache.Get(key); ok {
		s.setList(cached, kind)
		return nil
	}

	s.begin()
	defer s.end()

	list, err := s.transport.ListCategories(ctx, kind)
	if err != nil {
		s.cache.Purge()
		return fmt.Errorf("list categories: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(key, append([]core.Category(nil), list...))
	s.setList(list, kind)
	s.logger.DebugContext(ctx, "Categories loaded", log.FieldTotal, len(list), "type", string(kind))
	return nil
}

// Refresh drops the cache and fetches again.
func (s *Store) Refresh(ctx context.Context, kind core.TransactionType) error {
	s.cache.Purge()
	return s.Fetch(ctx, kind)
}

func (s *Store) Get(ctx context.Context, id string) (core.Category, error) {
	c, err := s.transport.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	s.current = &c
	s.mu.Unlock()
	return c, nil
}

// Create rejects a name already used by a category of the same type. The
// check runs against the loaded list, which is fetched first if it never was.
// Another client can still create the same name concurrently; the backend
// constraint catches that.
func (s *Store) Create(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	if !s.isLoaded() {
		if err := s.Fetch(ctx, ""); err != nil {
			return core.Category{}, err
		}
	}
	if IsDuplicate(in, s.Categories()) {
		return core.Category{}, duplicateError(in.Type)
	}

	s.begin()
	defer s.end()

	created, err := s.transport.CreateCategory(ctx, in)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	s.categories = append(s.categories, created)
	s.mu.Unlock()
	s.cache.Purge()
	s.logger.InfoContext(ctx, "Category created", log.FieldCategoryID, created.ID, "type", string(created.Type))
	return created, nil
}

// Update renames or restyles a category. Its type cannot change.
func (s *Store) Update(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	existing, ok := s.find(id)
	if !ok {
		var err error
		if existing, err = s.transport.GetCategory(ctx, id); err != nil {
			return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
		}
	}
	if existing.Type != "" && existing.Type != in.Type {
		return core.Category{}, core.Invalid("type", core.ErrImmutableType, "Category type cannot be changed")
	}
	if findDuplicate(in, s.Categories(), id) {
		return core.Category{}, duplicateError(in.Type)
	}

	s.begin()
	defer s.end()

	updated, err := s.transport.UpdateCategory(ctx, id, in)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i] = updated
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = &updated
	}
	s.mu.Unlock()
	s.cache.Purge()
	return updated, nil
}

// Delete removes a custom category. Default categories are refused locally.
func (s *Store) Delete(ctx context.Context, id string) error {
	if c, ok := s.find(id); ok && c.IsDefault {
		return core.Invalid("id", core.ErrDefaultCategory, "Cannot delete default categories")
	}

	s.begin()
	defer s.end()

	if err := s.transport.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	out := s.categories[:0:0]
	for _, c := range s.categories {
		if c.ID != id {
			out = append(out, c)
		}
	}
	s.categories = out
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	s.cache.Purge()
	return nil
}

// Categories returns a copy of the loaded list.
func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

func (s *Store) Income() []core.Category {
	return s.filter(func(c core.Category) bool { return c.Type == core.Income })
}

func (s *Store) Expense() []core.Category {
	return s.filter(func(c core.Category) bool { return c.Type == core.Expense })
}

// Custom lists the user's own categories.
func (s *Store) Custom() []core.Category {
	return s.filter(func(c core.Category) bool { return !c.IsDefault })
}

func (s *Store) Defaults() []core.Category {
	return s.filter(func(c core.Category) bool { return c.IsDefault })
}

func (s *Store) Current() (core.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.Category{}, false
	}
	return *s.current, true
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
}

func (s *Store) filter(keep func(core.Category) bool) []core.Category {
	var out []core.Category
	for _, c := range s.Categories() {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) find(id string) (core.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// setList stores a fetched list. Only an unfiltered list is complete enough
// for the duplicate guard.
func (s *Store) setList(list []core.Category, kind core.TransactionType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]core.Category(nil), list...)
	s.loaded = kind == ""
}

func (s *Store) isLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Store) begin() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.busy--
	s.mu.Unlock()
}

func cacheKey(kind core.TransactionType) string {
	if kind == "" {
		return "categories"
	}
	return "categories?type=" + string(kind)
}
