// Package transactions is the paginated transaction list with its create,
// update and delete operations.
package transactions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/collection"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type Transport interface {
	ListTransactions(ctx context.Context, filters core.TransactionFilters, page, size int) (core.Page[core.Transaction], error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPageSize(size int) Option {
	return func(s *Store) { s.pageSize = size }
}

type Store struct {
	transport Transport
	list      *collection.Controller[core.Transaction, core.TransactionFilters]
	now       func() time.Time
	logger    *log.Logger
	pageSize  int

	mu      sync.Mutex
	current *core.Transaction
}

func New(transport Transport, opts ...Option) *Store {
	s := &Store{
		transport: transport,
		now:       time.Now,
		logger:    log.Discard(),
		pageSize:  core.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentTransactions)
	s.list = collection.New[core.Transaction, core.TransactionFilters](transport.ListTransactions, core.TransactionFilters{},
		collection.WithPageSize(s.pageSize),
		collection.WithName("transaction"),
		collection.WithLogger(s.logger))
	return s
}

func (s *Store) Collection() *collection.Controller[core.Transaction, core.TransactionFilters] {
	return s.list
}

func (s *Store) Fetch(ctx context.Context, opts ...collection.FetchOption) error {
	return s.list.Fetch(ctx, opts...)
}

func (s *Store) LoadMore(ctx context.Context) error {
	return s.list.LoadMore(ctx)
}

func (s *Store) SetFilters(mutate func(*core.TransactionFilters)) {
	s.list.SetFilters(mutate)
}

func (s *Store) ResetFilters() {
	s.list.ResetFilters()
}

func (s *Store) Transactions() []core.Transaction {
	return s.list.Items()
}

func (s *Store) Current() (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.Transaction{}, false
	}
	return *s.current, true
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.transport.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	s.current = &tx
	s.mu.Unlock()
	return tx, nil
}

// Create validates and records a transaction, then prepends it to the list.
// Wallet balances are updated by the backend.
func (s *Store) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(s.now()); err != nil {
		return core.Transaction{}, err
	}
	done := s.list.Track()
	defer done()

	tx, err := s.transport.CreateTransaction(ctx, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	s.list.Prepend(tx)
	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, tx.ID, log.FieldAmount, tx.Amount.String(), "type", string(tx.Type))
	return tx, nil
}

// Update validates the input. The type of a known transaction cannot change.
func (s *Store) Update(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(s.now()); err != nil {
		return core.Transaction{}, err
	}
	if known, ok := s.lookup(id); ok && known.Type != in.Type {
		return core.Transaction{}, core.Invalid("type", core.ErrImmutableType, "Transaction type cannot be changed")
	}

	done := s.list.Track()
	defer done()

	tx, err := s.transport.UpdateTransaction(ctx, id, in)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	s.list.Replace(byID(id), tx)
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = &tx
	}
	s.mu.Unlock()
	return tx, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	done := s.list.Track()
	defer done()

	if err := s.transport.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.list.Remove(byID(id))
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	return nil
}

// IncomeTotal sums the loaded income transactions.
func (s *Store) IncomeTotal() core.Money {
	return total(s.list.Items(), core.Income)
}

// ExpenseTotal sums the loaded expense transactions.
func (s *Store) ExpenseTotal() core.Money {
	return total(s.list.Items(), core.Expense)
}

// Net is income minus expense over the loaded transactions.
func (s *Store) Net() core.Money {
	return core.SumOf(s.list.Items(), core.Transaction.Signed)
}

func (s *Store) lookup(id string) (core.Transaction, bool) {
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		tx := *s.current
		s.mu.Unlock()
		return tx, true
	}
	s.mu.Unlock()
	return s.list.Find(byID(id))
}

func total(items []core.Transaction, kind core.TransactionType) core.Money {
	return core.SumOf(items, func(t core.Transaction) core.Money {
		if t.Type != kind {
			return core.Zero()
		}
		return t.Amount
	})
}

func byID(id string) func(core.Transaction) bool {
	return func(t core.Transaction) bool { return t.ID == id }
}
