// Package wallet keeps the user's wallets.
package wallet

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type Transport interface {
	ListWallets(ctx context.Context) ([]core.Wallet, error)
	GetWallet(ctx context.Context, id string) (core.Wallet, error)
	CreateWallet(ctx context.Context, in core.WalletInput) (core.Wallet, error)
	UpdateWallet(ctx context.Context, id string, in core.WalletInput) (core.Wallet, error)
	DeleteWallet(ctx context.Context, id string) error
}

type Store struct {
	transport Transport
	logger    *log.Logger

	mu      sync.Mutex
	wallets []core.Wallet
	current *core.Wallet
	loaded  bool
	busy    int
}

func New(transport Transport, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{transport: transport, logger: logger.WithComponent(log.ComponentWallet)}
}

func (s *Store) Fetch(ctx context.Context) error {
	s.begin()
	defer s.end()

	wallets, err := s.transport.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.wallets = wallets
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Wallet, error) {
	w, err := s.transport.GetWallet(ctx, id)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Wallet{}, err
	}
	s.mu.Lock()
	s.current = &w
	s.mu.Unlock()
	return w, nil
}

// Create validates and creates a wallet. The wallet limit of free accounts
// is checked by the caller, which knows the subscription.
func (s *Store) Create(ctx context.Context, in core.WalletInput) (core.Wallet, error) {
	if err := in.Validate(); err != nil {
		return core.Wallet{}, err
	}
	s.begin()
	defer s.end()

	w, err := s.transport.CreateWallet(ctx, in)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.Wallet{}, err
	}
	s.mu.Lock()
	s.wallets = append(s.wallets, w)
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Wallet created", log.FieldWalletID, w.ID, "currency", string(w.Currency))
	return w, nil
}

func (s *Store) Update(ctx context.Context, id string, in core.WalletInput) (core.Wallet, error) {
	if err := in.Validate(); err != nil {
		return core.Wallet{}, err
	}
	s.begin()
	defer s.end()

	w, err := s.transport.UpdateWallet(ctx, id, in)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("update wallet %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Wallet{}, err
	}
	s.mu.Lock()
	for i := range s.wallets {
		if s.wallets[i].ID == id {
			s.wallets[i] = w
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = &w
	}
	s.mu.Unlock()
	return w, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.begin()
	defer s.end()

	if err := s.transport.DeleteWallet(ctx, id); err != nil {
		return fmt.Errorf("delete wallet %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	kept := s.wallets[:0:0]
	for _, w := range s.wallets {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.wallets = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Wallets() []core.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Wallet(nil), s.wallets...)
}

// Count is the number of loaded wallets.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wallets)
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Store) Current() (core.Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.Wallet{}, false
	}
	return *s.current, true
}

// TotalBalance adds up current balances. Currencies are not converted.
func (s *Store) TotalBalance() core.Money {
	return core.SumOf(s.Wallets(), func(w core.Wallet) core.Money { return w.CurrentBalance })
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
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
