// Package subscription tracks the user's plan and answers premium gate
// questions such as how many wallets may be created or which export formats
// are available.
package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// FreeWalletLimit is the number of wallets a free account may hold.
const FreeWalletLimit = 1

type Transport interface {
	GetSubscription(ctx context.Context) (core.Subscription, error)
	UpgradeInfo(ctx context.Context, tier core.Tier, months int) (core.UpgradeInfo, error)
	TrialEligibility(ctx context.Context) (core.TrialEligibility, error)
	CreateSubscriptionPayment(ctx context.Context, idempotencyKey string) (core.CheckoutPayment, error)
	ListPayments(ctx context.Context, page, size int) (core.Page[core.CheckoutPayment], error)
	GetPayment(ctx context.Context, id string) (core.CheckoutPayment, error)
	CancelPayment(ctx context.Context, id string) (core.CheckoutPayment, error)
}

type Service struct {
	transport Transport
	logger    *log.Logger
	newKey    func() string

	mu           sync.Mutex
	subscription core.Subscription
	loaded       bool
	retryKey     string
}

func New(transport Transport, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		transport: transport,
		logger:    logger.WithComponent(log.ComponentSubscription),
		newKey:    uuid.NewString,
	}
}

// Load fetches the current subscription.
func (s *Service) Load(ctx context.Context) (core.Subscription, error) {
	sub, err := s.transport.GetSubscription(ctx)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	s.Set(sub)
	return sub, nil
}

// Set replaces the known subscription, e.g. after a checkout completes.
func (s *Service) Set(sub core.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscription = sub
	s.loaded = true
}

// Subscription returns the last loaded subscription. Before Load it is the
// zero value, which counts as free.
func (s *Service) Subscription() (core.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscription, s.loaded
}

func (s *Service) Premium() bool {
	sub, _ := s.Subscription()
	return sub.Premium()
}

// CanCreateWallet reports whether one more wallet is allowed given how many
// the user already has.
func (s *Service) CanCreateWallet(count int) bool {
	return CanCreateWallet(s.Premium(), count)
}

// IsFormatAvailable reports whether the export format is unlocked.
func (s *Service) IsFormatAvailable(format core.ExportFormat) bool {
	return IsFormatAvailable(s.Premium(), format)
}

func (s *Service) UpgradeInfo(ctx context.Context, months int) (core.UpgradeInfo, error) {
	if months <= 0 {
		months = 1
	}
	info, err := s.transport.UpgradeInfo(ctx, core.TierPremium, months)
	if err != nil {
		return core.UpgradeInfo{}, fmt.Errorf("get upgrade info: %w", err)
	}
	return info, nil
}

func (s *Service) TrialEligibility(ctx context.Context) (core.TrialEligibility, error) {
	te, err := s.transport.TrialEligibility(ctx)
	if err != nil {
		return core.TrialEligibility{}, fmt.Errorf("check trial eligibility: %w", err)
	}
	return te, nil
}

// Checkout creates a subscription payment. A retry after a failed attempt
// reuses the same idempotency key so the backend never charges twice; the key
// is dropped once a payment is created.
func (s *Service) Checkout(ctx context.Context) (core.CheckoutPayment, error) {
	s.mu.Lock()
	if s.retryKey == "" {
		s.retryKey = s.newKey()
	}
	key := s.retryKey
	s.mu.Unlock()

	p, err := s.transport.CreateSubscriptionPayment(ctx, key)
	if err != nil {
		return core.CheckoutPayment{}, fmt.Errorf("create subscription payment: %w", err)
	}
	if p.IdempotencyKey == "" {
		p.IdempotencyKey = key
	}
	s.mu.Lock()
	s.retryKey = ""
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Subscription payment created", "payment_id", p.ID, "order_id", p.OrderID)
	return p, nil
}

func (s *Service) Payments(ctx context.Context, page, size int) (core.Page[core.CheckoutPayment], error) {
	if size <= 0 {
		size = core.DefaultPageSize
	}
	p, err := s.transport.ListPayments(ctx, page, size)
	if err != nil {
		return core.Page[core.CheckoutPayment]{}, fmt.Errorf("list payments: %w", err)
	}
	return p, nil
}

func (s *Service) Payment(ctx context.Context, id string) (core.CheckoutPayment, error) {
	p, err := s.transport.GetPayment(ctx, id)
	if err != nil {
		return core.CheckoutPayment{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return p, nil
}

func (s *Service) CancelPayment(ctx context.Context, id string) (core.CheckoutPayment, error) {
	p, err := s.transport.CancelPayment(ctx, id)
	if err != nil {
		return core.CheckoutPayment{}, fmt.Errorf("cancel payment %s: %w", id, err)
	}
	return p, nil
}

// CanCreateWallet is the wallet limit rule: premium accounts are unlimited,
// free accounts stop at FreeWalletLimit.
func CanCreateWallet(premium bool, count int) bool {
	return premium || count < FreeWalletLimit
}

// IsFormatAvailable is the export gate: CSV is free, every other format
// needs premium.
func IsFormatAvailable(premium bool, format core.ExportFormat) bool {
	switch format {
	case core.FormatCSV:
		return true
	case core.FormatExcel, core.FormatPDF, core.FormatSheets:
		return premium
	default:
		return false
	}
}
