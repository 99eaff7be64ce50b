package app

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/subscription"
)

type Subscription struct {
	actions
	service *subscription.Service
}

func (s *Subscription) Service() *subscription.Service { return s.service }

func (s *Subscription) Load(ctx context.Context) (core.Subscription, error) {
	sub, err := s.service.Load(ctx)
	if err != nil {
		return core.Subscription{}, s.failLoad(ctx, err, "Failed to load subscription information", "")
	}
	return sub, nil
}

// Upgrade starts a premium checkout and returns the payment whose token
// opens the external checkout. Users already on an active premium plan get
// an informational notice and core.ErrAlreadyPremium.
func (s *Subscription) Upgrade(ctx context.Context) (core.CheckoutPayment, error) {
	if sub, ok := s.service.Subscription(); ok && sub.HasActiveSubscription() {
		return core.CheckoutPayment{}, s.fail(ctx, core.ErrAlreadyPremium, "")
	}
	p, err := s.service.Checkout(ctx)
	if err != nil {
		return core.CheckoutPayment{}, s.fail(ctx, err, "Failed to create payment")
	}
	return p, nil
}

func (s *Subscription) UpgradeInfo(ctx context.Context, months int) (core.UpgradeInfo, error) {
	info, err := s.service.UpgradeInfo(ctx, months)
	if err != nil {
		return core.UpgradeInfo{}, s.fail(ctx, err, "Failed to load upgrade information")
	}
	return info, nil
}

func (s *Subscription) TrialEligibility(ctx context.Context) (core.TrialEligibility, error) {
	te, err := s.service.TrialEligibility(ctx)
	if err != nil {
		return core.TrialEligibility{}, s.fail(ctx, err, "Failed to check trial eligibility")
	}
	return te, nil
}

func (s *Subscription) Payments(ctx context.Context, page, size int) (core.Page[core.CheckoutPayment], error) {
	p, err := s.service.Payments(ctx, page, size)
	if err != nil {
		return core.Page[core.CheckoutPayment]{}, s.failLoad(ctx, err, "Failed to load payment history", "")
	}
	return p, nil
}

func (s *Subscription) CancelPayment(ctx context.Context, id string) (core.CheckoutPayment, error) {
	p, err := s.service.CancelPayment(ctx, id)
	if err != nil {
		return core.CheckoutPayment{}, s.fail(ctx, err, "Failed to cancel payment")
	}
	s.done(ctx, "Payment cancelled successfully", "")
	return p, nil
}
