package app

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/subscription"
	"fintrack/internal/wallet"
)

const (
	walletsPath = "/wallets"

	walletLimitMessage = "Free users can only create 1 wallet. Upgrade to Premium for unlimited wallets."
)

type Wallets struct {
	actions
	store        *wallet.Store
	subscription *subscription.Service
}

func (w *Wallets) Store() *wallet.Store { return w.store }

func (w *Wallets) Load(ctx context.Context) error {
	if err := w.store.Fetch(ctx); err != nil {
		return w.failLoad(ctx, err, "Failed to load wallets", "")
	}
	return nil
}

func (w *Wallets) Open(ctx context.Context, id string) (core.Wallet, error) {
	wl, err := w.store.Get(ctx, id)
	if err != nil {
		return core.Wallet{}, w.failLoad(ctx, err, "Failed to load wallet", walletsPath)
	}
	return wl, nil
}

// Create enforces the free plan wallet limit before creating. The wallet
// list and the subscription are loaded first when they never were.
func (w *Wallets) Create(ctx context.Context, in core.WalletInput) (core.Wallet, error) {
	if !w.store.Loaded() {
		if err := w.store.Fetch(ctx); err != nil {
			return core.Wallet{}, w.fail(ctx, err, "Failed to load wallets")
		}
	}
	if _, ok := w.subscription.Subscription(); !ok {
		if _, err := w.subscription.Load(ctx); err != nil {
			return core.Wallet{}, w.fail(ctx, err, "Failed to load subscription information")
		}
	}
	if !w.subscription.CanCreateWallet(w.store.Count()) {
		return core.Wallet{}, w.fail(ctx, core.Invalid("wallet", core.ErrPremiumRequired, walletLimitMessage), "")
	}
	wl, err := w.store.Create(ctx, in)
	if err != nil {
		return core.Wallet{}, w.fail(ctx, err, "Failed to create wallet")
	}
	w.done(ctx, "Wallet created successfully!", walletsPath)
	return wl, nil
}

func (w *Wallets) Update(ctx context.Context, id string, in core.WalletInput) (core.Wallet, error) {
	wl, err := w.store.Update(ctx, id, in)
	if err != nil {
		return core.Wallet{}, w.fail(ctx, err, "Failed to update wallet")
	}
	w.done(ctx, "Wallet updated successfully!", walletsPath)
	return wl, nil
}

func (w *Wallets) Delete(ctx context.Context, id string) error {
	if err := w.store.Delete(ctx, id); err != nil {
		return w.fail(ctx, err, "Failed to delete wallet")
	}
	w.done(ctx, "Wallet deleted successfully!", "")
	return nil
}
