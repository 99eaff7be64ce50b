package app

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/transactions"
)

const transactionsPath = "/transactions"

type Transactions struct {
	actions
	store *transactions.Store
}

func (t *Transactions) Store() *transactions.Store { return t.store }

func (t *Transactions) Load(ctx context.Context) error {
	if err := t.store.Fetch(ctx); err != nil {
		return t.failLoad(ctx, err, "Failed to load transactions", "")
	}
	return nil
}

func (t *Transactions) LoadMore(ctx context.Context) error {
	if err := t.store.LoadMore(ctx); err != nil {
		return t.failLoad(ctx, err, "Failed to load more transactions", "")
	}
	return nil
}

func (t *Transactions) Open(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := t.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, t.failLoad(ctx, err, "Failed to load transaction", transactionsPath)
	}
	return tx, nil
}

func (t *Transactions) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	tx, err := t.store.Create(ctx, in)
	if err != nil {
		return core.Transaction{}, t.fail(ctx, err, "Failed to create transaction")
	}
	t.done(ctx, "Transaction created successfully!", transactionsPath)
	return tx, nil
}

func (t *Transactions) Update(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	tx, err := t.store.Update(ctx, id, in)
	if err != nil {
		return core.Transaction{}, t.fail(ctx, err, "Failed to update transaction")
	}
	t.done(ctx, "Transaction updated successfully!", transactionsPath)
	return tx, nil
}

func (t *Transactions) Delete(ctx context.Context, id string) error {
	if err := t.store.Delete(ctx, id); err != nil {
		return t.fail(ctx, err, "Failed to delete transaction")
	}
	t.done(ctx, "Transaction deleted successfully!", "")
	return nil
}

func (t *Transactions) ApplyFilters(ctx context.Context, mutate func(*core.TransactionFilters)) error {
	t.store.SetFilters(mutate)
	if err := t.store.Fetch(ctx); err != nil {
		return t.failLoad(ctx, err, "Failed to apply filters", "")
	}
	return nil
}

func (t *Transactions) ResetFilters(ctx context.Context) error {
	t.store.ResetFilters()
	if err := t.store.Fetch(ctx); err != nil {
		return t.failLoad(ctx, err, "Failed to reset filters", "")
	}
	return nil
}
