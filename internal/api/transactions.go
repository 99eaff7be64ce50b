package api

import (
	"context"

	"fintrack/internal/core"
)

// ListTransactions sends DateFrom and DateTo as the backend's from and to.
func (c *Client) ListTransactions(ctx context.Context, f core.TransactionFilters, page, size int) (core.Page[core.Transaction], error) {
	q := newQuery().
		set("walletId", f.WalletID).
		set("categoryId", f.CategoryID).
		set("type", string(f.Type)).
		set("from", f.DateFrom.String()).
		set("to", f.DateTo.String())
	var out core.Page[core.Transaction]
	err := c.get(ctx, "/transactions", q.page(page, size).values(), &out)
	return out, err
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var out core.Transaction
	err := c.get(ctx, pathID("/transactions", id), nil, &out)
	return out, err
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var out core.Transaction
	err := c.post(ctx, "/transactions", in, &out)
	return out, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	var out core.Transaction
	err := c.put(ctx, pathID("/transactions", id), in, &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.delete(ctx, pathID("/transactions", id))
}
