package api

import (
	"context"

	"fintrack/internal/core"
)

func (c *Client) ListCategories(ctx context.Context, kind core.TransactionType) ([]core.Category, error) {
	var out []core.Category
	err := c.get(ctx, "/categories", newQuery().set("type", string(kind)).values(), &out)
	return out, err
}

func (c *Client) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var out core.Category
	err := c.get(ctx, pathID("/categories", id), nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	var out core.Category
	err := c.post(ctx, "/categories", in, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	var out core.Category
	err := c.put(ctx, pathID("/categories", id), in, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.delete(ctx, pathID("/categories", id))
}

func (c *Client) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	var out []core.Wallet
	err := c.get(ctx, "/wallets", nil, &out)
	return out, err
}

func (c *Client) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	var out core.Wallet
	err := c.get(ctx, pathID("/wallets", id), nil, &out)
	return out, err
}

func (c *Client) CreateWallet(ctx context.Context, in core.WalletInput) (core.Wallet, error) {
	var out core.Wallet
	err := c.post(ctx, "/wallets", in, &out)
	return out, err
}

func (c *Client) UpdateWallet(ctx context.Context, id string, in core.WalletInput) (core.Wallet, error) {
	var out core.Wallet
	err := c.put(ctx, pathID("/wallets", id), in, &out)
	return out, err
}

func (c *Client) DeleteWallet(ctx context.Context, id string) error {
	return c.delete(ctx, pathID("/wallets", id))
}
