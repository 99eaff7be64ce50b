package app

import (
	"context"

	"fintrack/internal/category"
	"fintrack/internal/core"
)

const categoriesPath = "/categories"

type Categories struct {
	actions
	store *category.Store
}

func (c *Categories) Store() *category.Store { return c.store }

// Load fetches categories of one type, or all when kind is empty.
func (c *Categories) Load(ctx context.Context, kind core.TransactionType) error {
	if err := c.store.Fetch(ctx, kind); err != nil {
		return c.failLoad(ctx, err, "Failed to load categories", "")
	}
	return nil
}

func (c *Categories) Open(ctx context.Context, id string) (core.Category, error) {
	cat, err := c.store.Get(ctx, id)
	if err != nil {
		return core.Category{}, c.failLoad(ctx, err, "Failed to load category", categoriesPath)
	}
	return cat, nil
}

func (c *Categories) Create(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	cat, err := c.store.Create(ctx, in)
	if err != nil {
		return core.Category{}, c.fail(ctx, err, "Failed to create category")
	}
	c.done(ctx, "Category created successfully!", categoriesPath)
	return cat, nil
}

func (c *Categories) Update(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	cat, err := c.store.Update(ctx, id, in)
	if err != nil {
		return core.Category{}, c.fail(ctx, err, "Failed to update category")
	}
	c.done(ctx, "Category updated successfully!", categoriesPath)
	return cat, nil
}

func (c *Categories) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return c.fail(ctx, err, "Failed to delete category")
	}
	c.done(ctx, "Category deleted successfully!", "")
	return nil
}
