package api

import (
	"context"

	"fintrack/internal/core"
)

func (c *Client) GetSubscription(ctx context.Context) (core.Subscription, error) {
	var out core.Subscription
	err := c.get(ctx, "/subscriptions/me", nil, &out)
	return out, err
}

func (c *Client) UpgradeInfo(ctx context.Context, tier core.Tier, months int) (core.UpgradeInfo, error) {
	body := struct {
		Tier           core.Tier `json:"tier"`
		DurationMonths int       `json:"durationMonths"`
	}{tier, months}
	var out core.UpgradeInfo
	err := c.post(ctx, "/subscriptions/upgrade", body, &out)
	return out, err
}

func (c *Client) TrialEligibility(ctx context.Context) (core.TrialEligibility, error) {
	var out core.TrialEligibility
	err := c.get(ctx, "/subscriptions/trial-eligibility", nil, &out)
	return out, err
}

func (c *Client) CreateSubscriptionPayment(ctx context.Context, idempotencyKey string) (core.CheckoutPayment, error) {
	body := struct {
		IdempotencyKey string `json:"idempotencyKey"`
	}{idempotencyKey}
	var out core.CheckoutPayment
	err := c.post(ctx, "/payments/subscription", body, &out)
	return out, err
}

func (c *Client) ListPayments(ctx context.Context, page, size int) (core.Page[core.CheckoutPayment], error) {
	var out core.Page[core.CheckoutPayment]
	err := c.get(ctx, "/payments", newQuery().page(page, size).values(), &out)
	return out, err
}

func (c *Client) GetPayment(ctx context.Context, id string) (core.CheckoutPayment, error) {
	var out core.CheckoutPayment
	err := c.get(ctx, pathID("/payments", id), nil, &out)
	return out, err
}

func (c *Client) CancelPayment(ctx context.Context, id string) (core.CheckoutPayment, error) {
	var out core.CheckoutPayment
	err := c.post(ctx, pathID("/payments", id, "cancel"), nil, &out)
	return out, err
}
