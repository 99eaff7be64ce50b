package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"fintrack/internal/core"
)

func (c *Client) ListDebts(ctx context.Context, f core.DebtFilters, page, size int) (core.Page[core.Debt], error) {
	q := newQuery().set("type", string(f.Type)).set("status", string(f.Status))
	if f.Overdue != nil {
		q.set("overdue", strconv.FormatBool(*f.Overdue))
	}
	var out core.Page[core.Debt]
	err := c.get(ctx, "/debts", q.page(page, size).values(), &out)
	return out, err
}

func (c *Client) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	var out core.Debt
	err := c.get(ctx, pathID("/debts", id), nil, &out)
	return out, err
}

func (c *Client) CreateDebt(ctx context.Context, in core.DebtInput) (core.Debt, error) {
	var out core.Debt
	err := c.post(ctx, "/debts", in, &out)
	return out, err
}

func (c *Client) UpdateDebt(ctx context.Context, id string, in core.DebtInput) (core.Debt, error) {
	var out core.Debt
	err := c.put(ctx, pathID("/debts", id), in, &out)
	return out, err
}

func (c *Client) DeleteDebt(ctx context.Context, id string) error {
	return c.delete(ctx, pathID("/debts", id))
}

// AddPayment accepts both the {payment, updatedDebt} answer and older
// backends that return only the updated debt.
func (c *Client) AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error) {
	var raw json.RawMessage
	if err := c.post(ctx, pathID("/debts", debtID, "payments"), in, &raw); err != nil {
		return core.PaymentResult{}, err
	}
	var out core.PaymentResult
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return core.PaymentResult{}, fmt.Errorf("decode payment result: %w", err)
	}
	if out.UpdatedDebt.ID == "" {
		var debt core.Debt
		if err := json.Unmarshal(raw, &debt); err == nil && debt.ID != "" {
			out.UpdatedDebt = debt
			if n := len(debt.Payments); n > 0 && out.Payment.ID == "" {
				out.Payment = debt.Payments[n-1]
			}
		}
	}
	return out, nil
}

func (c *Client) UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error) {
	var out core.Debt
	err := c.put(ctx, pathID("/debts", debtID, "payments", paymentID), in, &out)
	return out, err
}

func (c *Client) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	return c.delete(ctx, pathID("/debts", debtID, "payments", paymentID))
}

func (c *Client) MarkAsPaid(ctx context.Context, id string) (core.Debt, error) {
	var out core.Debt
	err := c.post(ctx, pathID("/debts", id, "mark-paid"), nil, &out)
	return out, err
}
