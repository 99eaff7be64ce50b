package app

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const debtsPath = "/debts"

// Debts is the user-facing debt actions over a ledger.
type Debts struct {
	actions
	ledger *ledger.Ledger
}

func (d *Debts) Ledger() *ledger.Ledger { return d.ledger }

func (d *Debts) Load(ctx context.Context) error {
	if err := d.ledger.Fetch(ctx); err != nil {
		return d.failLoad(ctx, err, "Failed to load debts", "")
	}
	return nil
}

func (d *Debts) LoadMore(ctx context.Context) error {
	if err := d.ledger.LoadMore(ctx); err != nil {
		return d.failLoad(ctx, err, "Failed to load more debts", "")
	}
	return nil
}

// Open loads one debt as the current debt. On failure the user is sent back
// to the debt list.
func (d *Debts) Open(ctx context.Context, id string) (core.Debt, error) {
	debt, err := d.ledger.Get(ctx, id)
	if err != nil {
		return core.Debt{}, d.failLoad(ctx, err, "Failed to load debt", debtsPath)
	}
	return debt, nil
}

func (d *Debts) Create(ctx context.Context, in core.DebtInput) (core.Debt, error) {
	debt, err := d.ledger.Create(ctx, in)
	if err != nil {
		return core.Debt{}, d.fail(ctx, err, "Failed to create debt")
	}
	d.done(ctx, "Debt created successfully!", debtsPath)
	return debt, nil
}

func (d *Debts) Update(ctx context.Context, id string, in core.DebtInput) (core.Debt, error) {
	debt, err := d.ledger.Update(ctx, id, in)
	if err != nil {
		return core.Debt{}, d.fail(ctx, err, "Failed to update debt")
	}
	d.done(ctx, "Debt updated successfully!", debtsPath)
	return debt, nil
}

func (d *Debts) Delete(ctx context.Context, id string) error {
	if err := d.ledger.Delete(ctx, id); err != nil {
		return d.fail(ctx, err, "Failed to delete debt")
	}
	d.done(ctx, "Debt deleted successfully!", "")
	return nil
}

func (d *Debts) AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error) {
	res, err := d.ledger.AddPayment(ctx, debtID, in)
	if err != nil {
		return core.PaymentResult{}, d.fail(ctx, err, "Failed to add payment")
	}
	d.done(ctx, "Payment added successfully!", "")
	return res, nil
}

func (d *Debts) UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error) {
	debt, err := d.ledger.UpdatePayment(ctx, debtID, paymentID, in)
	if err != nil {
		return core.Debt{}, d.fail(ctx, err, "Failed to update payment")
	}
	d.done(ctx, "Payment updated successfully!", "")
	return debt, nil
}

func (d *Debts) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	if err := d.ledger.DeletePayment(ctx, debtID, paymentID); err != nil {
		return d.fail(ctx, err, "Failed to delete payment")
	}
	d.done(ctx, "Payment deleted successfully!", "")
	return nil
}

// MarkAsPaid settles a debt. A debt that is already paid yields an
// informational notice and core.ErrAlreadyPaid.
func (d *Debts) MarkAsPaid(ctx context.Context, id string) (core.Debt, error) {
	debt, err := d.ledger.MarkAsPaid(ctx, id)
	if err != nil {
		return debt, d.fail(ctx, err, "Failed to mark debt as paid")
	}
	d.done(ctx, "Debt marked as paid!", "")
	return debt, nil
}

// ApplyFilters changes the filters and reloads the first page.
func (d *Debts) ApplyFilters(ctx context.Context, mutate func(*core.DebtFilters)) error {
	d.ledger.SetFilters(mutate)
	if err := d.ledger.Fetch(ctx); err != nil {
		return d.failLoad(ctx, err, "Failed to apply filters", "")
	}
	return nil
}

func (d *Debts) ResetFilters(ctx context.Context) error {
	d.ledger.ResetFilters()
	if err := d.ledger.Fetch(ctx); err != nil {
		return d.failLoad(ctx, err, "Failed to reset filters", "")
	}
	return nil
}
