package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const debtColumns = `id, type, counterparty_name, total_amount, remaining_amount, due_date, note, status, created_at, updated_at`

func scanDebt(row interface{ Scan(...any) error }) (core.Debt, error) {
	var (
		d                     core.Debt
		typ, status           string
		total, remaining, due string
		createdAt, updatedAt  string
	)
	if err := row.Scan(&d.ID, &typ, &d.CounterpartyName, &total, &remaining, &due, &d.Note, &status, &createdAt, &updatedAt); err != nil {
		return core.Debt{}, err
	}
	d.Type, d.Status = core.DebtType(typ), core.DebtStatus(status)

	var err error
	if d.TotalAmount, err = parseMoney(total); err != nil {
		return core.Debt{}, fmt.Errorf("debt %s total: %w", d.ID, err)
	}
	if d.RemainingAmount, err = parseMoney(remaining); err != nil {
		return core.Debt{}, fmt.Errorf("debt %s remaining: %w", d.ID, err)
	}
	if d.DueDate, err = parseDate(due); err != nil {
		return core.Debt{}, fmt.Errorf("debt %s due date: %w", d.ID, err)
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Debt{}, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Debt{}, err
	}
	return d, nil
}

// ListDebts pages through debts, newest first. The overdue filter is judged
// against today.
func (r *SQLiteRepository) ListDebts(ctx context.Context, f core.DebtFilters, today core.Date, page, size int) (core.Page[core.Debt], error) {
	page, size = pageBounds(page, size)

	var w where
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.Overdue != nil {
		if *f.Overdue {
			w.add("status <> 'PAID' AND due_date <> '' AND due_date < ?", today.String())
		} else {
			w.add("(status = 'PAID' OR due_date = '' OR due_date >= ?)", today.String())
		}
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM debts"+w.String(), w.args...).Scan(&total); err != nil {
		return core.Page[core.Debt]{}, fmt.Errorf("count debts: %w", err)
	}

	q := "SELECT " + debtColumns + " FROM debts" + w.String() + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(w.args, size, page*size)...)
	if err != nil {
		return core.Page[core.Debt]{}, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return core.Page[core.Debt]{}, err
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return core.Page[core.Debt]{}, err
	}
	return core.NewPage(debts, page, size, total), nil
}

// AllDebts returns every debt without payments, for reports.
func (r *SQLiteRepository) AllDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+debtColumns+" FROM debts ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	return getDebt(ctx, r.db, id)
}

func getDebt(ctx context.Context, q queryer, id string) (core.Debt, error) {
	d, err := scanDebt(q.QueryRowContext(ctx, "SELECT "+debtColumns+" FROM debts WHERE id = ?", id))
	if err != nil {
		return core.Debt{}, notFound(err, "debt "+id)
	}
	if d.Payments, err = listPayments(ctx, q, id); err != nil {
		return core.Debt{}, err
	}
	return d, nil
}

func listPayments(ctx context.Context, q queryer, debtID string) ([]core.Payment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, amount, paid_at, note FROM debt_payments WHERE debt_id = ? ORDER BY paid_at, created_at, id`, debtID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []core.Payment{}
	for rows.Next() {
		var p core.Payment
		var amount, paidAt string
		if err := rows.Scan(&p.ID, &amount, &paidAt, &p.Note); err != nil {
			return nil, err
		}
		if p.Amount, err = parseMoney(amount); err != nil {
			return nil, fmt.Errorf("payment %s amount: %w", p.ID, err)
		}
		if p.PaidAt, err = parseTime(paidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, in core.DebtInput) (core.Debt, error) {
	in = in.Normalized()
	id, now := r.newID(), r.stamp()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(in.Type), in.CounterpartyName, in.TotalAmount.String(), in.TotalAmount.String(),
		in.DueDate.String(), in.Note, string(core.DebtOpen), now, now)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	r.logger.DebugContext(ctx, "Debt created", log.FieldDebtID, id)
	return r.GetDebt(ctx, id)
}

// UpdateDebt replaces the editable fields. Remaining is recomputed from the
// payments, so a total below what was already paid is rejected.
func (r *SQLiteRepository) UpdateDebt(ctx context.Context, id string, in core.DebtInput) (core.Debt, error) {
	in = in.Normalized()
	var out core.Debt
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		d, err := getDebt(ctx, tx, id)
		if err != nil {
			return err
		}
		paid := core.SumOf(d.Payments, func(p core.Payment) core.Money { return p.Amount })
		if paid.GreaterThan(in.TotalAmount) {
			return core.Invalid("totalAmount", core.ErrInvalidAmount,
				fmt.Sprintf("Total amount cannot be less than the amount already paid (%s)", paid))
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE debts SET type = ?, counterparty_name = ?, total_amount = ?, due_date = ?, note = ?, updated_at = ? WHERE id = ?`,
			string(in.Type), in.CounterpartyName, in.TotalAmount.String(), in.DueDate.String(), in.Note, r.stamp(), id)
		if err != nil {
			return fmt.Errorf("update debt: %w", err)
		}
		if err := r.recompute(ctx, tx, id); err != nil {
			return err
		}
		out, err = getDebt(ctx, tx, id)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM debt_payments WHERE debt_id = ?`, id); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete debt: %w", err)
		}
		return mustAffect(res, "debt "+id)
	})
}

func exceeds(remaining core.Money) error {
	return core.Invalid("amount", core.ErrExceedsRemaining,
		fmt.Sprintf("Payment amount cannot exceed remaining amount (%s)", remaining))
}

func alreadyPaid() error {
	return core.Invalid("status", core.ErrAlreadyPaid, "Debt is already marked as paid")
}

// AddPayment records a payment and lowers the remaining amount. Paying more
// than what remains is rejected.
func (r *SQLiteRepository) AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error) {
	var out core.PaymentResult
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		d, err := getDebt(ctx, tx, debtID)
		if err != nil {
			return err
		}
		if d.Status == core.DebtPaid {
			return alreadyPaid()
		}
		if in.Amount.GreaterThan(d.RemainingAmount) {
			return exceeds(d.RemainingAmount)
		}

		id := r.newID()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO debt_payments (id, debt_id, amount, paid_at, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, debtID, in.Amount.String(), in.PaidAt.UTC().Format(timeLayout), in.Note, r.stamp())
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := r.recompute(ctx, tx, debtID); err != nil {
			return err
		}
		if out.UpdatedDebt, err = getDebt(ctx, tx, debtID); err != nil {
			return err
		}
		out.Payment, _ = out.UpdatedDebt.FindPayment(id)
		return nil
	})
	if err == nil {
		r.logger.DebugContext(ctx, "Payment recorded", log.FieldDebtID, debtID, log.FieldPaymentID, out.Payment.ID,
			log.FieldAmount, in.Amount.String())
	}
	return out, err
}

func (r *SQLiteRepository) UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error) {
	var out core.Debt
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		d, err := getDebt(ctx, tx, debtID)
		if err != nil {
			return err
		}
		without, ok := d.WithoutPayment(paymentID)
		if !ok {
			return fmt.Errorf("payment %s: %w", paymentID, core.ErrNotFound)
		}
		if in.Amount.GreaterThan(without.RemainingAmount) {
			return exceeds(without.RemainingAmount)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE debt_payments SET amount = ?, paid_at = ?, note = ? WHERE id = ? AND debt_id = ?`,
			in.Amount.String(), in.PaidAt.UTC().Format(timeLayout), in.Note, paymentID, debtID)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if err := r.recompute(ctx, tx, debtID); err != nil {
			return err
		}
		out, err = getDebt(ctx, tx, debtID)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM debt_payments WHERE id = ? AND debt_id = ?`, paymentID, debtID)
		if err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		if err := mustAffect(res, "payment "+paymentID); err != nil {
			return err
		}
		return r.recompute(ctx, tx, debtID)
	})
}

// MarkPaid settles the debt by recording a payment for whatever remains.
func (r *SQLiteRepository) MarkPaid(ctx context.Context, id string) (core.Debt, error) {
	var out core.Debt
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		d, err := getDebt(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.Status == core.DebtPaid {
			return alreadyPaid()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO debt_payments (id, debt_id, amount, paid_at, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.newID(), id, d.RemainingAmount.String(), r.stamp(), "Marked as paid", r.stamp())
		if err != nil {
			return fmt.Errorf("insert settlement: %w", err)
		}
		if err := r.recompute(ctx, tx, id); err != nil {
			return err
		}
		out, err = getDebt(ctx, tx, id)
		return err
	})
	return out, err
}

// recompute derives remaining amount and status from the payment set.
func (r *SQLiteRepository) recompute(ctx context.Context, tx *sql.Tx, debtID string) error {
	var total string
	if err := tx.QueryRowContext(ctx, `SELECT total_amount FROM debts WHERE id = ?`, debtID).Scan(&total); err != nil {
		return notFound(err, "debt "+debtID)
	}
	totalAmount, err := parseMoney(total)
	if err != nil {
		return err
	}
	payments, err := listPayments(ctx, tx, debtID)
	if err != nil {
		return err
	}
	paid := core.SumOf(payments, func(p core.Payment) core.Money { return p.Amount })
	remaining := totalAmount.Sub(paid).Max(core.Zero())

	_, err = tx.ExecContext(ctx, `UPDATE debts SET remaining_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		remaining.String(), string(core.StatusFor(totalAmount, remaining)), r.stamp(), debtID)
	if err != nil {
		return fmt.Errorf("update remaining: %w", err)
	}
	return nil
}
