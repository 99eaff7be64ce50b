package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	PaymentPending   = "PENDING"
	PaymentPaid      = "PAID"
	PaymentCancelled = "CANCELLED"
)

// ErrPaymentClosed rejects a status change on a payment that is no longer pending.
var ErrPaymentClosed = errors.New("payment is not pending")

// GetSubscription reads the single user's plan. DaysRemaining counts whole
// days until the plan ends, rounded up.
func (r *SQLiteRepository) GetSubscription(ctx context.Context) (core.Subscription, error) {
	var tier, status, started, ends string
	err := r.db.QueryRowContext(ctx, `SELECT tier, status, started_at, ends_at FROM subscription WHERE id = 1`).
		Scan(&tier, &status, &started, &ends)
	if err != nil {
		return core.Subscription{}, notFound(err, "subscription")
	}
	s := core.Subscription{ID: "sub-1", Tier: core.Tier(tier), Status: core.SubscriptionStatus(status)}

	if t, err := parseTime(started); err == nil && !t.IsZero() {
		s.StartedAt = &t
	}
	if t, err := parseTime(ends); err == nil && !t.IsZero() {
		s.EndedAt = &t
		left := t.Sub(r.now())
		if left <= 0 && s.Status != core.SubscriptionCancelled {
			s.Status = core.SubscriptionExpired
		}
		if left > 0 {
			s.DaysRemaining = int(math.Ceil(left.Hours() / 24))
		}
	}
	return s, nil
}

// SetPlan switches the plan. A positive duration sets the end date, zero
// leaves the plan open ended.
func (r *SQLiteRepository) SetPlan(ctx context.Context, tier core.Tier, status core.SubscriptionStatus, duration time.Duration) error {
	now := r.now().UTC()
	ends := ""
	if duration > 0 {
		ends = now.Add(duration).Format(timeLayout)
	}
	trial := 0
	if status == core.SubscriptionTrial {
		trial = 1
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscription SET tier = ?, status = ?, started_at = ?, ends_at = ?, trial_used = MAX(trial_used, ?) WHERE id = 1`,
		string(tier), string(status), now.Format(timeLayout), ends, trial)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) TrialUsed(ctx context.Context) (bool, error) {
	var used bool
	if err := r.db.QueryRowContext(ctx, `SELECT trial_used FROM subscription WHERE id = 1`).Scan(&used); err != nil {
		return false, fmt.Errorf("read trial flag: %w", err)
	}
	return used, nil
}

const checkoutColumns = `id, order_id, snap_token, amount, status, idempotency_key, created_at`

func scanCheckout(row interface{ Scan(...any) error }) (core.CheckoutPayment, error) {
	var p core.CheckoutPayment
	var amount, createdAt string
	if err := row.Scan(&p.ID, &p.OrderID, &p.SnapToken, &amount, &p.Status, &p.IdempotencyKey, &createdAt); err != nil {
		return core.CheckoutPayment{}, err
	}
	var err error
	if p.Amount, err = parseMoney(amount); err != nil {
		return core.CheckoutPayment{}, err
	}
	p.CreatedAt, err = parseTime(createdAt)
	return p, err
}

// CreateCheckout stores a pending payment. Repeating an idempotency key
// returns the payment created the first time.
func (r *SQLiteRepository) CreateCheckout(ctx context.Context, key string, amount core.Money) (core.CheckoutPayment, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = r.newID()
	}
	existing, err := scanCheckout(r.db.QueryRowContext(ctx,
		"SELECT "+checkoutColumns+" FROM subscription_payments WHERE idempotency_key = ?", key))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.CheckoutPayment{}, fmt.Errorf("find checkout: %w", err)
	}

	id := r.newID()
	order := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(order) > 12 {
		order = order[:12]
	}
	order = "ORDER-" + order
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO subscription_payments (`+checkoutColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, order, "snap-"+id, amount.String(), PaymentPending, key, r.stamp())
	if err != nil {
		return core.CheckoutPayment{}, fmt.Errorf("create checkout: %w", err)
	}
	return r.GetCheckout(ctx, id)
}

func (r *SQLiteRepository) GetCheckout(ctx context.Context, id string) (core.CheckoutPayment, error) {
	p, err := scanCheckout(r.db.QueryRowContext(ctx,
		"SELECT "+checkoutColumns+" FROM subscription_payments WHERE id = ?", id))
	if err != nil {
		return core.CheckoutPayment{}, notFound(err, "payment "+id)
	}
	return p, nil
}

func (r *SQLiteRepository) ListCheckouts(ctx context.Context, page, size int) (core.Page[core.CheckoutPayment], error) {
	page, size = pageBounds(page, size)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscription_payments`).Scan(&total); err != nil {
		return core.Page[core.CheckoutPayment]{}, fmt.Errorf("count payments: %w", err)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+checkoutColumns+" FROM subscription_payments ORDER BY created_at DESC, id LIMIT ? OFFSET ?", size, page*size)
	if err != nil {
		return core.Page[core.CheckoutPayment]{}, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.CheckoutPayment
	for rows.Next() {
		p, err := scanCheckout(rows)
		if err != nil {
			return core.Page[core.CheckoutPayment]{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return core.Page[core.CheckoutPayment]{}, err
	}
	return core.NewPage(out, page, size, total), nil
}

// SetCheckoutStatus moves a pending payment to status. Only pending payments
// change.
func (r *SQLiteRepository) SetCheckoutStatus(ctx context.Context, id, status string) (core.CheckoutPayment, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var cur string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM subscription_payments WHERE id = ?`, id).Scan(&cur); err != nil {
			return notFound(err, "payment "+id)
		}
		if cur != PaymentPending {
			return core.Invalid("status", ErrPaymentClosed,
				fmt.Sprintf("Payment is already %s", strings.ToLower(cur)))
		}
		_, err := tx.ExecContext(ctx, `UPDATE subscription_payments SET status = ? WHERE id = ?`, status, id)
		return err
	})
	if err != nil {
		return core.CheckoutPayment{}, err
	}
	return r.GetCheckout(ctx, id)
}
