package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const transactionSelect = `SELECT t.id, t.wallet_id, COALESCE(w.name, ''), t.category_id, COALESCE(c.name, ''),
	t.type, t.amount, t.date, t.note, t.created_at
	FROM transactions t
	LEFT JOIN wallets w ON w.id = t.wallet_id
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var typ, amount, date, createdAt string
	if err := row.Scan(&t.ID, &t.WalletID, &t.WalletName, &t.CategoryID, &t.CategoryName,
		&typ, &amount, &date, &t.Note, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	var err error
	if t.Amount, err = parseMoney(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	if t.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	t.CreatedAt, err = parseTime(createdAt)
	return t, err
}

func transactionWhere(f core.TransactionFilters) where {
	var w where
	if f.WalletID != "" {
		w.add("t.wallet_id = ?", f.WalletID)
	}
	if f.CategoryID != "" {
		w.add("t.category_id = ?", f.CategoryID)
	}
	if f.Type != "" {
		w.add("t.type = ?", string(f.Type))
	}
	if !f.DateFrom.IsZero() {
		w.add("t.date >= ?", f.DateFrom.String())
	}
	if !f.DateTo.IsZero() {
		w.add("t.date <= ?", f.DateTo.String())
	}
	return w
}

func reportWhere(f core.ReportFilters) where {
	var w where
	if !f.StartDate.IsZero() {
		w.add("t.date >= ?", f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		w.add("t.date <= ?", f.EndDate.String())
	}
	w.in("t.wallet_id", f.WalletIDs)
	w.in("t.category_id", f.CategoryIDs)
	if f.Type != "" {
		w.add("t.type = ?", string(f.Type))
	}
	return w
}

const transactionOrder = " ORDER BY t.date DESC, t.created_at DESC, t.id"

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilters, page, size int) (core.Page[core.Transaction], error) {
	return r.pageTransactions(ctx, transactionWhere(f), page, size)
}

// ReportTransactions pages through the transactions inside a report window.
func (r *SQLiteRepository) ReportTransactions(ctx context.Context, f core.ReportFilters, page, size int) (core.Page[core.Transaction], error) {
	return r.pageTransactions(ctx, reportWhere(f), page, size)
}

func (r *SQLiteRepository) pageTransactions(ctx context.Context, w where, page, size int) (core.Page[core.Transaction], error) {
	page, size = pageBounds(page, size)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions t"+w.String(), w.args...).Scan(&total); err != nil {
		return core.Page[core.Transaction]{}, fmt.Errorf("count transactions: %w", err)
	}
	items, err := r.queryTransactions(ctx, transactionSelect+w.String()+transactionOrder+" LIMIT ? OFFSET ?",
		append(w.args, size, page*size)...)
	if err != nil {
		return core.Page[core.Transaction]{}, err
	}
	return core.NewPage(items, page, size, total), nil
}

// QueryTransactions returns every transaction matching f, newest first.
func (r *SQLiteRepository) QueryTransactions(ctx context.Context, f core.ReportFilters) ([]core.Transaction, error) {
	w := reportWhere(f)
	return r.queryTransactions(ctx, transactionSelect+w.String()+transactionOrder, w.args...)
}

// RecentTransactions returns the latest n transactions, optionally for one wallet.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, walletID string, n int) ([]core.Transaction, error) {
	w := transactionWhere(core.TransactionFilters{WalletID: walletID})
	return r.queryTransactions(ctx, transactionSelect+w.String()+transactionOrder+" LIMIT ?", append(w.args, n)...)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, transactionSelect+" WHERE t.id = ?", id))
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction "+id)
	}
	return t, nil
}

// checkRefs verifies the wallet exists and the category exists with the
// transaction's type.
func checkRefs(ctx context.Context, q queryer, in core.TransactionInput) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallets WHERE id = ?`, in.WalletID).Scan(&n); err != nil {
		return fmt.Errorf("check wallet: %w", err)
	}
	if n == 0 {
		return core.Invalid("walletId", core.ErrNotFound, "Wallet not found")
	}
	var kind string
	err := q.QueryRowContext(ctx, `SELECT type FROM categories WHERE id = ?`, in.CategoryID).Scan(&kind)
	if err == sql.ErrNoRows {
		return core.Invalid("categoryId", core.ErrNotFound, "Category not found")
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if core.TransactionType(kind) != in.Type {
		return core.Invalid("categoryId", core.ErrMissingType,
			fmt.Sprintf("Category is not an %s category", strings.ToLower(string(in.Type))))
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	id := r.newID()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkRefs(ctx, tx, in); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, wallet_id, category_id, type, amount, date, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, in.WalletID, in.CategoryID, string(in.Type), in.Amount.String(), in.Date.String(), strings.TrimSpace(in.Note), r.stamp())
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	r.logger.DebugContext(ctx, "Transaction created", log.FieldTransactionID, id, log.FieldAmount, in.Amount.String())
	return r.GetTransaction(ctx, id)
}

// UpdateTransaction keeps the original type.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var kind string
		if err := tx.QueryRowContext(ctx, `SELECT type FROM transactions WHERE id = ?`, id).Scan(&kind); err != nil {
			return notFound(err, "transaction "+id)
		}
		if core.TransactionType(kind) != in.Type {
			return core.Invalid("type", core.ErrImmutableType, "Transaction type cannot be changed")
		}
		if err := checkRefs(ctx, tx, in); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE transactions SET wallet_id = ?, category_id = ?, amount = ?, date = ?, note = ? WHERE id = ?`,
			in.WalletID, in.CategoryID, in.Amount.String(), in.Date.String(), strings.TrimSpace(in.Note), id)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return mustAffect(res, "transaction "+id)
}
