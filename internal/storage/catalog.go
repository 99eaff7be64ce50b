package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

const categoryColumns = `id, name, type, icon, color, is_default, created_at`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var typ, createdAt string
	if err := row.Scan(&c.ID, &c.Name, &typ, &c.Icon, &c.Color, &c.IsDefault, &createdAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	var err error
	c.CreatedAt, err = parseTime(createdAt)
	return c, err
}

// ListCategories returns defaults first, then custom categories by name. An
// empty kind lists both types.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.TransactionType) ([]core.Category, error) {
	var w where
	if kind != "" {
		w.add("type = ?", string(kind))
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories"+w.String()+" ORDER BY is_default DESC, type, lower(name)", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if err != nil {
		return core.Category{}, notFound(err, "category "+id)
	}
	return c, nil
}

func duplicateCategory(t core.TransactionType) error {
	return core.Invalid("name", core.ErrDuplicateCategory,
		"A "+strings.ToLower(string(t))+" category with this name already exists")
}

// nameTaken checks the (lower(name), type) pair, skipping exceptID.
func nameTaken(ctx context.Context, q queryer, in core.CategoryInput, exceptID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE lower(name) = lower(?) AND type = ? AND id <> ?`,
		in.Name, string(in.Type), exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	in = in.Normalized()
	id := r.newID()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, in, "")
		if err != nil {
			return err
		}
		if taken {
			return duplicateCategory(in.Type)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, 0, ?)`,
			id, in.Name, string(in.Type), in.Icon, in.Color, r.stamp())
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, id)
}

// UpdateCategory renames or restyles a custom category. The type is fixed.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	in = in.Normalized()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanCategory(tx.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
		if err != nil {
			return notFound(err, "category "+id)
		}
		if cur.IsDefault {
			return core.Invalid("id", core.ErrDefaultCategory, "Cannot modify default categories")
		}
		if in.Type != cur.Type {
			return core.Invalid("type", core.ErrImmutableType, "Category type cannot be changed")
		}
		taken, err := nameTaken(ctx, tx, in, id)
		if err != nil {
			return err
		}
		if taken {
			return duplicateCategory(in.Type)
		}
		_, err = tx.ExecContext(ctx, `UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?`,
			in.Name, in.Icon, in.Color, id)
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var isDefault bool
		if err := tx.QueryRowContext(ctx, `SELECT is_default FROM categories WHERE id = ?`, id).Scan(&isDefault); err != nil {
			return notFound(err, "category "+id)
		}
		if isDefault {
			return core.Invalid("id", core.ErrDefaultCategory, "Cannot delete default categories")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// ListWallets returns every wallet with its balance: the initial balance plus
// income minus expense of its transactions.
func (r *SQLiteRepository) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, initial_balance, created_at FROM wallets ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	wallets := []core.Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range wallets {
		if err := r.fillBalance(ctx, &wallets[i]); err != nil {
			return nil, err
		}
	}
	return wallets, nil
}

func scanWallet(row interface{ Scan(...any) error }) (core.Wallet, error) {
	var w core.Wallet
	var currency, initial, createdAt string
	if err := row.Scan(&w.ID, &w.Name, &currency, &initial, &createdAt); err != nil {
		return core.Wallet{}, err
	}
	w.Currency = core.Currency(currency)
	var err error
	if w.InitialBalance, err = parseMoney(initial); err != nil {
		return core.Wallet{}, fmt.Errorf("wallet %s balance: %w", w.ID, err)
	}
	w.CreatedAt, err = parseTime(createdAt)
	return w, err
}

func (r *SQLiteRepository) fillBalance(ctx context.Context, w *core.Wallet) error {
	txs, err := r.QueryTransactions(ctx, core.ReportFilters{WalletIDs: []string{w.ID}})
	if err != nil {
		return err
	}
	w.CurrentBalance = w.InitialBalance.Add(core.SumOf(txs, core.Transaction.Signed))
	return nil
}

func (r *SQLiteRepository) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	w, err := scanWallet(r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, initial_balance, created_at FROM wallets WHERE id = ?`, id))
	if err != nil {
		return core.Wallet{}, notFound(err, "wallet "+id)
	}
	if err := r.fillBalance(ctx, &w); err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

func (r *SQLiteRepository) CountWallets(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wallets: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CreateWallet(ctx context.Context, in core.WalletInput) (core.Wallet, error) {
	id := r.newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, name, currency, initial_balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(in.Name), string(in.Currency), in.InitialBalance.String(), r.stamp())
	if err != nil {
		return core.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return r.GetWallet(ctx, id)
}

func (r *SQLiteRepository) UpdateWallet(ctx context.Context, id string, in core.WalletInput) (core.Wallet, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE wallets SET name = ?, currency = ?, initial_balance = ? WHERE id = ?`,
		strings.TrimSpace(in.Name), string(in.Currency), in.InitialBalance.String(), id)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("update wallet: %w", err)
	}
	if err := mustAffect(res, "wallet "+id); err != nil {
		return core.Wallet{}, err
	}
	return r.GetWallet(ctx, id)
}

// DeleteWallet removes the wallet and its transactions.
func (r *SQLiteRepository) DeleteWallet(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE wallet_id = ?`, id); err != nil {
			return fmt.Errorf("delete wallet transactions: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete wallet: %w", err)
		}
		return mustAffect(res, "wallet "+id)
	})
}
