package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and browse income and expenses",
	}
	cmd.AddCommand(txListCmd(), txGetCmd(), txCreateCmd(), txUpdateCmd(), txDeleteCmd())
	return cmd
}

func txTable(items []core.Transaction) table {
	t := table{header: []string{"ID", "DATE", "TYPE", "WALLET", "CATEGORY", "AMOUNT", "NOTE"}}
	for _, tx := range items {
		t.add(tx.ID, tx.Date.String(), string(tx.Type), orDash(tx.WalletName), orDash(tx.CategoryName), idr(tx.Signed()), tx.Note)
	}
	return t
}

func txDetail(tx core.Transaction) table {
	return fields(
		"ID", tx.ID,
		"Date", tx.Date.String(),
		"Type", string(tx.Type),
		"Wallet", orDash(tx.WalletName),
		"Category", orDash(tx.CategoryName),
		"Amount", idr(tx.Amount),
		"Note", orDash(tx.Note),
		"Created", core.RelativeTime(tx.CreatedAt, time.Now()),
	)
}

func txListCmd() *cobra.Command {
	var (
		wallet, category, typ, from, to string
		all                             bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			tt, err := parseTxType(typ)
			if err != nil {
				return err
			}
			start, err := optionalDay("from", from, now)
			if err != nil {
				return err
			}
			end, err := optionalDay("to", to, now)
			if err != nil {
				return err
			}
			if !start.IsZero() && !end.IsZero() && end.Before(start) {
				return fmt.Errorf("--from must not be after --to")
			}

			ctx := cmd.Context()
			txs := rt.app.Transactions
			err = txs.ApplyFilters(ctx, func(f *core.TransactionFilters) {
				*f = core.TransactionFilters{WalletID: wallet, CategoryID: category, Type: tt, DateFrom: start, DateTo: end}
			})
			if err != nil {
				return err
			}
			for all && txs.Store().Collection().HasMore() {
				if err := txs.LoadMore(ctx); err != nil {
					return err
				}
			}

			store := txs.Store()
			items := store.Transactions()
			t := txTable(items)
			if output == formatTable {
				t.add("", "", "", "", "NET", idr(store.Net()), "")
			}
			if !all {
				defer fmt.Fprintln(cmd.ErrOrStderr(), pageFooter(store.Collection().Pagination()))
			}
			return rt.out.print(items, t)
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet id")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&typ, "type", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().BoolVar(&all, "all", false, "load every page")
	return cmd
}

func txGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := rt.app.Transactions.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.print(tx, txDetail(tx))
		},
	}
}

type txFlags struct {
	wallet, category, typ, amount, date, note string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.wallet, "wallet", "", "wallet id")
	cmd.Flags().StringVar(&f.category, "category", "", "category id")
	cmd.Flags().StringVar(&f.typ, "type", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount")
	cmd.Flags().StringVar(&f.date, "date", "", "day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.note, "note", "", "optional note")
}

func (f *txFlags) apply(cmd *cobra.Command, in *core.TransactionInput) error {
	if changed(cmd, "wallet") {
		in.WalletID = f.wallet
	}
	if changed(cmd, "category") {
		in.CategoryID = f.category
	}
	if changed(cmd, "type") {
		t, err := parseTxType(f.typ)
		if err != nil {
			return err
		}
		in.Type = t
	}
	if changed(cmd, "amount") {
		m, err := parseAmount("amount", f.amount)
		if err != nil {
			return err
		}
		in.Amount = m
	}
	if changed(cmd, "date") || in.Date.IsZero() {
		d, err := parseDay("date", f.date, time.Now())
		if err != nil {
			return err
		}
		in.Date = d
	}
	if changed(cmd, "note") {
		in.Note = f.note
	}
	return nil
}

func txCreateCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record an income or expense",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in core.TransactionInput
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			tx, err := rt.app.Transactions.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return rt.out.print(tx, txDetail(tx))
		},
	}
	f.register(cmd)
	return cmd
}

func txUpdateCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a transaction; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cur, err := rt.app.Transactions.Open(ctx, args[0])
			if err != nil {
				return err
			}
			in := core.TransactionInput{
				WalletID:   cur.WalletID,
				CategoryID: cur.CategoryID,
				Type:       cur.Type,
				Amount:     cur.Amount,
				Date:       cur.Date,
				Note:       cur.Note,
			}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			tx, err := rt.app.Transactions.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			return rt.out.print(tx, txDetail(tx))
		},
	}
	f.register(cmd)
	return cmd
}

func txDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.Transactions.Delete(cmd.Context(), args[0])
		},
	}
}
