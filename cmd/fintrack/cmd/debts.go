package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func debtsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "debts",
		Aliases: []string{"debt"},
		Short:   "Manage debts and their payments",
	}
	cmd.AddCommand(debtsListCmd(), debtsGetCmd(), debtsCreateCmd(), debtsUpdateCmd(), debtsDeleteCmd(),
		debtsPayCmd(), debtsPaymentUpdateCmd(), debtsPaymentDeleteCmd(), debtsMarkPaidCmd(), debtsSummaryCmd())
	return cmd
}

func debtTable(debts []core.Debt, today core.Date) table {
	t := table{header: []string{"ID", "TYPE", "COUNTERPARTY", "TOTAL", "REMAINING", "DUE", "STATUS"}}
	for _, d := range debts {
		status := string(d.Status)
		if d.Overdue(today) {
			status += " (overdue)"
		}
		t.add(d.ID, string(d.Type), d.CounterpartyName, idr(d.TotalAmount), idr(d.RemainingAmount), d.DueDate.String(), status)
	}
	return t
}

func debtDetail(d core.Debt) table {
	t := fields(
		"ID", d.ID,
		"Type", string(d.Type),
		"Counterparty", d.CounterpartyName,
		"Total", idr(d.TotalAmount),
		"Remaining", idr(d.RemainingAmount),
		"Progress", fmt.Sprintf("%.0f%%", d.Progress()*100),
		"Due", d.DueDate.String(),
		"Status", string(d.Status),
		"Note", orDash(d.Note),
	)
	for _, p := range d.Payments {
		t.add("Payment:", fmt.Sprintf("%s  %s  %s  %s", p.ID, idr(p.Amount), stamp(p.PaidAt), p.Note))
	}
	return t
}

func debtsListCmd() *cobra.Command {
	var (
		typ, status string
		overdue     bool
		all         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List debts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := parseDebtType(typ)
			if err != nil {
				return err
			}
			ds, err := parseDebtStatus(status)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			debts := rt.app.Debts
			err = debts.ApplyFilters(ctx, func(f *core.DebtFilters) {
				f.Type, f.Status, f.Overdue = dt, ds, nil
				if changed(cmd, "overdue") {
					f.Overdue = &overdue
				}
			})
			if err != nil {
				return err
			}
			for all && debts.Ledger().Collection().HasMore() {
				if err := debts.LoadMore(ctx); err != nil {
					return err
				}
			}

			items := debts.Ledger().Debts()
			t := debtTable(items, core.Today(time.Now()))
			if !all {
				defer fmt.Fprintln(cmd.ErrOrStderr(), pageFooter(debts.Ledger().Collection().Pagination()))
			}
			return rt.out.print(items, t)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "PAYABLE or RECEIVABLE")
	cmd.Flags().StringVar(&status, "status", "", "OPEN, PARTIAL or PAID")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "only overdue (or, with =false, only not overdue) debts")
	cmd.Flags().BoolVar(&all, "all", false, "load every page")
	return cmd
}

func debtsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one debt with its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := rt.app.Debts.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.print(d, debtDetail(d))
		},
	}
}

type debtFlags struct {
	typ, counterparty, amount, due, note string
}

func (f *debtFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typ, "type", "", "PAYABLE (you owe) or RECEIVABLE (you are owed)")
	cmd.Flags().StringVar(&f.counterparty, "counterparty", "", "who the debt is with")
	cmd.Flags().StringVar(&f.amount, "amount", "", "total amount")
	cmd.Flags().StringVar(&f.due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.note, "note", "", "optional note")
}

// apply overlays the flags the user set on in.
func (f *debtFlags) apply(cmd *cobra.Command, in *core.DebtInput) error {
	if changed(cmd, "type") {
		t, err := parseDebtType(f.typ)
		if err != nil {
			return err
		}
		in.Type = t
	}
	if changed(cmd, "counterparty") {
		in.CounterpartyName = f.counterparty
	}
	if changed(cmd, "amount") {
		m, err := parseAmount("amount", f.amount)
		if err != nil {
			return err
		}
		in.TotalAmount = m
	}
	if changed(cmd, "due") {
		d, err := parseDay("due", f.due, time.Now())
		if err != nil {
			return err
		}
		in.DueDate = d
	}
	if changed(cmd, "note") {
		in.Note = f.note
	}
	return nil
}

func debtsCreateCmd() *cobra.Command {
	var f debtFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a new debt",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in core.DebtInput
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			d, err := rt.app.Debts.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return rt.out.print(d, debtDetail(d))
		},
	}
	f.register(cmd)
	return cmd
}

func debtsUpdateCmd() *cobra.Command {
	var f debtFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a debt; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cur, err := rt.app.Debts.Open(ctx, args[0])
			if err != nil {
				return err
			}
			in := core.DebtInput{
				Type:             cur.Type,
				CounterpartyName: cur.CounterpartyName,
				TotalAmount:      cur.TotalAmount,
				DueDate:          cur.DueDate,
				Note:             cur.Note,
			}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			d, err := rt.app.Debts.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			return rt.out.print(d, debtDetail(d))
		},
	}
	f.register(cmd)
	return cmd
}

func debtsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a debt and its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.Debts.Delete(cmd.Context(), args[0])
		},
	}
}

type paymentFlags struct {
	amount, date, note string
}

func (f *paymentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount paid")
	cmd.Flags().StringVar(&f.date, "date", "", "payment day, YYYY-MM-DD (default now)")
	cmd.Flags().StringVar(&f.note, "note", "", "optional note")
}

// input builds the payment. A day given on the command line is recorded at
// the current time of day, or at the end of it when that would be in the
// future.
func (f *paymentFlags) input(cmd *cobra.Command, base core.PaymentInput) (core.PaymentInput, error) {
	in := base
	now := time.Now()
	if in.PaidAt.IsZero() {
		in.PaidAt = now
	}
	if changed(cmd, "amount") || base.Amount.IsZero() {
		m, err := parseAmount("amount", f.amount)
		if err != nil {
			return in, err
		}
		in.Amount = m
	}
	if changed(cmd, "date") {
		d, err := parseDay("date", f.date, now)
		if err != nil {
			return in, err
		}
		in.PaidAt = time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.Local)
		if in.PaidAt.After(now) {
			in.PaidAt = now
		}
	}
	if changed(cmd, "note") {
		in.Note = f.note
	}
	return in, nil
}

func debtsPayCmd() *cobra.Command {
	var f paymentFlags
	cmd := &cobra.Command{
		Use:   "pay <debt-id>",
		Short: "Record a payment against a debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input(cmd, core.PaymentInput{})
			if err != nil {
				return err
			}
			res, err := rt.app.Debts.AddPayment(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return rt.out.print(res, debtDetail(res.UpdatedDebt))
		},
	}
	f.register(cmd)
	return cmd
}

func debtsPaymentUpdateCmd() *cobra.Command {
	var f paymentFlags
	cmd := &cobra.Command{
		Use:   "update-payment <debt-id> <payment-id>",
		Short: "Change a recorded payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			debt, err := rt.app.Debts.Open(ctx, args[0])
			if err != nil {
				return err
			}
			p, ok := debt.FindPayment(args[1])
			if !ok {
				return fmt.Errorf("payment %s not found on debt %s", args[1], args[0])
			}
			in, err := f.input(cmd, core.PaymentInput{Amount: p.Amount, PaidAt: p.PaidAt, Note: p.Note})
			if err != nil {
				return err
			}
			d, err := rt.app.Debts.UpdatePayment(ctx, args[0], args[1], in)
			if err != nil {
				return err
			}
			return rt.out.print(d, debtDetail(d))
		},
	}
	f.register(cmd)
	return cmd
}

func debtsPaymentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-payment <debt-id> <payment-id>",
		Short: "Remove a payment; the remaining amount grows back",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.Debts.DeletePayment(cmd.Context(), args[0], args[1])
		},
	}
}

func debtsMarkPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-paid <id>",
		Short: "Settle the whole remaining amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := rt.app.Debts.MarkAsPaid(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.print(d, debtDetail(d))
		},
	}
}

func debtsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Totals over every debt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			debts := rt.app.Debts
			if err := debts.ResetFilters(ctx); err != nil {
				return err
			}
			for debts.Ledger().Collection().HasMore() {
				if err := debts.LoadMore(ctx); err != nil {
					return err
				}
			}
			s := debts.Ledger().Summary()
			return rt.out.print(s, fields(
				"You owe", idr(s.TotalPayable),
				"Owed to you", idr(s.TotalReceivable),
				"Net position", idr(s.NetPosition),
				"Open", fmt.Sprint(s.Open),
				"Partial", fmt.Sprint(s.Partial),
				"Paid", fmt.Sprint(s.Paid),
				"Overdue", fmt.Sprint(s.Overdue),
			))
		},
	}
}
