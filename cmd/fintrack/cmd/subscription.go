package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func subscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscription",
		Aliases: []string{"sub"},
		Short:   "Show the plan and upgrade to Premium",
	}
	cmd.AddCommand(subShowCmd(), subUpgradeInfoCmd(), subTrialCmd(), subCheckoutCmd(), subPaymentsCmd(), subCancelCmd())
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func paymentTable(items []core.CheckoutPayment) table {
	t := table{header: []string{"ID", "ORDER", "AMOUNT", "STATUS", "CREATED"}}
	for _, p := range items {
		t.add(p.ID, p.OrderID, idr(p.Amount), p.Status, stamp(p.CreatedAt))
	}
	return t
}

func subShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := rt.app.Subscription.Load(cmd.Context())
			if err != nil {
				return err
			}
			t := fields(
				"Tier", string(sub.Tier),
				"Status", string(sub.Status),
				"Premium", yesNo(sub.Premium()),
				"Trial", yesNo(sub.Trial()),
			)
			if sub.Premium() {
				t.add("Days left:", fmt.Sprint(sub.DaysRemaining))
			}
			return rt.out.print(sub, t)
		},
	}
}

func subUpgradeInfoCmd() *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "upgrade-info",
		Short: "Price and eligibility of a Premium upgrade",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rt.app.Subscription.UpgradeInfo(cmd.Context(), months)
			if err != nil {
				return err
			}
			return rt.out.print(info, fields(
				"Tier", string(info.Tier),
				"Months", fmt.Sprint(info.DurationMonths),
				"Price", core.FormatMoney(info.Price, info.Currency),
				"Eligible", yesNo(info.Eligible),
				"Message", orDash(info.Message),
			))
		},
	}
	cmd.Flags().IntVar(&months, "months", 1, "subscription length in months")
	return cmd
}

func subTrialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trial-eligibility",
		Short: "Check whether a free trial can be started",
		RunE: func(cmd *cobra.Command, args []string) error {
			te, err := rt.app.Subscription.TrialEligibility(cmd.Context())
			if err != nil {
				return err
			}
			return rt.out.print(te, fields("Eligible", yesNo(te.Eligible), "Reason", orDash(te.Reason)))
		},
	}
}

func subCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Start a Premium checkout",
		Long: `Start a Premium checkout. The printed token or URL completes the
payment in the checkout page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := rt.app.Subscription.Load(ctx); err != nil {
				return err
			}
			p, err := rt.app.Subscription.Upgrade(ctx)
			if err != nil {
				return err
			}
			return rt.out.print(p, fields(
				"Payment", p.ID,
				"Order", p.OrderID,
				"Amount", idr(p.Amount),
				"Status", p.Status,
				"Token", p.SnapToken,
				"URL", orDash(p.RedirectURL),
			))
		},
	}
}

func subPaymentsCmd() *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List subscription payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rt.app.Subscription.Payments(cmd.Context(), page, size)
			if err != nil {
				return err
			}
			defer fmt.Fprintln(cmd.ErrOrStderr(), pageFooter(p.Info()))
			return rt.out.print(p.Content, paymentTable(p.Content))
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number, from 0")
	cmd.Flags().IntVar(&size, "size", core.DefaultPageSize, "page size")
	return cmd
}

func subCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-payment <id>",
		Short: "Cancel a pending payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rt.app.Subscription.CancelPayment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.out.print(p, paymentTable([]core.CheckoutPayment{p}))
		},
	}
}
