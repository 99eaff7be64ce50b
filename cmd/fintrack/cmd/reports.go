package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/reports"
)

// windowFlags are the filters shared by reports and exports.
type windowFlags struct {
	from, to, typ, preset string
	wallets, categories   []string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	presets := make([]string, 0, len(reports.Presets()))
	for _, p := range reports.Presets() {
		presets = append(presets, string(p))
	}
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.typ, "type", "", "INCOME or EXPENSE")
	cmd.Flags().StringVar(&f.preset, "preset", "", "date range preset: "+strings.Join(presets, ", "))
	cmd.Flags().StringSliceVar(&f.wallets, "wallet", nil, "wallet ids (repeatable)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, "category ids (repeatable)")
}

// window resolves the date range; a preset wins over --from and --to.
func (f *windowFlags) window(now time.Time) (start, end core.Date, err error) {
	if f.preset != "" {
		s, e, ok := reports.Preset(f.preset).Range(core.Today(now))
		if !ok {
			return start, end, fmt.Errorf("--preset: unknown preset %q", f.preset)
		}
		return s, e, nil
	}
	if start, err = optionalDay("from", f.from, now); err != nil {
		return start, end, err
	}
	end, err = optionalDay("to", f.to, now)
	return start, end, err
}

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Premium financial reports",
	}
	cmd.AddCommand(reportsShowCmd(), reportsTransactionsCmd())
	return cmd
}

// reportView is the machine-readable form of `reports show`.
type reportView struct {
	Filters   core.ReportFilters       `json:"filters" yaml:"filters"`
	Summary   *core.FinancialSummary   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Breakdown []core.CategoryBreakdown `json:"categoryBreakdown" yaml:"category_breakdown"`
	Trend     []core.TrendPoint        `json:"trend" yaml:"trend"`
	Debts     *core.DebtReport         `json:"debts,omitempty" yaml:"debts,omitempty"`
}

func applyReportFilters(cmd *cobra.Command, f *windowFlags, granularity string) error {
	start, end, err := f.window(time.Now())
	if err != nil {
		return err
	}
	tt, err := parseTxType(f.typ)
	if err != nil {
		return err
	}
	g := core.Granularity(strings.ToUpper(granularity))
	if !g.Valid() {
		return fmt.Errorf("--granularity must be DAILY, WEEKLY, MONTHLY or YEARLY, got %q", granularity)
	}
	return rt.app.Reports.ApplyFilters(cmd.Context(), func(rf *core.ReportFilters) {
		*rf = core.ReportFilters{
			StartDate:   start,
			EndDate:     end,
			WalletIDs:   splitList(f.wallets),
			CategoryIDs: splitList(f.categories),
			Type:        tt,
			Granularity: g,
		}
	})
}

func reportsShowCmd() *cobra.Command {
	var (
		f           windowFlags
		granularity string
		top         int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summary, category breakdown, trend and debt report",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := applyReportFilters(cmd, &f, granularity)
			var partial *reports.PartialError
			if err != nil && !errors.As(err, &partial) {
				return err
			}

			svc := rt.app.Reports.Service()
			view := reportView{Filters: svc.Filters(), Breakdown: svc.Breakdown(), Trend: svc.Trend()}
			t := table{}
			if s, ok := svc.Summary(); ok {
				view.Summary = &s
				t.add("Income:", idr(s.TotalIncome))
				t.add("Expense:", idr(s.TotalExpense))
				t.add("Net:", idr(s.NetBalance))
				t.add("Transactions:", humanize.Comma(s.TransactionCount))
			}
			if d, ok := svc.DebtReport(); ok {
				view.Debts = &d
				t.add("You owe:", idr(d.TotalPayable))
				t.add("Owed to you:", idr(d.TotalReceivable))
				t.add("Debt position:", idr(d.NetPosition))
				t.add("Overdue debts:", fmt.Sprint(d.OverdueCount))
			}
			for _, c := range svc.TopCategories(top) {
				t.add("Top "+strings.ToLower(string(c.Type))+":", fmt.Sprintf("%s  %s  %.1f%%", c.CategoryName, idr(c.TotalAmount), c.Percentage))
			}
			for _, p := range view.Trend {
				t.add(p.Period+":", fmt.Sprintf("+%s  -%s  = %s", idr(p.Income), idr(p.Expense), idr(p.Net)))
			}
			if perr := rt.out.print(view, t); perr != nil {
				return perr
			}
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&granularity, "granularity", string(core.Daily), "trend bucket: DAILY, WEEKLY, MONTHLY or YEARLY")
	cmd.Flags().IntVar(&top, "top", 3, "top categories shown per type")
	return cmd
}

func reportsTransactionsCmd() *cobra.Command {
	var (
		f   windowFlags
		all bool
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transactions inside the report window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := rt.app.Reports.Service()
			start, end, err := f.window(time.Now())
			if err != nil {
				return err
			}
			tt, err := parseTxType(f.typ)
			if err != nil {
				return err
			}
			err = svc.SetFilters(func(rf *core.ReportFilters) {
				rf.StartDate, rf.EndDate, rf.Type = start, end, tt
				rf.WalletIDs, rf.CategoryIDs = splitList(f.wallets), splitList(f.categories)
			})
			if err != nil {
				return err
			}
			if err := rt.app.Reports.LoadTransactions(ctx); err != nil {
				return err
			}
			for all && svc.Transactions().HasMore() {
				if err := rt.app.Reports.LoadMoreTransactions(ctx); err != nil {
					return err
				}
			}
			items := svc.Transactions().Items()
			if !all {
				defer fmt.Fprintln(cmd.ErrOrStderr(), pageFooter(svc.Transactions().Pagination()))
			}
			return rt.out.print(items, txTable(items))
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "load every page")
	return cmd
}

func dashboardCmd() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Balance, today's totals and the last seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				sum core.DashboardSummary
				err error
			)
			if changed(cmd, "wallet") {
				sum, err = rt.app.Dashboard.SelectWallet(ctx, wallet)
			} else {
				sum, err = rt.app.Dashboard.Load(ctx)
			}
			if err != nil {
				return err
			}

			t := fields(
				"Balance", idr(sum.WalletBalance),
				"Today in", idr(sum.TodayIncome),
				"Today out", idr(sum.TodayExpense),
				"Today net", idr(sum.NetToday()),
			)
			for _, p := range sum.WeeklyTrend {
				t.add(p.Period+":", fmt.Sprintf("+%s  -%s", idr(p.Income), idr(p.Expense)))
			}
			now := time.Now()
			for _, tx := range sum.RecentTransactions {
				t.add("Recent:", fmt.Sprintf("%s  %s  %s  (%s)", tx.Date, orDash(tx.CategoryName), idr(tx.Signed()), core.RelativeTime(tx.CreatedAt, now)))
			}
			return rt.out.print(sum, t)
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "limit to one wallet")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		f                  windowFlags
		format             string
		debtType, debtStat string
	)
	cmd := &cobra.Command{
		Use:   "export <transactions|debts|summary>",
		Short: "Export data to a file or a Google spreadsheet",
		Long: `Export transactions, debts or the report summary.

CSV is available to every plan; EXCEL and PDF need Premium. SHEETS writes the
rows to the configured Google spreadsheet.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"transactions", "debts", "summary"},
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := core.ExportType(strings.ToUpper(args[0]))
			switch typ {
			case core.ExportTransactions, core.ExportDebts, core.ExportSummary:
			default:
				return fmt.Errorf("unknown export %q: use transactions, debts or summary", args[0])
			}
			start, end, err := f.window(time.Now())
			if err != nil {
				return err
			}
			tt, err := parseTxType(f.typ)
			if err != nil {
				return err
			}
			dt, err := parseDebtType(debtType)
			if err != nil {
				return err
			}
			ds, err := parseDebtStatus(debtStat)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			// Gated formats are checked against the plan before the request.
			if _, err := rt.app.Subscription.Load(ctx); err != nil {
				return err
			}
			res, err := rt.app.Exports.Export(ctx, typ, format, core.ExportFilter{
				StartDate:   start,
				EndDate:     end,
				WalletIDs:   splitList(f.wallets),
				CategoryIDs: splitList(f.categories),
				Type:        tt,
				DebtType:    dt,
				Status:      ds,
			})
			if err != nil {
				return err
			}
			where := res.Path
			if where == "" {
				where = res.Range
			}
			return rt.out.print(res, fields(
				"File", res.FileName,
				"Saved to", orDash(where),
				"Size", humanize.Bytes(uint64(res.Bytes)),
			))
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(core.FormatCSV), "CSV, EXCEL, PDF or SHEETS")
	cmd.Flags().StringVar(&debtType, "debt-type", "", "debts export: PAYABLE or RECEIVABLE")
	cmd.Flags().StringVar(&debtStat, "status", "", "debts export: OPEN, PARTIAL or PAID")
	return cmd
}
