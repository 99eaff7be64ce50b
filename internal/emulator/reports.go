package emulator

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"fintrack/internal/core"
)

const (
	recentTransactions = 5
	dashboardTrendDays = 7
)

// reportFilters reads the shared report query: startDate, endDate, repeated
// walletIds and categoryIds, type and granularity.
func reportFilters(r *http.Request) (core.ReportFilters, error) {
	q := r.URL.Query()
	f := core.DefaultReportFilters()

	var err error
	if f.StartDate, err = dateParam(r, "startDate"); err != nil {
		return f, err
	}
	if f.EndDate, err = dateParam(r, "endDate"); err != nil {
		return f, err
	}
	if f.Type, err = typeParam(r); err != nil {
		return f, err
	}
	f.WalletIDs = splitIDs(q["walletIds"])
	f.CategoryIDs = splitIDs(q["categoryIds"])

	if g := strings.TrimSpace(q.Get("granularity")); g != "" {
		f.Granularity = core.Granularity(strings.ToUpper(g))
		if !f.Granularity.Valid() {
			return f, core.Invalid("granularity", core.ErrInvalidGranularity, "Invalid granularity")
		}
	}
	return f, f.ValidateRange()
}

// splitIDs accepts both repeated parameters and comma separated lists.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func summarize(txs []core.Transaction) core.FinancialSummary {
	s := core.FinancialSummary{TotalIncome: core.Zero(), TotalExpense: core.Zero()}
	for _, tx := range txs {
		if tx.Type == core.Income {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	s.TransactionCount = int64(len(txs))
	return s
}

// breakdown groups amounts per category. Percentages are relative to the total
// of the category's own type; the largest share comes first.
func breakdown(txs []core.Transaction) []core.CategoryBreakdown {
	totals := map[core.TransactionType]core.Money{core.Income: core.Zero(), core.Expense: core.Zero()}
	byCategory := make(map[string]*core.CategoryBreakdown)
	for _, tx := range txs {
		totals[tx.Type] = totals[tx.Type].Add(tx.Amount)
		b, ok := byCategory[tx.CategoryID]
		if !ok {
			b = &core.CategoryBreakdown{
				CategoryID:   tx.CategoryID,
				CategoryName: tx.CategoryName,
				Type:         tx.Type,
				TotalAmount:  core.Zero(),
			}
			byCategory[tx.CategoryID] = b
		}
		b.TotalAmount = b.TotalAmount.Add(tx.Amount)
		b.TransactionCount++
	}

	out := make([]core.CategoryBreakdown, 0, len(byCategory))
	for _, b := range byCategory {
		b.Percentage = b.TotalAmount.Ratio(totals[b.Type]) * 100
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b core.CategoryBreakdown) int {
		if c := b.TotalAmount.Cmp(a.TotalAmount); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryName, b.CategoryName)
	})
	return out
}

// period names the bucket d falls in.
func period(d core.Date, g core.Granularity) string {
	switch g {
	case core.Weekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case core.Monthly:
		return d.Format("2006-01")
	case core.Yearly:
		return d.Format("2006")
	default:
		return d.Format("2006-01-02")
	}
}

// trend buckets transactions by period in ascending order. Periods without
// transactions are left out.
func trend(txs []core.Transaction, g core.Granularity) []core.TrendPoint {
	points := make(map[string]*core.TrendPoint)
	for _, tx := range txs {
		key := period(tx.Date, g)
		p, ok := points[key]
		if !ok {
			p = &core.TrendPoint{Period: key, Income: core.Zero(), Expense: core.Zero()}
			points[key] = p
		}
		if tx.Type == core.Income {
			p.Income = p.Income.Add(tx.Amount)
		} else {
			p.Expense = p.Expense.Add(tx.Amount)
		}
	}
	out := make([]core.TrendPoint, 0, len(points))
	for _, p := range points {
		p.Net = p.Income.Sub(p.Expense)
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b core.TrendPoint) int { return cmp.Compare(a.Period, b.Period) })
	return out
}

// debtReport totals what is still open on each side. Paid debts only count
// towards PaidCount.
func debtReport(debts []core.Debt, today core.Date) core.DebtReport {
	rep := core.DebtReport{TotalPayable: core.Zero(), TotalReceivable: core.Zero()}
	for _, d := range debts {
		switch d.Status {
		case core.DebtOpen:
			rep.OpenCount++
		case core.DebtPartial:
			rep.PartialCount++
		case core.DebtPaid:
			rep.PaidCount++
			continue
		}
		if d.Overdue(today) {
			rep.OverdueCount++
		}
		if d.Type == core.DebtReceivable {
			rep.TotalReceivable = rep.TotalReceivable.Add(d.RemainingAmount)
		} else {
			rep.TotalPayable = rep.TotalPayable.Add(d.RemainingAmount)
		}
	}
	rep.NetPosition = rep.TotalReceivable.Sub(rep.TotalPayable)
	return rep
}

func (s *Server) reportSummary(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.store.QueryTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(txs))
}

func (s *Server) reportTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, size := pageParams(r)
	out, err := s.store.ReportTransactions(r.Context(), f, page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reportDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.store.AllDebts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debtReport(debts, s.today()))
}

func (s *Server) reportCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.store.QueryTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown(txs))
}

func (s *Server) reportTrend(w http.ResponseWriter, r *http.Request) {
	f, err := reportFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := s.store.QueryTransactions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trend(txs, f.Granularity))
}

// dashboardSummary is available on every plan. With walletId set, balance and
// totals are limited to that wallet.
func (s *Server) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	walletID := strings.TrimSpace(r.URL.Query().Get("walletId"))
	today := s.today()

	out := core.DashboardSummary{WalletBalance: core.Zero()}
	if walletID != "" {
		wallet, err := s.store.GetWallet(ctx, walletID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out.WalletBalance = wallet.CurrentBalance
	} else {
		wallets, err := s.store.ListWallets(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out.WalletBalance = core.SumOf(wallets, func(w core.Wallet) core.Money { return w.CurrentBalance })
	}

	f := core.ReportFilters{StartDate: today.AddDays(1 - dashboardTrendDays), EndDate: today}
	if walletID != "" {
		f.WalletIDs = []string{walletID}
	}
	txs, err := s.store.QueryTransactions(ctx, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	byDay := make(map[string]core.TrendPoint)
	for _, p := range trend(txs, core.Daily) {
		byDay[p.Period] = p
	}
	for d := f.StartDate; !d.After(today); d = d.AddDays(1) {
		key := period(d, core.Daily)
		p, ok := byDay[key]
		if !ok {
			p = core.TrendPoint{Period: key, Income: core.Zero(), Expense: core.Zero(), Net: core.Zero()}
		}
		out.WeeklyTrend = append(out.WeeklyTrend, p)
	}
	last := out.WeeklyTrend[len(out.WeeklyTrend)-1]
	out.TodayIncome, out.TodayExpense = last.Income, last.Expense

	out.RecentTransactions, err = s.store.RecentTransactions(ctx, walletID, recentTransactions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out.RecentTransactions == nil {
		out.RecentTransactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, out)
}
