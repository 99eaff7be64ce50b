package core

const (
	Daily   Granularity = "DAILY"
	Weekly  Granularity = "WEEKLY"
	Monthly Granularity = "MONTHLY"
	Yearly  Granularity = "YEARLY"
)

type (
	Granularity string

	// FinancialSummary totals transactions inside a report window.
	FinancialSummary struct {
		TotalIncome      Money `json:"totalIncome" yaml:"total_income"`
		TotalExpense     Money `json:"totalExpense" yaml:"total_expense"`
		NetBalance       Money `json:"netBalance" yaml:"net_balance"`
		TransactionCount int64 `json:"transactionCount" yaml:"transaction_count"`
	}

	CategoryBreakdown struct {
		CategoryID       string          `json:"categoryId" yaml:"category_id"`
		CategoryName     string          `json:"categoryName" yaml:"category"`
		Type             TransactionType `json:"type" yaml:"type"`
		TotalAmount      Money           `json:"totalAmount" yaml:"total"`
		Percentage       float64         `json:"percentage" yaml:"percentage"`
		TransactionCount int64           `json:"transactionCount" yaml:"transactions"`
	}

	TrendPoint struct {
		Period  string `json:"period" yaml:"period"`
		Income  Money  `json:"income" yaml:"income"`
		Expense Money  `json:"expense" yaml:"expense"`
		Net     Money  `json:"net" yaml:"net"`
	}

	// DebtReport summarizes the debt portfolio.
	DebtReport struct {
		TotalPayable    Money `json:"totalPayable" yaml:"total_payable"`
		TotalReceivable Money `json:"totalReceivable" yaml:"total_receivable"`
		NetPosition     Money `json:"netPosition" yaml:"net_position"`
		OpenCount       int64 `json:"openCount" yaml:"open"`
		PartialCount    int64 `json:"partialCount" yaml:"partial"`
		PaidCount       int64 `json:"paidCount" yaml:"paid"`
		OverdueCount    int64 `json:"overdueCount" yaml:"overdue"`
	}

	// DashboardSummary mirrors GET /dashboard/summary.
	DashboardSummary struct {
		WalletBalance      Money         `json:"walletBalance" yaml:"wallet_balance"`
		TodayIncome        Money         `json:"todayIncome" yaml:"today_income"`
		TodayExpense       Money         `json:"todayExpense" yaml:"today_expense"`
		WeeklyTrend        []TrendPoint  `json:"weeklyTrend" yaml:"weekly_trend"`
		RecentTransactions []Transaction `json:"recentTransactions" yaml:"recent_transactions"`
	}
)

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// NetToday is today's income minus today's expense.
func (s DashboardSummary) NetToday() Money {
	return s.TodayIncome.Sub(s.TodayExpense)
}
