package api

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

func reportQuery(f core.ReportFilters) query {
	return newQuery().
		set("startDate", f.StartDate.String()).
		set("endDate", f.EndDate.String()).
		add("walletIds", f.WalletIDs).
		add("categoryIds", f.CategoryIDs).
		set("type", string(f.Type))
}

func (c *Client) ReportSummary(ctx context.Context, f core.ReportFilters) (core.FinancialSummary, error) {
	var out core.FinancialSummary
	err := c.get(ctx, "/reports/summary", reportQuery(f).values(), &out)
	return out, err
}

func (c *Client) ReportTransactions(ctx context.Context, f core.ReportFilters, page, size int) (core.Page[core.Transaction], error) {
	var out core.Page[core.Transaction]
	err := c.get(ctx, "/reports/transactions", reportQuery(f).page(page, size).values(), &out)
	return out, err
}

func (c *Client) ReportDebts(ctx context.Context) (core.DebtReport, error) {
	var out core.DebtReport
	err := c.get(ctx, "/reports/debts", nil, &out)
	return out, err
}

func (c *Client) ReportCategoryBreakdown(ctx context.Context, f core.ReportFilters) ([]core.CategoryBreakdown, error) {
	var out []core.CategoryBreakdown
	err := c.get(ctx, "/reports/category-breakdown", reportQuery(f).values(), &out)
	return out, err
}

func (c *Client) ReportTrend(ctx context.Context, f core.ReportFilters) ([]core.TrendPoint, error) {
	var out []core.TrendPoint
	q := reportQuery(f).set("granularity", string(f.Granularity))
	err := c.get(ctx, "/reports/trend", q.values(), &out)
	return out, err
}

func (c *Client) DashboardSummary(ctx context.Context, walletID string) (core.DashboardSummary, error) {
	var out core.DashboardSummary
	err := c.get(ctx, "/dashboard/summary", newQuery().set("walletId", walletID).values(), &out)
	return out, err
}

func (c *Client) Export(ctx context.Context, req core.ExportRequest) (core.ExportResult, error) {
	var out core.ExportResult
	err := c.post(ctx, "/export/"+strings.ToLower(string(req.Type)), req, &out)
	return out, err
}
