package app

import (
	"context"
	"errors"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/reports"
	"fintrack/internal/ui"
)

const premiumReportsMessage = "Reports are available for Premium users only"

type Reports struct {
	actions
	service *reports.Service
}

func (r *Reports) Service() *reports.Service { return r.service }

// Load fetches every report section. A partial failure keeps the sections
// that did load and is reported as a warning.
func (r *Reports) Load(ctx context.Context) error {
	if err := r.service.LoadAll(ctx); err != nil {
		return r.reportFailure(ctx, err)
	}
	return nil
}

func (r *Reports) Refresh(ctx context.Context) error {
	if err := r.service.Refresh(ctx); err != nil {
		return r.reportFailure(ctx, err)
	}
	return nil
}

func (r *Reports) LoadTransactions(ctx context.Context) error {
	if err := r.service.Transactions().Fetch(ctx); err != nil {
		return r.failLoad(ctx, err, "Failed to load transactions", "")
	}
	return nil
}

func (r *Reports) LoadMoreTransactions(ctx context.Context) error {
	if err := r.service.Transactions().LoadMore(ctx); err != nil {
		return r.failLoad(ctx, err, "Failed to load more transactions", "")
	}
	return nil
}

// ApplyFilters validates and applies a filter change, then reloads.
func (r *Reports) ApplyFilters(ctx context.Context, mutate func(*core.ReportFilters)) error {
	if err := r.service.SetFilters(mutate); err != nil {
		return r.fail(ctx, err, "")
	}
	return r.Load(ctx)
}

func (r *Reports) ResetFilters(ctx context.Context) error {
	r.service.ResetFilters()
	if err := r.service.LoadAll(ctx); err != nil {
		return r.reportFailure(ctx, err)
	}
	r.notify(ctx, ui.Success, "Filters reset successfully")
	return nil
}

func (r *Reports) ApplyDateRange(ctx context.Context, start, end core.Date) error {
	if err := r.service.SetDateRange(start, end); err != nil {
		return r.fail(ctx, err, "")
	}
	return r.Load(ctx)
}

func (r *Reports) ApplyPreset(ctx context.Context, p reports.Preset) error {
	if err := r.service.ApplyDatePreset(p); err != nil {
		return r.fail(ctx, err, "")
	}
	return r.Load(ctx)
}

// ChangeGranularity reloads only the trend.
func (r *Reports) ChangeGranularity(ctx context.Context, g core.Granularity) error {
	if err := r.service.SetGranularity(g); err != nil {
		return r.fail(ctx, err, "")
	}
	if err := r.service.LoadTrend(ctx); err != nil {
		return r.reportFailure(ctx, err)
	}
	return nil
}

func (r *Reports) reportFailure(ctx context.Context, err error) error {
	if errors.Is(err, core.ErrPremiumRequired) {
		r.logger.WarnContext(ctx, "Reports locked", log.FieldError, err)
		r.notify(ctx, ui.Error, premiumReportsMessage)
		return err
	}
	return r.fail(ctx, err, "Failed to load reports")
}

type Dashboard struct {
	actions
	dashboard *reports.Dashboard
}

func (d *Dashboard) Dashboard() *reports.Dashboard { return d.dashboard }

func (d *Dashboard) Load(ctx context.Context) (core.DashboardSummary, error) {
	sum, err := d.dashboard.Load(ctx)
	if err != nil {
		return core.DashboardSummary{}, d.failLoad(ctx, err, "Failed to load dashboard data", "")
	}
	return sum, nil
}

func (d *Dashboard) Refresh(ctx context.Context) (core.DashboardSummary, error) {
	sum, err := d.dashboard.Load(ctx)
	if err != nil {
		return core.DashboardSummary{}, d.fail(ctx, err, "Failed to refresh dashboard")
	}
	d.done(ctx, "Dashboard refreshed!", "")
	return sum, nil
}

// SelectWallet scopes the dashboard to one wallet, or all when id is empty.
func (d *Dashboard) SelectWallet(ctx context.Context, walletID string) (core.DashboardSummary, error) {
	sum, err := d.dashboard.SelectWallet(ctx, walletID)
	if err != nil {
		return core.DashboardSummary{}, d.failLoad(ctx, err, "Failed to load dashboard data", "")
	}
	return sum, nil
}
