package reports

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type DashboardTransport interface {
	DashboardSummary(ctx context.Context, walletID string) (core.DashboardSummary, error)
}

// Dashboard holds the home screen summary, optionally scoped to one wallet.
type Dashboard struct {
	transport DashboardTransport
	logger    *log.Logger

	mu       sync.Mutex
	summary  core.DashboardSummary
	walletID string
	loaded   bool
	err      error
}

func NewDashboard(transport DashboardTransport, logger *log.Logger) *Dashboard {
	if logger == nil {
		logger = log.Discard()
	}
	return &Dashboard{transport: transport, logger: logger.WithComponent(log.ComponentReports)}
}

func (d *Dashboard) Load(ctx context.Context) (core.DashboardSummary, error) {
	d.mu.Lock()
	walletID := d.walletID
	d.mu.Unlock()

	summary, err := d.transport.DashboardSummary(ctx, walletID)
	if err == nil {
		err = ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if walletID != d.walletID {
		return summary, nil
	}
	d.err = err
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("load dashboard: %w", err)
	}
	d.summary = summary
	d.loaded = true
	return summary, nil
}

// SelectWallet scopes the dashboard to walletID ("" for all wallets) and
// reloads it.
func (d *Dashboard) SelectWallet(ctx context.Context, walletID string) (core.DashboardSummary, error) {
	d.mu.Lock()
	d.walletID = walletID
	d.mu.Unlock()
	return d.Load(ctx)
}

func (d *Dashboard) WalletID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.walletID
}

func (d *Dashboard) Summary() (core.DashboardSummary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summary, d.loaded
}

func (d *Dashboard) NetToday() core.Money {
	s, _ := d.Summary()
	return s.NetToday()
}

func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
