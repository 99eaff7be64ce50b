package app

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

var exportedMessages = map[core.ExportType]string{
	core.ExportTransactions: "Transactions exported successfully",
	core.ExportDebts:        "Debts exported successfully",
	core.ExportSummary:      "Summary exported successfully",
}

type Exports struct {
	actions
	service *export.Service
}

func (e *Exports) Service() *export.Service { return e.service }

func (e *Exports) Transactions(ctx context.Context, format string, filter core.ExportFilter) (export.Result, error) {
	return e.Export(ctx, core.ExportTransactions, format, filter)
}

func (e *Exports) Debts(ctx context.Context, format string, filter core.ExportFilter) (export.Result, error) {
	return e.Export(ctx, core.ExportDebts, format, filter)
}

func (e *Exports) Summary(ctx context.Context, format string, filter core.ExportFilter) (export.Result, error) {
	return e.Export(ctx, core.ExportSummary, format, filter)
}

func (e *Exports) Export(ctx context.Context, typ core.ExportType, format string, filter core.ExportFilter) (export.Result, error) {
	res, err := e.service.Export(ctx, typ, format, filter)
	if err != nil {
		return export.Result{}, e.fail(ctx, err, "Export failed")
	}
	e.done(ctx, exportedMessages[typ], "")
	return res, nil
}
