// Package export requests transaction, debt and summary exports from the
// backend and delivers them either as a file in the export directory or, for
// the SHEETS format, as a tab in a Google spreadsheet.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type Transport interface {
	Export(ctx context.Context, req core.ExportRequest) (core.ExportResult, error)
}

// Gate answers whether the user's plan unlocks a format.
type Gate interface {
	IsFormatAvailable(format core.ExportFormat) bool
}

// SheetWriter receives SHEETS exports.
type SheetWriter interface {
	WriteRows(ctx context.Context, title string, rows [][]string) (string, error)
}

// Result describes a delivered export.
type Result struct {
	Type     core.ExportType   `json:"type" yaml:"type"`
	Format   core.ExportFormat `json:"format" yaml:"format"`
	FileName string            `json:"fileName" yaml:"file_name"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Range    string            `json:"range,omitempty" yaml:"range,omitempty"`
	Bytes    int               `json:"bytes" yaml:"bytes"`
	At       time.Time         `json:"at" yaml:"at"`
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSheets enables the SHEETS format.
func WithSheets(w SheetWriter) Option {
	return func(s *Service) { s.sheets = w }
}

type Service struct {
	transport Transport
	gate      Gate
	dir       string
	sheets    SheetWriter
	now       func() time.Time
	logger    *log.Logger

	mu        sync.Mutex
	exporting bool
	last      *Result
	err       error
}

func New(transport Transport, gate Gate, dir string, opts ...Option) *Service {
	s := &Service{
		transport: transport,
		gate:      gate,
		dir:       dir,
		now:       time.Now,
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentExport)
	return s
}

func (s *Service) Transactions(ctx context.Context, format string, filter core.ExportFilter) (Result, error) {
	return s.Export(ctx, core.ExportTransactions, format, filter)
}

func (s *Service) Debts(ctx context.Context, format string, filter core.ExportFilter) (Result, error) {
	return s.Export(ctx, core.ExportDebts, format, filter)
}

func (s *Service) Summary(ctx context.Context, format string, filter core.ExportFilter) (Result, error) {
	return s.Export(ctx, core.ExportSummary, format, filter)
}

// Export checks the request, asks the backend for the file and delivers it.
// Only one export runs at a time.
func (s *Service) Export(ctx context.Context, typ core.ExportType, format string, filter core.ExportFilter) (Result, error) {
	f, err := s.check(typ, format, filter)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return Result{}, core.Invalid("export", core.ErrOperationInFlight, "Export already in progress")
	}
	s.exporting = true
	s.err = nil
	s.mu.Unlock()

	res, err := s.deliver(ctx, typ, f, filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.exporting = false
	if err != nil {
		s.err = err
		s.logger.ErrorContext(ctx, "Export failed", log.FieldFormat, f, "type", typ, log.FieldError, err)
		return Result{}, err
	}
	s.last = &res
	s.logger.InfoContext(ctx, "Export delivered", log.FieldFormat, f, "type", typ, log.FieldFile, res.FileName, "bytes", res.Bytes)
	return res, nil
}

func (s *Service) check(typ core.ExportType, format string, filter core.ExportFilter) (core.ExportFormat, error) {
	switch typ {
	case core.ExportTransactions, core.ExportDebts, core.ExportSummary:
	default:
		return "", core.Invalid("type", core.ErrInvalidExportFormat, "Invalid export type")
	}
	raw := core.ExportFormat(strings.ToUpper(strings.TrimSpace(format)))
	if typ == core.ExportSummary && (raw == core.FormatCSV || raw == core.FormatSheets) {
		return "", core.Invalid("format", core.ErrUnsupportedExportFmt,
			fmt.Sprintf("%s format is not supported for summary export", raw))
	}
	f, err := core.ParseExportFormat(format)
	if err != nil {
		return "", err
	}
	if s.gate != nil && !s.gate.IsFormatAvailable(f) {
		return "", core.Invalid("format", core.ErrPremiumRequired,
			fmt.Sprintf("%s export is available for Premium users only", f))
	}
	if f == core.FormatSheets && s.sheets == nil {
		return "", core.Invalid("format", core.ErrUnsupportedExportFmt, "Google Sheets export is not configured")
	}
	if typ != core.ExportDebts {
		if err := filter.ValidateRange(); err != nil {
			return "", err
		}
	}
	return f, nil
}

func (s *Service) deliver(ctx context.Context, typ core.ExportType, f core.ExportFormat, filter core.ExportFilter) (Result, error) {
	wire := f
	if f == core.FormatSheets {
		wire = core.FormatCSV
	}
	out, err := s.transport.Export(ctx, core.ExportRequest{Format: wire, Type: typ, Filter: filter})
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", strings.ToLower(string(typ)), err)
	}
	content, err := out.Content()
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Type: typ, Format: f, FileName: s.fileName(typ, wire, out.FileName), Bytes: len(content), At: s.now()}
	if f == core.FormatSheets {
		rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
		if err != nil {
			return Result{}, fmt.Errorf("parse exported csv: %w", err)
		}
		res.Range, err = s.sheets.WriteRows(ctx, s.tabTitle(typ), rows)
		if err != nil {
			return Result{}, fmt.Errorf("write sheet: %w", err)
		}
		return res, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create export dir: %w", err)
	}
	res.Path = filepath.Join(s.dir, res.FileName)
	if err := os.WriteFile(res.Path, content, 0o644); err != nil {
		return Result{}, fmt.Errorf("write export file: %w", err)
	}
	return res, nil
}

// fileName keeps the backend's name but never lets it leave the export dir.
func (s *Service) fileName(typ core.ExportType, f core.ExportFormat, suggested string) string {
	name := filepath.Base(strings.TrimSpace(suggested))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("%s-%s%s", strings.ToLower(string(typ)), s.now().Format("20060102-150405"), f.Extension())
	}
	return name
}

func (s *Service) tabTitle(typ core.ExportType) string {
	t := strings.ToLower(string(typ))
	return strings.ToUpper(t[:1]) + t[1:] + " " + s.now().Format(core.DateLayout)
}

func (s *Service) Exporting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporting
}

// Last returns the most recent successful export.
func (s *Service) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Reset forgets the last export and error.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
	s.err = nil
}

// FormatLabel is the human name of a format.
func FormatLabel(f core.ExportFormat) string {
	switch f {
	case core.FormatCSV:
		return "CSV (Comma-Separated Values)"
	case core.FormatExcel:
		return "Excel Spreadsheet"
	case core.FormatPDF:
		return "PDF Document"
	case core.FormatSheets:
		return "Google Sheets"
	default:
		return string(f)
	}
}
