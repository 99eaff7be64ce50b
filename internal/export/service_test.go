package export

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

var fixedNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

type fakeTransport struct {
	requests []core.ExportRequest
	result   core.ExportResult
	err      error
	hook     func()
}

func (f *fakeTransport) Export(ctx context.Context, req core.ExportRequest) (core.ExportResult, error) {
	f.requests = append(f.requests, req)
	if f.hook != nil {
		f.hook()
	}
	return f.result, f.err
}

type gate bool

func (g gate) IsFormatAvailable(format core.ExportFormat) bool {
	return bool(g) || format == core.FormatCSV
}

type fakeSheets struct {
	title string
	rows  [][]string
}

func (f *fakeSheets) WriteRows(ctx context.Context, title string, rows [][]string) (string, error) {
	f.title, f.rows = title, rows
	return "'" + title + "'!A1:B2", nil
}

func encoded(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func newService(t *testing.T, f *fakeTransport, premium bool, opts ...Option) (*Service, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "exports")
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(f, gate(premium), dir, opts...), dir
}

func TestService_WritesDecodedFile(t *testing.T) {
	f := &fakeTransport{result: core.ExportResult{FileName: "transactions.csv", Base64Content: encoded("date,amount\n2025-03-01,10\n")}}
	s, dir := newService(t, f, false)

	res, err := s.Transactions(context.Background(), "csv", core.ExportFilter{StartDate: core.NewDate(2025, 3, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != filepath.Join(dir, "transactions.csv") {
		t.Errorf("Path = %q", res.Path)
	}
	b, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "date,amount\n2025-03-01,10\n" {
		t.Errorf("content = %q", b)
	}
	req := f.requests[0]
	if req.Format != core.FormatCSV || req.Type != core.ExportTransactions || !req.Filter.StartDate.Equal(core.NewDate(2025, 3, 1)) {
		t.Errorf("request = %+v", req)
	}
	if last, ok := s.Last(); !ok || last.FileName != "transactions.csv" {
		t.Errorf("Last = %+v, %v", last, ok)
	}
}

func TestService_LegacyPayloadAndUnsafeName(t *testing.T) {
	f := &fakeTransport{result: core.ExportResult{FileName: "../../etc/debts.pdf", Base64Data: encoded("%PDF")}}
	s, dir := newService(t, f, true)

	res, err := s.Debts(context.Background(), "PDF", core.ExportFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != filepath.Join(dir, "debts.pdf") || res.Bytes != 4 {
		t.Errorf("result = %+v", res)
	}
}

func TestService_GeneratedNameWhenBackendOmitsOne(t *testing.T) {
	f := &fakeTransport{result: core.ExportResult{Base64Content: encoded("x")}}
	s, _ := newService(t, f, true)

	res, err := s.Summary(context.Background(), "EXCEL", core.ExportFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if res.FileName != "summary-20250315-103000.xlsx" {
		t.Errorf("FileName = %q", res.FileName)
	}
}

func TestService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		typ     core.ExportType
		format  string
		premium bool
		filter  core.ExportFilter
		want    error
		wantMsg string
	}{
		{"unknown format", core.ExportTransactions, "DOCX", true, core.ExportFilter{}, core.ErrInvalidExportFormat, "Invalid export format"},
		{"csv summary", core.ExportSummary, "csv", true, core.ExportFilter{}, core.ErrUnsupportedExportFmt, "CSV format is not supported for summary export"},
		{"sheets summary", core.ExportSummary, "SHEETS", true, core.ExportFilter{}, core.ErrUnsupportedExportFmt, "SHEETS format is not supported for summary export"},
		{"free pdf", core.ExportDebts, "PDF", false, core.ExportFilter{}, core.ErrPremiumRequired, "PDF export is available for Premium users only"},
		{"inverted range", core.ExportTransactions, "CSV", false,
			core.ExportFilter{StartDate: core.NewDate(2025, 3, 10), EndDate: core.NewDate(2025, 3, 1)},
			core.ErrInvalidDateRange, "Start date must be before end date"},
		{"sheets not configured", core.ExportTransactions, "SHEETS", true, core.ExportFilter{}, core.ErrUnsupportedExportFmt, "Google Sheets export is not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTransport{}
			s, _ := newService(t, f, tt.premium)
			_, err := s.Export(context.Background(), tt.typ, tt.format, tt.filter)
			if !errors.Is(err, tt.want) || err.Error() != tt.wantMsg {
				t.Fatalf("err = %v, want %q", err, tt.wantMsg)
			}
			if !core.IsValidation(err) {
				t.Error("rejection is not a validation error")
			}
			if len(f.requests) != 0 {
				t.Error("rejected export reached the backend")
			}
		})
	}
}

func TestService_OneExportAtATime(t *testing.T) {
	f := &fakeTransport{result: core.ExportResult{FileName: "a.csv", Base64Content: encoded("a")}}
	s, _ := newService(t, f, false)

	var nested error
	f.hook = func() {
		_, nested = s.Transactions(context.Background(), "CSV", core.ExportFilter{})
	}
	if _, err := s.Transactions(context.Background(), "CSV", core.ExportFilter{}); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(nested, core.ErrOperationInFlight) || nested.Error() != "Export already in progress" {
		t.Errorf("nested err = %v", nested)
	}
	if s.Exporting() {
		t.Error("Exporting stuck after completion")
	}
}

func TestService_BackendFailureRecorded(t *testing.T) {
	f := &fakeTransport{err: errors.New("502")}
	s, _ := newService(t, f, false)
	if _, err := s.Debts(context.Background(), "CSV", core.ExportFilter{}); err == nil {
		t.Fatal("expected error")
	}
	if s.Err() == nil || s.Exporting() {
		t.Errorf("Err = %v, Exporting = %v", s.Err(), s.Exporting())
	}
	s.Reset()
	if s.Err() != nil {
		t.Error("Reset kept the error")
	}
}

func TestService_SheetsPushesParsedRows(t *testing.T) {
	f := &fakeTransport{result: core.ExportResult{FileName: "t.csv", Base64Content: encoded("date,note\n2025-03-01,\"coffee, beans\"\n")}}
	sheets := &fakeSheets{}
	s, dir := newService(t, f, true, WithSheets(sheets))

	res, err := s.Transactions(context.Background(), "sheets", core.ExportFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if f.requests[0].Format != core.FormatCSV {
		t.Errorf("backend asked for %s, want CSV", f.requests[0].Format)
	}
	if sheets.title != "Transactions 2025-03-15" {
		t.Errorf("title = %q", sheets.title)
	}
	if len(sheets.rows) != 2 || sheets.rows[1][1] != "coffee, beans" {
		t.Errorf("rows = %v", sheets.rows)
	}
	if res.Range == "" || res.Path != "" {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("SHEETS export wrote to the export dir")
	}
}

func TestFormatLabel(t *testing.T) {
	if FormatLabel(core.FormatExcel) != "Excel Spreadsheet" || FormatLabel("ODS") != "ODS" {
		t.Error("unexpected labels")
	}
}
