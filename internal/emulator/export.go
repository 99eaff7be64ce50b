package emulator

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

var (
	transactionHeader = []string{"Date", "Type", "Wallet", "Category", "Amount", "Note"}
	debtHeader        = []string{"Counterparty", "Type", "Status", "Total", "Remaining", "Due Date", "Note"}
)

// export renders CSV files. EXCEL and PDF are premium formats the emulator
// cannot produce.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	typ := core.ExportType(strings.ToUpper(chi.URLParam(r, "type")))
	switch typ {
	case core.ExportTransactions, core.ExportDebts, core.ExportSummary:
	default:
		s.writeMessage(w, r, http.StatusNotFound, "Resource not found")
		return
	}

	var req core.ExportRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := core.ParseExportFormat(string(req.Format))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if format == core.FormatSheets {
		format = core.FormatCSV
	}
	if typ != core.ExportDebts {
		if err := req.Filter.ValidateRange(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	if format != core.FormatCSV {
		premium, err := s.premium(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !premium {
			s.writeError(w, r, core.Invalid("format", core.ErrPremiumRequired,
				fmt.Sprintf("%s export is available for Premium users only", format)))
			return
		}
		s.writeMessage(w, r, http.StatusNotImplemented, fmt.Sprintf("%s export is not available in the emulator", format))
		return
	}
	if typ == core.ExportSummary {
		s.writeError(w, r, core.Invalid("format", core.ErrUnsupportedExportFmt, "CSV format is not supported for summary export"))
		return
	}

	var rows [][]string
	if typ == core.ExportDebts {
		rows, err = s.debtRows(r, req.Filter)
	} else {
		rows, err = s.transactionRows(r, req.Filter)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		s.writeError(w, r, fmt.Errorf("write csv: %w", err))
		return
	}

	name := fmt.Sprintf("%s-%s%s", strings.ToLower(string(typ)), s.now().In(s.loc).Format("20060102-150405"), format.Extension())
	log.FromContext(r.Context()).InfoContext(r.Context(), "Export rendered",
		log.FieldFormat, string(format), log.FieldFile, name, "rows", len(rows)-1)
	writeJSON(w, http.StatusOK, core.ExportResult{
		FileName:      name,
		Base64Content: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func (s *Server) transactionRows(r *http.Request, f core.ExportFilter) ([][]string, error) {
	txs, err := s.store.QueryTransactions(r.Context(), core.ReportFilters{
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		WalletIDs:   f.WalletIDs,
		CategoryIDs: f.CategoryIDs,
		Type:        f.Type,
	})
	if err != nil {
		return nil, err
	}
	rows := [][]string{transactionHeader}
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.Date.String(), string(tx.Type), tx.WalletName, tx.CategoryName, tx.Amount.String(), tx.Note,
		})
	}
	return rows, nil
}

func (s *Server) debtRows(r *http.Request, f core.ExportFilter) ([][]string, error) {
	debts, err := s.store.AllDebts(r.Context())
	if err != nil {
		return nil, err
	}
	rows := [][]string{debtHeader}
	for _, d := range debts {
		if f.DebtType != "" && d.Type != f.DebtType {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		rows = append(rows, []string{
			d.CounterpartyName, string(d.Type), string(d.Status),
			d.TotalAmount.String(), d.RemainingAmount.String(), d.DueDate.String(), d.Note,
		})
	}
	return rows, nil
}
