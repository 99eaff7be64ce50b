package core

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	FormatCSV   ExportFormat = "CSV"
	FormatExcel ExportFormat = "EXCEL"
	FormatPDF   ExportFormat = "PDF"
	// FormatSheets pushes the rows to a Google spreadsheet instead of
	// downloading a file.
	FormatSheets ExportFormat = "SHEETS"

	ExportTransactions ExportType = "TRANSACTIONS"
	ExportDebts        ExportType = "DEBTS"
	ExportSummary      ExportType = "SUMMARY"
)

type (
	ExportFormat string

	ExportType string

	// ExportFilter narrows what is exported. Zero fields are left out.
	ExportFilter struct {
		StartDate   Date            `json:"startDate,omitempty"`
		EndDate     Date            `json:"endDate,omitempty"`
		WalletIDs   []string        `json:"walletIds,omitempty"`
		CategoryIDs []string        `json:"categoryIds,omitempty"`
		Type        TransactionType `json:"type,omitempty"`
		DebtType    DebtType        `json:"debtType,omitempty"`
		Status      DebtStatus      `json:"status,omitempty"`
	}

	ExportRequest struct {
		Format ExportFormat `json:"format"`
		Type   ExportType   `json:"type"`
		Filter ExportFilter `json:"filter"`
	}

	// ExportResult is the backend answer. Older backends name the payload
	// base64Data.
	ExportResult struct {
		FileName      string `json:"fileName"`
		Base64Content string `json:"base64Content,omitempty"`
		Base64Data    string `json:"base64Data,omitempty"`
	}
)

// ExportFormats lists the formats a user can pick.
func ExportFormats() []ExportFormat {
	return []ExportFormat{FormatCSV, FormatExcel, FormatPDF, FormatSheets}
}

// ParseExportFormat accepts any letter case.
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ExportFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", Invalid("format", ErrInvalidExportFormat, "Invalid export format")
}

// MimeType is the content type of a downloaded export.
func (f ExportFormat) MimeType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Extension is the file suffix for the format, including the dot.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatCSV, FormatSheets:
		return ".csv"
	case FormatExcel:
		return ".xlsx"
	case FormatPDF:
		return ".pdf"
	default:
		return ".bin"
	}
}

// Content decodes the file payload.
func (r ExportResult) Content() ([]byte, error) {
	payload := r.Base64Content
	if payload == "" {
		payload = r.Base64Data
	}
	if payload == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode export %s: %w", r.FileName, err)
	}
	return b, nil
}

// ValidateRange rejects a window that ends before it starts.
func (f ExportFilter) ValidateRange() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.StartDate.After(f.EndDate) {
		return Invalid("startDate", ErrInvalidDateRange, "Start date must be before end date")
	}
	return nil
}
