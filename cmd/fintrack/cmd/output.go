package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// table is the tabular rendering of a value; JSON and YAML use the value
// itself.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case formatTable, formatJSON, formatYAML:
		return &printer{w: w, format: f}, nil
	}
	return nil, fmt.Errorf("unknown output format %q: use table, json or yaml", format)
}

func (p *printer) print(v any, t table) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if len(t.header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// fields renders a single record as a two column table.
func fields(pairs ...string) table {
	t := table{}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.add(pairs[i]+":", pairs[i+1])
	}
	return t
}

func idr(m core.Money) string {
	return core.FormatMoney(m, core.DefaultCurrency)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func pageFooter(p core.PageInfo) string {
	return fmt.Sprintf("page %d of %d, %d total", p.Page+1, max(p.TotalPages, 1), p.TotalElements)
}
