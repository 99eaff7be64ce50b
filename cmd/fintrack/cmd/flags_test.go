package cmd

import (
	"reflect"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestParseDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 22, 30, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    core.Date
		wantErr bool
	}{
		{in: "", want: core.NewDate(2025, 6, 10)},
		{in: "today", want: core.NewDate(2025, 6, 10)},
		{in: "Yesterday", want: core.NewDate(2025, 6, 9)},
		{in: "2025-01-31", want: core.NewDate(2025, 1, 31)},
		{in: "31/01/2025", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDay("date", tt.in, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDay(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDay(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDay(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionalDay(t *testing.T) {
	d, err := optionalDay("from", "  ", time.Now())
	if err != nil || !d.IsZero() {
		t.Errorf("optionalDay(blank) = %v, %v", d, err)
	}
}

func TestParseAmount(t *testing.T) {
	m, err := parseAmount("amount", "1.234,50")
	if err != nil {
		t.Fatalf("parseAmount: %v", err)
	}
	if !m.Equal(core.MustParseMoney("1234.5")) {
		t.Errorf("amount = %s", m)
	}
	if _, err := parseAmount("amount", "-5"); err == nil {
		t.Error("negative amount accepted")
	}
}

func TestParseEnums(t *testing.T) {
	if tt, err := parseTxType("expense"); err != nil || tt != core.Expense {
		t.Errorf("parseTxType = %q, %v", tt, err)
	}
	if _, err := parseTxType("transfer"); err == nil {
		t.Error("parseTxType accepted transfer")
	}
	if dt, err := parseDebtType(" receivable "); err != nil || dt != core.DebtReceivable {
		t.Errorf("parseDebtType = %q, %v", dt, err)
	}
	if _, err := parseDebtType("loan"); err == nil {
		t.Error("parseDebtType accepted loan")
	}
	if ds, err := parseDebtStatus(""); err != nil || ds != "" {
		t.Errorf("parseDebtStatus(empty) = %q, %v", ds, err)
	}
	if _, err := parseDebtStatus("closed"); err == nil {
		t.Error("parseDebtStatus accepted closed")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a,b", " ", "c , ,d"})
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList = %v, want %v", got, want)
	}
}

func TestDueLabel(t *testing.T) {
	today := core.NewDate(2025, 6, 10)
	tests := map[core.Date]string{
		today:             "2025-06-10 (today)",
		today.AddDays(-3): "2025-06-07 (3 days ago)",
		today.AddDays(7):  "2025-06-17 (in 7 days)",
	}
	for d, want := range tests {
		if got := dueLabel(d, today); got != want {
			t.Errorf("dueLabel(%s) = %q, want %q", d, got, want)
		}
	}
}
