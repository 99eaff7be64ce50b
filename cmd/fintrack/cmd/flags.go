package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func parseAmount(name, v string) (core.Money, error) {
	m, err := core.ParseMoney(v)
	if err != nil {
		return core.Money{}, fmt.Errorf("--%s: %w", name, err)
	}
	return m, nil
}

// parseDay reads YYYY-MM-DD. "today" and an empty value resolve against now.
func parseDay(name, v string, now time.Time) (core.Date, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "today":
		return core.Today(now), nil
	case "yesterday":
		return core.Today(now).AddDays(-1), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, v)
	}
	return d, nil
}

// optionalDay is parseDay where an empty value stays empty.
func optionalDay(name, v string, now time.Time) (core.Date, error) {
	if strings.TrimSpace(v) == "" {
		return core.Date{}, nil
	}
	return parseDay(name, v, now)
}

func parseTxType(v string) (core.TransactionType, error) {
	if v == "" {
		return "", nil
	}
	t, ok := core.ParseTransactionType(v)
	if !ok {
		return "", fmt.Errorf("--type must be INCOME or EXPENSE, got %q", v)
	}
	return t, nil
}

func parseDebtType(v string) (core.DebtType, error) {
	t := core.DebtType(strings.ToUpper(strings.TrimSpace(v)))
	if t != "" && !t.Valid() {
		return "", fmt.Errorf("--type must be PAYABLE or RECEIVABLE, got %q", v)
	}
	return t, nil
}

func parseDebtStatus(v string) (core.DebtStatus, error) {
	s := core.DebtStatus(strings.ToUpper(strings.TrimSpace(v)))
	if s != "" && !s.Valid() {
		return "", fmt.Errorf("--status must be OPEN, PARTIAL or PAID, got %q", v)
	}
	return s, nil
}

// changed reports whether the user set the flag, so updates only touch the
// fields that were given.
func changed(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
