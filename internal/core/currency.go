package core

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	IDR Currency = "IDR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	SGD Currency = "SGD"
	MYR Currency = "MYR"

	DefaultCurrency = IDR
)

type currencyFormat struct {
	symbol   string
	label    string
	decimals int
	spaced   bool
	// humanize.FormatFloat pattern: thousands separator then decimal separator
	pattern string
}

var currencyFormats = map[Currency]currencyFormat{
	IDR: {symbol: "Rp", label: "Indonesian Rupiah", decimals: 2, spaced: true, pattern: "#.###,##"},
	USD: {symbol: "$", label: "US Dollar", decimals: 2, pattern: "#,###.##"},
	EUR: {symbol: "€", label: "Euro", decimals: 2, pattern: "#.###,##"},
	GBP: {symbol: "£", label: "British Pound", decimals: 2, pattern: "#,###.##"},
	JPY: {symbol: "¥", label: "Japanese Yen", decimals: 0, pattern: "#,###."},
	SGD: {symbol: "S$", label: "Singapore Dollar", decimals: 2, pattern: "#,###.##"},
	MYR: {symbol: "RM", label: "Malaysian Ringgit", decimals: 2, spaced: true, pattern: "#,###.##"},
}

// SupportedCurrencies lists the currencies a wallet may hold, in display order.
func SupportedCurrencies() []Currency {
	return []Currency{IDR, USD, EUR, GBP, JPY, SGD, MYR}
}

// ParseCurrency accepts any letter case.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := currencyFormats[c]; !ok {
		return "", ErrUnsupportedCurrency
	}
	return c, nil
}

func (c Currency) Supported() bool {
	_, ok := currencyFormats[c]
	return ok
}

// Symbol returns the display symbol, or "" for unknown codes.
func (c Currency) Symbol() string {
	return currencyFormats[c].symbol
}

// Label returns e.g. "Euro (€)".
func (c Currency) Label() string {
	f, ok := currencyFormats[c]
	if !ok {
		return string(c)
	}
	return f.label + " (" + f.symbol + ")"
}

func formatFor(c Currency) currencyFormat {
	if f, ok := currencyFormats[c]; ok {
		return f
	}
	return currencyFormats[DefaultCurrency]
}

// FormatMoney renders an amount for display, e.g. "Rp 1.500.000,00" or
// "$1,500.00". Unknown currencies use the IDR format.
func FormatMoney(m Money, c Currency) string {
	f := formatFor(c)
	rounded := m.d.Round(int32(f.decimals))
	neg := rounded.IsNegative()
	body := humanize.FormatFloat(f.pattern, rounded.Abs().InexactFloat64())

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(f.symbol)
	if f.spaced {
		b.WriteByte(' ')
	}
	b.WriteString(body)
	return b.String()
}

// FormatMoneyCompact renders a short form for dashboards, e.g. "Rp 10M".
func FormatMoneyCompact(m Money, c Currency) string {
	f := formatFor(c)
	sign := ""
	if m.IsNegative() {
		sign = "-"
	}
	value, prefix := humanize.ComputeSI(m.d.Abs().InexactFloat64())
	return sign + f.symbol + " " + humanize.FtoaWithDigits(value, 1) + strings.ToUpper(prefix)
}

// RelativeTime renders t relative to now, e.g. "3 days ago".
func RelativeTime(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
