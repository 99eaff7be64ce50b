package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{"12,34", "12.34", false},
		{" 1000 ", "1000", false},
		{"1.234,56", "1234.56", false},
		{"1,234.56", "1234.56", false},
		{"0.005", "0.005", false},
		{"0", "0", false},
		{"", "", true},
		{"-3", "", true},
		{"+3", "", true},
		{"1,2,3", "", true},
		{"1.2.3", "", true},
		{"12a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseMoney(%q) error = %v, want ErrInvalidAmount", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.in, err)
			}
			if !got.Equal(MustParseMoney(tt.want)) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoney_Validate(t *testing.T) {
	if err := NewMoney(1).Validate(); err != nil {
		t.Errorf("positive amount rejected: %v", err)
	}
	if err := Zero().Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if err := NewMoney(-5).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount: got %v, want ErrInvalidAmount", err)
	}
}

func TestMoney_JSONIsANumber(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustParseMoney("1500.25")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":1500.25}` {
		t.Errorf("marshal = %s", b)
	}

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":10.5,"b":"7","c":null}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !in.A.Equal(MustParseMoney("10.5")) || !in.B.Equal(NewMoney(7)) || !in.C.IsZero() {
		t.Errorf("unmarshal = %s %s %s", in.A, in.B, in.C)
	}
}

func TestSumOf(t *testing.T) {
	items := []Money{NewMoney(1), MustParseMoney("0.1"), MustParseMoney("0.2")}
	got := SumOf(items, func(m Money) Money { return m })
	if !got.Equal(MustParseMoney("1.3")) {
		t.Errorf("SumOf = %s, want 1.3", got)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   Money
		currency Currency
		want     string
	}{
		{NewMoney(1500000), IDR, "Rp 1.500.000,00"},
		{MustParseMoney("1234.5"), USD, "$1,234.50"},
		{NewMoney(1500), JPY, "¥1,500"},
		{MustParseMoney("12.5").Neg(), EUR, "-€12,50"},
		{NewMoney(99), MYR, "RM 99.00"},
		{NewMoney(5), Currency("XXX"), "Rp 5,00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatMoney(tt.amount, tt.currency); got != tt.want {
				t.Errorf("FormatMoney(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestFormatMoneyCompact(t *testing.T) {
	if got := FormatMoneyCompact(NewMoney(10000000), IDR); got != "Rp 10M" {
		t.Errorf("got %q, want %q", got, "Rp 10M")
	}
	if got := FormatMoneyCompact(NewMoney(1500), USD); got != "$ 1.5K" {
		t.Errorf("got %q, want %q", got, "$ 1.5K")
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" eur ")
	if err != nil || c != EUR {
		t.Fatalf("ParseCurrency = %q, %v", c, err)
	}
	if _, err := ParseCurrency("BTC"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("BTC: got %v, want ErrUnsupportedCurrency", err)
	}
	if EUR.Label() != "Euro (€)" {
		t.Errorf("Label = %q", EUR.Label())
	}
}
