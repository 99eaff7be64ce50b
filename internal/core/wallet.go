package core

import (
	"strings"
	"time"
)

type (
	Wallet struct {
		ID             string    `json:"id" yaml:"id"`
		Name           string    `json:"name" yaml:"name"`
		Currency       Currency  `json:"currency" yaml:"currency"`
		InitialBalance Money     `json:"initialBalance" yaml:"initial_balance"`
		CurrentBalance Money     `json:"currentBalance" yaml:"balance"`
		CreatedAt      time.Time `json:"createdAt" yaml:"created_at"`
	}

	WalletInput struct {
		Name           string   `json:"name"`
		Currency       Currency `json:"currency"`
		InitialBalance Money    `json:"initialBalance"`
	}
)

func (in WalletInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Invalid("name", ErrMissingField, "Please enter wallet name")
	}
	if !in.Currency.Supported() {
		return Invalid("currency", ErrUnsupportedCurrency, "Please select a supported currency")
	}
	if in.InitialBalance.IsNegative() {
		return Invalid("initialBalance", ErrInvalidAmount, "Initial balance cannot be negative")
	}
	return nil
}

// Formatted renders the current balance in the wallet's currency.
func (w Wallet) Formatted() string {
	return FormatMoney(w.CurrentBalance, w.Currency)
}
