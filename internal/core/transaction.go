package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	// TransactionType is shared by transactions and categories.
	TransactionType string

	Transaction struct {
		ID           string          `json:"id" yaml:"id"`
		WalletID     string          `json:"walletId" yaml:"wallet_id"`
		WalletName   string          `json:"walletName,omitempty" yaml:"wallet,omitempty"`
		CategoryID   string          `json:"categoryId" yaml:"category_id"`
		CategoryName string          `json:"categoryName,omitempty" yaml:"category,omitempty"`
		Type         TransactionType `json:"type" yaml:"type"`
		Amount       Money           `json:"amount" yaml:"amount"`
		Date         Date            `json:"date" yaml:"date"`
		Note         string          `json:"note,omitempty" yaml:"note,omitempty"`
		CreatedAt    time.Time       `json:"createdAt" yaml:"created_at"`
	}

	TransactionInput struct {
		WalletID   string          `json:"walletId"`
		CategoryID string          `json:"categoryId"`
		Type       TransactionType `json:"type"`
		Amount     Money           `json:"amount"`
		Date       Date            `json:"date"`
		Note       string          `json:"note,omitempty"`
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts any letter case.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Validate checks the input against the calendar day containing now. A date
// anywhere in today is accepted.
func (in TransactionInput) Validate(now time.Time) error {
	if strings.TrimSpace(in.WalletID) == "" {
		return Invalid("walletId", ErrMissingField, "Please select a wallet")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingField, "Please select a category")
	}
	if !in.Type.Valid() {
		return Invalid("type", ErrMissingType, "Please select transaction type")
	}
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err, "Amount must be greater than 0")
	}
	if err := in.Date.Validate(); err != nil {
		return Invalid("date", err, "Please select a date")
	}
	if in.Date.After(Today(now)) {
		return Invalid("date", ErrFutureDate, "Transaction date cannot be in the future")
	}
	return nil
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
