package core

import (
	"strings"
	"time"
)

type (
	Category struct {
		ID        string          `json:"id" yaml:"id"`
		Name      string          `json:"name" yaml:"name"`
		Type      TransactionType `json:"type" yaml:"type"`
		Icon      string          `json:"icon,omitempty" yaml:"icon,omitempty"`
		Color     string          `json:"color,omitempty" yaml:"color,omitempty"`
		IsDefault bool            `json:"isDefault" yaml:"default"`
		CreatedAt time.Time       `json:"createdAt" yaml:"created_at"`
	}

	CategoryInput struct {
		Name  string          `json:"name"`
		Type  TransactionType `json:"type"`
		Icon  string          `json:"icon,omitempty"`
		Color string          `json:"color,omitempty"`
	}
)

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Invalid("name", ErrMissingField, "Please enter category name")
	}
	if len(strings.TrimSpace(in.Name)) > 50 {
		return Invalid("name", ErrTooLong, "Category name must be at most 50 characters")
	}
	if _, ok := ParseTransactionType(string(in.Type)); !ok {
		return Invalid("type", ErrMissingType, "Please select category type")
	}
	return nil
}

// Normalized trims the name and upper-cases the type.
func (in CategoryInput) Normalized() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = TransactionType(strings.ToUpper(strings.TrimSpace(string(in.Type))))
	return in
}
