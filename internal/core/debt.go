package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DebtPayable    DebtType = "PAYABLE"
	DebtReceivable DebtType = "RECEIVABLE"

	DebtOpen    DebtStatus = "OPEN"
	DebtPartial DebtStatus = "PARTIAL"
	DebtPaid    DebtStatus = "PAID"

	MaxDebtNoteLength    = 500
	MaxPaymentNoteLength = 200
)

type (
	// DebtType tells who owes whom. PAYABLE is owed by the user.
	DebtType string

	DebtStatus string

	// Debt is a balance owed between the user and a counterparty.
	// RemainingAmount and Status are computed by the backend.
	Debt struct {
		ID               string     `json:"id" yaml:"id"`
		Type             DebtType   `json:"type" yaml:"type"`
		CounterpartyName string     `json:"counterpartyName" yaml:"counterparty"`
		TotalAmount      Money      `json:"totalAmount" yaml:"total"`
		RemainingAmount  Money      `json:"remainingAmount" yaml:"remaining"`
		DueDate          Date       `json:"dueDate" yaml:"due"`
		Note             string     `json:"note,omitempty" yaml:"note,omitempty"`
		Status           DebtStatus `json:"status" yaml:"status"`
		Payments         []Payment  `json:"payments,omitempty" yaml:"payments,omitempty"`
		CreatedAt        time.Time  `json:"createdAt" yaml:"created_at"`
		UpdatedAt        time.Time  `json:"updatedAt" yaml:"updated_at"`
	}

	// Payment is a partial settlement of a Debt. It has no life of its own.
	Payment struct {
		ID     string    `json:"id" yaml:"id"`
		Amount Money     `json:"amount" yaml:"amount"`
		PaidAt time.Time `json:"paidAt" yaml:"paid_at"`
		Note   string    `json:"note,omitempty" yaml:"note,omitempty"`
	}

	// DebtInput is the payload of debt create and update calls.
	DebtInput struct {
		Type             DebtType `json:"type"`
		CounterpartyName string   `json:"counterpartyName"`
		TotalAmount      Money    `json:"totalAmount"`
		DueDate          Date     `json:"dueDate"`
		Note             string   `json:"note,omitempty"`
	}

	// PaymentInput is the payload of payment create and update calls.
	PaymentInput struct {
		Amount Money     `json:"amount"`
		PaidAt time.Time `json:"paidAt"`
		Note   string    `json:"note,omitempty"`
	}

	// PaymentResult is what the backend returns when a payment is added.
	PaymentResult struct {
		Payment     Payment `json:"payment"`
		UpdatedDebt Debt    `json:"updatedDebt"`
	}
)

func (t DebtType) Valid() bool {
	return t == DebtPayable || t == DebtReceivable
}

func (s DebtStatus) Valid() bool {
	return s == DebtOpen || s == DebtPartial || s == DebtPaid
}

// StatusFor derives the lifecycle status from the amounts.
func StatusFor(total, remaining Money) DebtStatus {
	switch {
	case !remaining.IsPositive():
		return DebtPaid
	case remaining.Cmp(total) >= 0:
		return DebtOpen
	default:
		return DebtPartial
	}
}

// Overdue reports whether the debt is unpaid and its due day is before today.
func (d Debt) Overdue(today Date) bool {
	return d.Status != DebtPaid && !d.DueDate.IsZero() && d.DueDate.Before(today)
}

// PaidAmount is the part of the total already settled.
func (d Debt) PaidAmount() Money {
	return d.TotalAmount.Sub(d.RemainingAmount)
}

// Progress returns the settled fraction in [0, 1].
func (d Debt) Progress() float64 {
	return d.PaidAmount().Ratio(d.TotalAmount)
}

// FindPayment looks up a payment by id.
func (d Debt) FindPayment(id string) (Payment, bool) {
	for _, p := range d.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return Payment{}, false
}

// WithoutPayment returns a copy of d with the payment removed and the
// remaining amount and status recomputed. The second result is false when the
// payment is unknown, in which case d is returned unchanged.
func (d Debt) WithoutPayment(paymentID string) (Debt, bool) {
	p, ok := d.FindPayment(paymentID)
	if !ok {
		return d, false
	}
	out := d
	out.Payments = make([]Payment, 0, len(d.Payments)-1)
	for _, q := range d.Payments {
		if q.ID != paymentID {
			out.Payments = append(out.Payments, q)
		}
	}
	out.RemainingAmount = d.RemainingAmount.Add(p.Amount).Min(d.TotalAmount)
	out.Status = StatusFor(out.TotalAmount, out.RemainingAmount)
	return out, true
}

// Settled returns a copy of d with nothing left to pay.
func (d Debt) Settled() Debt {
	d.RemainingAmount = Zero()
	d.Status = DebtPaid
	return d
}

// Consistent reports whether remaining amount and status agree with each other
// and with the total.
func (d Debt) Consistent() bool {
	if d.RemainingAmount.IsNegative() || d.RemainingAmount.GreaterThan(d.TotalAmount) {
		return false
	}
	return d.Status == StatusFor(d.TotalAmount, d.RemainingAmount)
}

// Normalized trims user typed text.
func (in DebtInput) Normalized() DebtInput {
	in.CounterpartyName = strings.TrimSpace(in.CounterpartyName)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

// Validate checks field presence and amount positivity.
func (in DebtInput) Validate() error {
	if !in.Type.Valid() {
		return Invalid("type", ErrMissingType, "Please select debt type")
	}
	if strings.TrimSpace(in.CounterpartyName) == "" {
		return Invalid("counterpartyName", ErrMissingField, "Please enter counterparty name")
	}
	if err := in.TotalAmount.Validate(); err != nil {
		return Invalid("totalAmount", err, "Amount must be greater than 0")
	}
	if err := in.DueDate.Validate(); err != nil {
		return Invalid("dueDate", err, "Please select a due date")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Note)) > MaxDebtNoteLength {
		return Invalid("note", ErrTooLong, "Note must be at most 500 characters")
	}
	return nil
}

// ValidateDueDate rejects due dates before today.
func (in DebtInput) ValidateDueDate(today Date) error {
	if in.DueDate.Before(today) {
		return Invalid("dueDate", ErrDueDateInPast, "Due date cannot be in the past")
	}
	return nil
}

// Validate checks the amount and the payment instant against now.
func (in PaymentInput) Validate(now time.Time) error {
	if err := in.Amount.Validate(); err != nil {
		return Invalid("amount", err, "Payment amount must be greater than 0")
	}
	if in.PaidAt.IsZero() {
		return Invalid("paidAt", ErrMissingDate, "Please select payment date")
	}
	if in.PaidAt.After(now) {
		return Invalid("paidAt", ErrFutureDate, "Payment date cannot be in the future")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Note)) > MaxPaymentNoteLength {
		return Invalid("note", ErrTooLong, "Note must be at most 200 characters")
	}
	return nil
}

// CheckAgainst rejects an amount larger than what is still owed.
func (in PaymentInput) CheckAgainst(remaining Money) error {
	if in.Amount.GreaterThan(remaining) {
		return Invalid("amount", ErrExceedsRemaining,
			"Payment amount cannot exceed remaining amount ("+remaining.String()+")")
	}
	return nil
}
