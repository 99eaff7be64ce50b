// Package reminder turns unpaid debts into notifications on a cron schedule.
//
// Each reminder kind is a Checker. A Registry holds the checkers in the order
// they are tried, so a debt produces at most one reminder per run.
package reminder

import (
	"fmt"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/ui"
)

type Kind string

const (
	KindOverdue  Kind = "overdue"
	KindDueToday Kind = "due-today"
	KindDueSoon  Kind = "due-soon"
)

// Reminder is one notification-worthy fact about a debt.
type Reminder struct {
	Kind     Kind
	Debt     core.Debt
	Days     int
	Severity ui.Severity
	Message  string
}

func (r Reminder) Notification() ui.Notification {
	return ui.Notification{Message: r.Message, Severity: r.Severity}
}

// Checker decides whether a debt deserves a reminder today.
type Checker interface {
	Check(debt core.Debt, today core.Date) (Reminder, bool)
}

// OverdueChecker fires for unpaid debts whose due date has passed.
type OverdueChecker struct{}

func (OverdueChecker) Check(debt core.Debt, today core.Date) (Reminder, bool) {
	if !debt.Overdue(today) {
		return Reminder{}, false
	}
	days := debt.DueDate.DaysUntil(today)
	return Reminder{
		Kind:     KindOverdue,
		Debt:     debt,
		Days:     days,
		Severity: ui.Warning,
		Message:  fmt.Sprintf("%s is overdue by %s (%s)", subject(debt), plural(days, "day"), remaining(debt)),
	}, true
}

// DueTodayChecker fires on the due date itself.
type DueTodayChecker struct{}

func (DueTodayChecker) Check(debt core.Debt, today core.Date) (Reminder, bool) {
	if !unpaidWithDueDate(debt) || !debt.DueDate.Equal(today) {
		return Reminder{}, false
	}
	return Reminder{
		Kind:     KindDueToday,
		Debt:     debt,
		Severity: ui.Info,
		Message:  fmt.Sprintf("%s is due today (%s)", subject(debt), remaining(debt)),
	}, true
}

// DueSoonChecker fires when the due date is exactly one of Days away.
type DueSoonChecker struct {
	Days []int
}

func (c DueSoonChecker) Check(debt core.Debt, today core.Date) (Reminder, bool) {
	if !unpaidWithDueDate(debt) {
		return Reminder{}, false
	}
	days := today.DaysUntil(debt.DueDate)
	if days <= 0 || !slices.Contains(c.Days, days) {
		return Reminder{}, false
	}
	return Reminder{
		Kind:     KindDueSoon,
		Debt:     debt,
		Days:     days,
		Severity: ui.Info,
		Message:  fmt.Sprintf("%s is due in %s (%s)", subject(debt), plural(days, "day"), remaining(debt)),
	}, true
}

func unpaidWithDueDate(d core.Debt) bool {
	return d.Status != core.DebtPaid && !d.DueDate.IsZero()
}

func subject(d core.Debt) string {
	if d.Type == core.DebtReceivable {
		return fmt.Sprintf("Money %s owes you", d.CounterpartyName)
	}
	return fmt.Sprintf("Debt to %s", d.CounterpartyName)
}

func remaining(d core.Debt) string {
	return core.FormatMoney(d.RemainingAmount, core.DefaultCurrency) + " remaining"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Registry maps kinds to checkers and remembers registration order.
type Registry struct {
	kinds    []Kind
	checkers map[Kind]Checker
}

func NewRegistry() *Registry {
	return &Registry{checkers: make(map[Kind]Checker)}
}

// DefaultRegistry tries overdue first, then due today, then due soon.
func DefaultRegistry(daysBefore []int) *Registry {
	r := NewRegistry()
	r.Register(KindOverdue, OverdueChecker{})
	r.Register(KindDueToday, DueTodayChecker{})
	r.Register(KindDueSoon, DueSoonChecker{Days: daysBefore})
	return r
}

// Register adds or replaces the checker for a kind. A replaced checker keeps
// its position.
func (r *Registry) Register(kind Kind, c Checker) {
	if _, ok := r.checkers[kind]; !ok {
		r.kinds = append(r.kinds, kind)
	}
	r.checkers[kind] = c
}

func (r *Registry) Get(kind Kind) (Checker, error) {
	c, ok := r.checkers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reminder kind: %s", kind)
	}
	return c, nil
}

func (r *Registry) Kinds() []Kind {
	return slices.Clone(r.kinds)
}

// Check returns the reminder of the first checker that fires.
func (r *Registry) Check(debt core.Debt, today core.Date) (Reminder, bool) {
	for _, k := range r.kinds {
		if rem, ok := r.checkers[k].Check(debt, today); ok {
			return rem, true
		}
	}
	return Reminder{}, false
}
