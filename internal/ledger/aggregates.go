package ledger

import "fintrack/internal/core"

// Summary is the portfolio view over a set of debts. Paid debts do not count
// towards the payable and receivable totals.
type Summary struct {
	TotalPayable    core.Money `json:"totalPayable" yaml:"total_payable"`
	TotalReceivable core.Money `json:"totalReceivable" yaml:"total_receivable"`
	NetPosition     core.Money `json:"netPosition" yaml:"net_position"`
	Open            int        `json:"open" yaml:"open"`
	Partial         int        `json:"partial" yaml:"partial"`
	Paid            int        `json:"paid" yaml:"paid"`
	Overdue         int        `json:"overdue" yaml:"overdue"`
}

func Summarize(debts []core.Debt, today core.Date) Summary {
	s := Summary{
		TotalPayable:    TotalPayable(debts),
		TotalReceivable: TotalReceivable(debts),
	}
	s.NetPosition = s.TotalReceivable.Sub(s.TotalPayable)
	for _, d := range debts {
		switch d.Status {
		case core.DebtOpen:
			s.Open++
		case core.DebtPartial:
			s.Partial++
		case core.DebtPaid:
			s.Paid++
		}
		if d.Overdue(today) {
			s.Overdue++
		}
	}
	return s
}

// TotalPayable sums what the user still owes.
func TotalPayable(debts []core.Debt) core.Money {
	return outstanding(debts, core.DebtPayable)
}

// TotalReceivable sums what is still owed to the user.
func TotalReceivable(debts []core.Debt) core.Money {
	return outstanding(debts, core.DebtReceivable)
}

// NetPosition is receivable minus payable. Positive means the user is owed
// more than they owe.
func NetPosition(debts []core.Debt) core.Money {
	return TotalReceivable(debts).Sub(TotalPayable(debts))
}

func OverdueDebts(debts []core.Debt, today core.Date) []core.Debt {
	return filter(debts, func(d core.Debt) bool { return d.Overdue(today) })
}

// ByStatus keeps the debts in the given status, preserving order.
func ByStatus(debts []core.Debt, status core.DebtStatus) []core.Debt {
	return filter(debts, func(d core.Debt) bool { return d.Status == status })
}

func outstanding(debts []core.Debt, kind core.DebtType) core.Money {
	total := core.Zero()
	for _, d := range debts {
		if d.Type == kind && d.Status != core.DebtPaid {
			total = total.Add(d.RemainingAmount)
		}
	}
	return total
}

func filter(debts []core.Debt, keep func(core.Debt) bool) []core.Debt {
	var out []core.Debt
	for _, d := range debts {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
