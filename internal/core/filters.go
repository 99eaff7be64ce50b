package core

// Filter structs describe list queries. A zero field means "no filter".

type DebtFilters struct {
	Type   DebtType   `json:"type,omitempty"`
	Status DebtStatus `json:"status,omitempty"`
	// Overdue is tri-state: nil leaves it out of the query.
	Overdue *bool `json:"overdue,omitempty"`
}

type TransactionFilters struct {
	WalletID   string          `json:"walletId,omitempty"`
	CategoryID string          `json:"categoryId,omitempty"`
	Type       TransactionType `json:"type,omitempty"`
	DateFrom   Date            `json:"dateFrom,omitempty"`
	DateTo     Date            `json:"dateTo,omitempty"`
}

type ReportFilters struct {
	StartDate   Date            `json:"startDate,omitempty"`
	EndDate     Date            `json:"endDate,omitempty"`
	WalletIDs   []string        `json:"walletIds,omitempty"`
	CategoryIDs []string        `json:"categoryIds,omitempty"`
	Type        TransactionType `json:"type,omitempty"`
	Granularity Granularity     `json:"granularity,omitempty"`
}

// DefaultReportFilters has no restriction and daily granularity.
func DefaultReportFilters() ReportFilters {
	return ReportFilters{Granularity: Daily}
}

// ActiveCount counts the user-set restrictions. Granularity is a display
// choice and is not counted.
func (f ReportFilters) ActiveCount() int {
	n := 0
	if !f.StartDate.IsZero() {
		n++
	}
	if !f.EndDate.IsZero() {
		n++
	}
	if len(f.WalletIDs) > 0 {
		n++
	}
	if len(f.CategoryIDs) > 0 {
		n++
	}
	if f.Type != "" {
		n++
	}
	return n
}

// ValidateRange rejects a window that ends before it starts.
func (f ReportFilters) ValidateRange() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.StartDate.After(f.EndDate) {
		return Invalid("startDate", ErrInvalidDateRange, "Start date must be before end date")
	}
	return nil
}

// Key renders a stable cache key for the filter set.
func (f ReportFilters) Key() string {
	key := f.StartDate.String() + "|" + f.EndDate.String() + "|" + string(f.Type) + "|" + string(f.Granularity)
	for _, id := range f.WalletIDs {
		key += "|w:" + id
	}
	for _, id := range f.CategoryIDs {
		key += "|c:" + id
	}
	return key
}

// Clone deep-copies the id slices so a stored filter set cannot be changed
// through an alias.
func (f ReportFilters) Clone() ReportFilters {
	f.WalletIDs = append([]string(nil), f.WalletIDs...)
	f.CategoryIDs = append([]string(nil), f.CategoryIDs...)
	return f
}
