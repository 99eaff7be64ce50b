// Package ledger keeps the local mirror of the user's debts and their
// payments on top of a paginated collection.
//
// Remaining amount and status are computed by the backend. The ledger trusts
// whatever debt representation the backend returns after a mutation and only
// recomputes locally when a payment is deleted, until the refetch lands.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/collection"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Transport is the remote side of the ledger.
type Transport interface {
	ListDebts(ctx context.Context, filters core.DebtFilters, page, size int) (core.Page[core.Debt], error)
	GetDebt(ctx context.Context, id string) (core.Debt, error)
	CreateDebt(ctx context.Context, in core.DebtInput) (core.Debt, error)
	UpdateDebt(ctx context.Context, id string, in core.DebtInput) (core.Debt, error)
	DeleteDebt(ctx context.Context, id string) error
	AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error)
	UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error)
	DeletePayment(ctx context.Context, debtID, paymentID string) error
	MarkAsPaid(ctx context.Context, id string) (core.Debt, error)
}

type Option func(*Ledger)

// WithClock replaces time.Now. Today and "now" checks use it.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithPageSize(size int) Option {
	return func(l *Ledger) { l.pageSize = size }
}

type Ledger struct {
	transport Transport
	list      *collection.Controller[core.Debt, core.DebtFilters]
	now       func() time.Time
	logger    *log.Logger
	pageSize  int
	reads     singleflight.Group

	mu       sync.Mutex
	current  *core.Debt
	inflight map[string]struct{}
}

func New(transport Transport, opts ...Option) *Ledger {
	l := &Ledger{
		transport: transport,
		now:       time.Now,
		logger:    log.Discard(),
		pageSize:  core.DefaultPageSize,
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithComponent(log.ComponentLedger)
	l.list = collection.New[core.Debt, core.DebtFilters](transport.ListDebts, core.DebtFilters{},
		collection.WithPageSize(l.pageSize),
		collection.WithName("debt"),
		collection.WithLogger(l.logger))
	return l
}

// Collection exposes the paginated list for fetch, load more and filters.
func (l *Ledger) Collection() *collection.Controller[core.Debt, core.DebtFilters] {
	return l.list
}

func (l *Ledger) Fetch(ctx context.Context, opts ...collection.FetchOption) error {
	return l.list.Fetch(ctx, opts...)
}

func (l *Ledger) LoadMore(ctx context.Context) error {
	return l.list.LoadMore(ctx)
}

func (l *Ledger) SetFilters(mutate func(*core.DebtFilters)) {
	l.list.SetFilters(mutate)
}

func (l *Ledger) ResetFilters() {
	l.list.ResetFilters()
}

// Debts returns the loaded debts in server order.
func (l *Ledger) Debts() []core.Debt {
	return l.list.Items()
}

func (l *Ledger) HasDebts() bool {
	return l.list.HasItems()
}

// Current returns the debt last opened with Get.
func (l *Ledger) Current() (core.Debt, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return core.Debt{}, false
	}
	return *l.current, true
}

func (l *Ledger) ClearCurrent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = nil
}

// Get loads one debt and makes it the current debt. Concurrent reads of the
// same id share a single request. The shared request is not tied to any one
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (l *Ledger) Get(ctx context.Context, id string) (core.Debt, error) {
	shared := context.WithoutCancel(ctx)
	ch := l.reads.DoChan(id, func() (any, error) {
		return l.transport.GetDebt(shared, id)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return core.Debt{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return core.Debt{}, fmt.Errorf("get debt %s: %w", id, res.Err)
	}
	if err := ctx.Err(); err != nil {
		return core.Debt{}, err
	}
	debt := res.Val.(core.Debt)
	l.mu.Lock()
	l.current = &debt
	l.mu.Unlock()
	l.list.Replace(byID(id), debt)
	return debt, nil
}

// Create validates the input, creates the debt remotely and prepends it to
// the list.
func (l *Ledger) Create(ctx context.Context, in core.DebtInput) (core.Debt, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return core.Debt{}, err
	}
	if err := in.ValidateDueDate(l.today()); err != nil {
		return core.Debt{}, err
	}

	done := l.list.Track()
	defer done()

	debt, err := l.transport.CreateDebt(ctx, in)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return core.Debt{}, err
	}
	l.list.Prepend(debt)
	l.logger.InfoContext(ctx, "Debt created", log.FieldDebtID, debt.ID, log.FieldAmount, debt.TotalAmount.String())
	return debt, nil
}

// Update validates the input and replaces the local copy with the backend's
// answer. A due date in the past is only rejected when the caller changed it.
func (l *Ledger) Update(ctx context.Context, id string, in core.DebtInput) (core.Debt, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return core.Debt{}, err
	}
	if known, ok := l.lookup(id); !ok || !known.DueDate.Equal(in.DueDate) {
		if err := in.ValidateDueDate(l.today()); err != nil {
			return core.Debt{}, err
		}
	}

	release, err := l.acquire(id)
	if err != nil {
		return core.Debt{}, err
	}
	defer release()

	debt, err := l.transport.UpdateDebt(ctx, id, in)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Debt{}, err
	}
	l.store(debt)
	return debt, nil
}

// Delete removes the debt remotely and from the list.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	release, err := l.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	if err := l.transport.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.list.Remove(byID(id))
	l.mu.Lock()
	if l.current != nil && l.current.ID == id {
		l.current = nil
	}
	l.mu.Unlock()
	l.logger.InfoContext(ctx, "Debt deleted", log.FieldDebtID, id)
	return nil
}

// AddPayment records a payment. The amount is checked against the remaining
// amount of the local copy; when the debt is not loaded it is fetched first.
func (l *Ledger) AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error) {
	if err := in.Validate(l.now()); err != nil {
		return core.PaymentResult{}, err
	}

	release, err := l.acquire(debtID)
	if err != nil {
		return core.PaymentResult{}, err
	}
	defer release()

	debt, ok := l.lookup(debtID)
	if !ok {
		if debt, err = l.transport.GetDebt(ctx, debtID); err != nil {
			return core.PaymentResult{}, fmt.Errorf("get debt %s: %w", debtID, err)
		}
	}
	if err := in.CheckAgainst(debt.RemainingAmount); err != nil {
		return core.PaymentResult{}, err
	}

	result, err := l.transport.AddPayment(ctx, debtID, in)
	if err != nil {
		return core.PaymentResult{}, fmt.Errorf("add payment to debt %s: %w", debtID, err)
	}
	if result.UpdatedDebt.ID == "" {
		if result.UpdatedDebt, err = l.transport.GetDebt(ctx, debtID); err != nil {
			return core.PaymentResult{}, fmt.Errorf("refresh debt %s: %w", debtID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return core.PaymentResult{}, err
	}
	l.store(result.UpdatedDebt)
	l.logger.InfoContext(ctx, "Payment added",
		log.FieldDebtID, debtID,
		log.FieldPaymentID, result.Payment.ID,
		log.FieldAmount, in.Amount.String(),
		log.FieldStatus, string(result.UpdatedDebt.Status))
	return result, nil
}

// UpdatePayment edits a payment. Lowering an amount is always accepted. A new
// amount may not exceed the remaining amount plus the payment's old amount
// when the old payment is known locally; otherwise the backend decides.
func (l *Ledger) UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error) {
	if err := in.Validate(l.now()); err != nil {
		return core.Debt{}, err
	}
	if debt, ok := l.lookup(debtID); ok {
		if old, ok := debt.FindPayment(paymentID); ok && in.Amount.GreaterThan(old.Amount) {
			if err := in.CheckAgainst(debt.RemainingAmount.Add(old.Amount)); err != nil {
				return core.Debt{}, err
			}
		}
	}

	release, err := l.acquire(debtID)
	if err != nil {
		return core.Debt{}, err
	}
	defer release()

	debt, err := l.transport.UpdatePayment(ctx, debtID, paymentID, in)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update payment %s: %w", paymentID, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Debt{}, err
	}
	l.store(debt)
	return debt, nil
}

// DeletePayment removes a payment. The local copy is recomputed right away
// and then replaced by a fresh read from the backend. A failed refresh is
// logged and leaves the recomputed copy in place.
func (l *Ledger) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	release, err := l.acquire(debtID)
	if err != nil {
		return err
	}
	defer release()

	if err := l.transport.DeletePayment(ctx, debtID, paymentID); err != nil {
		return fmt.Errorf("delete payment %s: %w", paymentID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if debt, ok := l.lookup(debtID); ok {
		if recomputed, changed := debt.WithoutPayment(paymentID); changed {
			l.store(recomputed)
		}
	}

	fresh, err := l.transport.GetDebt(ctx, debtID)
	if err != nil {
		l.logger.WarnContext(ctx, "Debt refresh after payment delete failed",
			log.FieldDebtID, debtID, log.FieldPaymentID, paymentID, log.FieldError, err)
		return nil
	}
	if ctx.Err() == nil {
		l.store(fresh)
	}
	return nil
}

// MarkAsPaid settles the debt. An already paid local copy short-circuits with
// core.ErrAlreadyPaid and no remote call.
func (l *Ledger) MarkAsPaid(ctx context.Context, id string) (core.Debt, error) {
	if debt, ok := l.lookup(id); ok && debt.Status == core.DebtPaid {
		return debt, core.ErrAlreadyPaid
	}

	release, err := l.acquire(id)
	if err != nil {
		return core.Debt{}, err
	}
	defer release()

	debt, err := l.transport.MarkAsPaid(ctx, id)
	if err != nil {
		return core.Debt{}, fmt.Errorf("mark debt %s as paid: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return core.Debt{}, err
	}
	debt = debt.Settled()
	l.store(debt)
	l.logger.InfoContext(ctx, "Debt marked as paid", log.FieldDebtID, id)
	return debt, nil
}

// Summary aggregates the loaded debts as of today.
func (l *Ledger) Summary() Summary {
	return Summarize(l.list.Items(), l.today())
}

// Overdue lists the loaded debts that are past due and unpaid.
func (l *Ledger) Overdue() []core.Debt {
	return OverdueDebts(l.list.Items(), l.today())
}

func (l *Ledger) today() core.Date {
	return core.Today(l.now())
}

// lookup finds the freshest local copy: the current debt first, then the list.
func (l *Ledger) lookup(id string) (core.Debt, bool) {
	l.mu.Lock()
	if l.current != nil && l.current.ID == id {
		d := *l.current
		l.mu.Unlock()
		return d, true
	}
	l.mu.Unlock()
	return l.list.Find(byID(id))
}

// store replaces the debt in the list and in the current reference.
func (l *Ledger) store(debt core.Debt) {
	l.list.Replace(byID(debt.ID), debt)
	l.mu.Lock()
	if l.current != nil && l.current.ID == debt.ID {
		d := debt
		l.current = &d
	}
	l.mu.Unlock()
}

// acquire allows one mutation per debt at a time.
func (l *Ledger) acquire(id string) (func(), error) {
	l.mu.Lock()
	if _, busy := l.inflight[id]; busy {
		l.mu.Unlock()
		return nil, core.ErrOperationInFlight
	}
	l.inflight[id] = struct{}{}
	l.mu.Unlock()

	done := l.list.Track()
	return func() {
		l.mu.Lock()
		delete(l.inflight, id)
		l.mu.Unlock()
		done()
	}, nil
}

func byID(id string) func(core.Debt) bool {
	return func(d core.Debt) bool { return d.ID == id }
}
