package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
)

var fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

// fakeBackend behaves like the real API: it owns remaining amount and status.
type fakeBackend struct {
	mu       sync.Mutex
	debts    map[string]core.Debt
	order    []string
	seq      int
	calls    map[string]int
	failGet  bool
	failNext error
	block    chan struct{}
	entered  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{debts: map[string]core.Debt{}, calls: map[string]int{}}
}

func (f *fakeBackend) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.failNext
	f.failNext = nil
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) ListDebts(ctx context.Context, filters core.DebtFilters, page, size int) (core.Page[core.Debt], error) {
	if err := f.enter("list"); err != nil {
		return core.Page[core.Debt]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Debt
	for i := len(f.order) - 1; i >= 0; i-- {
		d := f.debts[f.order[i]]
		if filters.Type != "" && d.Type != filters.Type {
			continue
		}
		out = append(out, d)
	}
	return core.NewPage(out, page, size, int64(len(out))), nil
}

func (f *fakeBackend) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	if err := f.enter("get"); err != nil {
		return core.Debt{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return core.Debt{}, errors.New("backend unavailable")
	}
	d, ok := f.debts[id]
	if !ok {
		return core.Debt{}, core.ErrNotFound
	}
	return d, nil
}

func (f *fakeBackend) CreateDebt(ctx context.Context, in core.DebtInput) (core.Debt, error) {
	if err := f.enter("create"); err != nil {
		return core.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	d := core.Debt{
		ID:               fmt.Sprintf("d%d", f.seq),
		Type:             in.Type,
		CounterpartyName: in.CounterpartyName,
		TotalAmount:      in.TotalAmount,
		RemainingAmount:  in.TotalAmount,
		DueDate:          in.DueDate,
		Note:             in.Note,
		Status:           core.DebtOpen,
	}
	f.debts[d.ID] = d
	f.order = append(f.order, d.ID)
	return d, nil
}

func (f *fakeBackend) UpdateDebt(ctx context.Context, id string, in core.DebtInput) (core.Debt, error) {
	if err := f.enter("update"); err != nil {
		return core.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.debts[id]
	d.CounterpartyName, d.DueDate, d.Note = in.CounterpartyName, in.DueDate, in.Note
	f.debts[id] = d
	return d, nil
}

func (f *fakeBackend) DeleteDebt(ctx context.Context, id string) error {
	if err := f.enter("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.debts, id)
	return nil
}

func (f *fakeBackend) AddPayment(ctx context.Context, debtID string, in core.PaymentInput) (core.PaymentResult, error) {
	if err := f.enter("addPayment"); err != nil {
		return core.PaymentResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.debts[debtID]
	d.Payments = append([]core.Payment(nil), d.Payments...)
	f.seq++
	p := core.Payment{ID: fmt.Sprintf("p%d", f.seq), Amount: in.Amount, PaidAt: in.PaidAt}
	d.Payments = append(d.Payments, p)
	d.RemainingAmount = d.RemainingAmount.Sub(in.Amount)
	d.Status = core.StatusFor(d.TotalAmount, d.RemainingAmount)
	f.debts[debtID] = d
	return core.PaymentResult{Payment: p, UpdatedDebt: d}, nil
}

func (f *fakeBackend) UpdatePayment(ctx context.Context, debtID, paymentID string, in core.PaymentInput) (core.Debt, error) {
	if err := f.enter("updatePayment"); err != nil {
		return core.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.debts[debtID]
	d.Payments = append([]core.Payment(nil), d.Payments...)
	paid := core.Zero()
	for i, p := range d.Payments {
		if p.ID == paymentID {
			d.Payments[i].Amount = in.Amount
		}
		paid = paid.Add(d.Payments[i].Amount)
	}
	d.RemainingAmount = d.TotalAmount.Sub(paid)
	d.Status = core.StatusFor(d.TotalAmount, d.RemainingAmount)
	f.debts[debtID] = d
	return d, nil
}

func (f *fakeBackend) DeletePayment(ctx context.Context, debtID, paymentID string) error {
	if err := f.enter("deletePayment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, _ := f.debts[debtID].WithoutPayment(paymentID)
	f.debts[debtID] = d
	return nil
}

func (f *fakeBackend) MarkAsPaid(ctx context.Context, id string) (core.Debt, error) {
	if err := f.enter("markPaid"); err != nil {
		return core.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.debts[id]
	d.RemainingAmount = core.Zero()
	d.Status = core.DebtPaid
	f.debts[id] = d
	return d, nil
}

func newTestLedger(b *fakeBackend) *Ledger {
	return New(b, WithClock(func() time.Time { return fixedNow }))
}

func money(s string) core.Money { return core.MustParseMoney(s) }

func tomorrow() core.Date { return core.Today(fixedNow).AddDays(1) }

func debtInput(amount string) core.DebtInput {
	return core.DebtInput{
		Type:             core.DebtPayable,
		CounterpartyName: "Budi",
		TotalAmount:      money(amount),
		DueDate:          tomorrow(),
	}
}

func payment(amount string) core.PaymentInput {
	return core.PaymentInput{Amount: money(amount), PaidAt: fixedNow.Add(-time.Hour)}
}

func assertConsistent(t *testing.T, l *Ledger) {
	t.Helper()
	for _, d := range l.Debts() {
		if !d.Consistent() {
			t.Errorf("debt %s inconsistent: remaining=%s total=%s status=%s",
				d.ID, d.RemainingAmount, d.TotalAmount, d.Status)
		}
	}
}

func TestLedger_PaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)

	debt, err := l.Create(ctx, debtInput("1000"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if debt.Status != core.DebtOpen || !debt.RemainingAmount.Equal(money("1000")) {
		t.Fatalf("created debt = %s %s", debt.Status, debt.RemainingAmount)
	}

	steps := []struct {
		amount        string
		wantErr       error
		wantRemaining string
		wantStatus    core.DebtStatus
	}{
		{"400", nil, "600", core.DebtPartial},
		{"700", core.ErrExceedsRemaining, "600", core.DebtPartial},
		{"600", nil, "0", core.DebtPaid},
	}
	for _, s := range steps {
		t.Run("pay "+s.amount, func(t *testing.T) {
			before := b.count("addPayment")
			_, err := l.AddPayment(ctx, debt.ID, payment(s.amount))
			if !errors.Is(err, s.wantErr) {
				t.Fatalf("AddPayment err = %v, want %v", err, s.wantErr)
			}
			if s.wantErr != nil {
				if !core.IsValidation(err) {
					t.Errorf("rejection should be a validation error, got %T", err)
				}
				if b.count("addPayment") != before {
					t.Error("rejected payment reached the backend")
				}
			}
			got, _ := l.Collection().Find(byID(debt.ID))
			if !got.RemainingAmount.Equal(money(s.wantRemaining)) || got.Status != s.wantStatus {
				t.Errorf("debt = %s %s, want %s %s", got.RemainingAmount, got.Status, s.wantRemaining, s.wantStatus)
			}
			assertConsistent(t, l)
		})
	}
}

func TestLedger_AddPaymentRejectsFutureDate(t *testing.T) {
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, err := l.Create(context.Background(), debtInput("100"))
	if err != nil {
		t.Fatal(err)
	}

	in := core.PaymentInput{Amount: money("10"), PaidAt: fixedNow.Add(time.Hour)}
	_, err = l.AddPayment(context.Background(), debt.ID, in)

	if !errors.Is(err, core.ErrFutureDate) {
		t.Fatalf("err = %v, want ErrFutureDate", err)
	}
	if b.count("addPayment") != 0 || b.count("get") != 0 {
		t.Error("future payment reached the backend")
	}
}

func TestLedger_AddPaymentFetchesUnknownDebt(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	seed := newTestLedger(b)
	debt, err := seed.Create(ctx, debtInput("100"))
	if err != nil {
		t.Fatal(err)
	}

	l := newTestLedger(b)
	if _, err := l.AddPayment(ctx, debt.ID, payment("150")); !errors.Is(err, core.ErrExceedsRemaining) {
		t.Fatalf("err = %v, want ErrExceedsRemaining", err)
	}
	if b.count("get") != 1 {
		t.Errorf("get calls = %d, want 1", b.count("get"))
	}
}

func TestLedger_CreateValidation(t *testing.T) {
	yesterday := core.Today(fixedNow).AddDays(-1)
	tests := []struct {
		name    string
		mutate  func(*core.DebtInput)
		wantErr error
		wantMsg string
	}{
		{"missing type", func(in *core.DebtInput) { in.Type = "" }, core.ErrMissingType, "Please select debt type"},
		{"blank counterparty", func(in *core.DebtInput) { in.CounterpartyName = "  " }, core.ErrMissingField, "Please enter counterparty name"},
		{"zero amount", func(in *core.DebtInput) { in.TotalAmount = core.Zero() }, core.ErrInvalidAmount, "Amount must be greater than 0"},
		{"missing due date", func(in *core.DebtInput) { in.DueDate = core.Date{} }, core.ErrMissingDate, "Please select a due date"},
		{"past due date", func(in *core.DebtInput) { in.DueDate = yesterday }, core.ErrDueDateInPast, "Due date cannot be in the past"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			l := newTestLedger(b)
			in := debtInput("100")
			tt.mutate(&in)

			_, err := l.Create(context.Background(), in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if b.count("create") != 0 {
				t.Error("invalid debt reached the backend")
			}
		})
	}
}

func TestLedger_CreateDueTodayAccepted(t *testing.T) {
	l := newTestLedger(newFakeBackend())
	in := debtInput("10")
	in.DueDate = core.Today(fixedNow)
	if _, err := l.Create(context.Background(), in); err != nil {
		t.Fatalf("due today rejected: %v", err)
	}
}

func TestLedger_CreatePrependsAndCounts(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	if _, err := l.Create(ctx, debtInput("10")); err != nil {
		t.Fatal(err)
	}
	if err := l.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	second, err := l.Create(ctx, debtInput("20"))
	if err != nil {
		t.Fatal(err)
	}

	debts := l.Debts()
	if len(debts) != 2 || debts[0].ID != second.ID {
		t.Errorf("debts = %v, want new debt first", debts)
	}
	if l.Collection().Pagination().TotalElements != 2 {
		t.Errorf("TotalElements = %d", l.Collection().Pagination().TotalElements)
	}
}

func TestLedger_UpdateKeepsPastDueDateWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	past := core.Today(fixedNow).AddDays(-10)
	b.debts["old"] = core.Debt{ID: "old", Type: core.DebtReceivable, CounterpartyName: "Sari",
		TotalAmount: money("50"), RemainingAmount: money("50"), DueDate: past, Status: core.DebtOpen}
	b.order = []string{"old"}

	l := newTestLedger(b)
	if _, err := l.Get(ctx, "old"); err != nil {
		t.Fatal(err)
	}

	in := core.DebtInput{Type: core.DebtReceivable, CounterpartyName: "Sari Dewi", TotalAmount: money("50"), DueDate: past}
	updated, err := l.Update(ctx, "old", in)
	if err != nil {
		t.Fatalf("Update with unchanged past due date: %v", err)
	}
	if cur, _ := l.Current(); cur.CounterpartyName != "Sari Dewi" || updated.CounterpartyName != "Sari Dewi" {
		t.Errorf("current debt not refreshed: %+v", cur)
	}

	in.DueDate = past.AddDays(1)
	if _, err := l.Update(ctx, "old", in); !errors.Is(err, core.ErrDueDateInPast) {
		t.Errorf("moving due date into the past: err = %v", err)
	}
}

func TestLedger_Delete(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, _ := l.Create(ctx, debtInput("10"))
	if _, err := l.Get(ctx, debt.ID); err != nil {
		t.Fatal(err)
	}

	if err := l.Delete(ctx, debt.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if l.HasDebts() {
		t.Error("debt still listed")
	}
	if _, ok := l.Current(); ok {
		t.Error("current debt not cleared")
	}
	if l.Collection().Pagination().TotalElements != 0 {
		t.Errorf("TotalElements = %d", l.Collection().Pagination().TotalElements)
	}
}

func TestLedger_MarkAsPaid(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, _ := l.Create(ctx, debtInput("300"))

	paid, err := l.MarkAsPaid(ctx, debt.ID)
	if err != nil {
		t.Fatalf("MarkAsPaid: %v", err)
	}
	if paid.Status != core.DebtPaid || !paid.RemainingAmount.IsZero() {
		t.Errorf("paid = %s %s", paid.Status, paid.RemainingAmount)
	}

	_, err = l.MarkAsPaid(ctx, debt.ID)
	if !errors.Is(err, core.ErrAlreadyPaid) {
		t.Fatalf("second MarkAsPaid err = %v, want ErrAlreadyPaid", err)
	}
	if b.count("markPaid") != 1 {
		t.Errorf("markPaid calls = %d, want 1", b.count("markPaid"))
	}
	assertConsistent(t, l)
}

func TestLedger_UpdatePaymentLimits(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, _ := l.Create(ctx, debtInput("1000"))
	res, err := l.AddPayment(ctx, debt.ID, payment("400"))
	if err != nil {
		t.Fatal(err)
	}
	pid := res.Payment.ID

	tests := []struct {
		name          string
		amount        string
		wantErr       error
		wantRemaining string
	}{
		{"raise within remaining", "1000", nil, "0"},
		{"lower", "100", nil, "900"},
		{"raise beyond remaining", "1001", core.ErrExceedsRemaining, "900"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.UpdatePayment(ctx, debt.ID, pid, payment(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			got, _ := l.Collection().Find(byID(debt.ID))
			if !got.RemainingAmount.Equal(money(tt.wantRemaining)) {
				t.Errorf("remaining = %s, want %s", got.RemainingAmount, tt.wantRemaining)
			}
			assertConsistent(t, l)
		})
	}
}

func TestLedger_DeletePaymentRecomputesWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, _ := l.Create(ctx, debtInput("1000"))
	res, _ := l.AddPayment(ctx, debt.ID, payment("1000"))

	b.mu.Lock()
	b.failGet = true
	b.mu.Unlock()

	if err := l.DeletePayment(ctx, debt.ID, res.Payment.ID); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}
	got, _ := l.Collection().Find(byID(debt.ID))
	if got.Status != core.DebtOpen || !got.RemainingAmount.Equal(money("1000")) || len(got.Payments) != 0 {
		t.Errorf("local copy = %s %s payments=%d", got.Status, got.RemainingAmount, len(got.Payments))
	}
	if b.count("get") != 1 {
		t.Errorf("refresh attempts = %d, want 1", b.count("get"))
	}
}

func TestLedger_RemoteErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, _ := l.Create(ctx, debtInput("500"))

	conflict := errors.New("conflict")
	b.failNext = conflict
	if _, err := l.AddPayment(ctx, debt.ID, payment("100")); !errors.Is(err, conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	got, _ := l.Collection().Find(byID(debt.ID))
	if !got.RemainingAmount.Equal(money("500")) {
		t.Errorf("remaining = %s, want 500", got.RemainingAmount)
	}
	if l.Collection().Loading() {
		t.Error("still loading after failure")
	}
}

func TestLedger_OneMutationPerDebt(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	l := newTestLedger(b)
	debt, _ := l.Create(ctx, debtInput("1000"))

	b.mu.Lock()
	b.block = make(chan struct{})
	b.entered = make(chan struct{}, 1)
	b.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := l.AddPayment(ctx, debt.ID, payment("600"))
		errc <- err
	}()
	<-b.entered

	if _, err := l.AddPayment(ctx, debt.ID, payment("600")); !errors.Is(err, core.ErrOperationInFlight) {
		t.Errorf("concurrent AddPayment err = %v, want ErrOperationInFlight", err)
	}
	if !l.Collection().Loading() {
		t.Error("Loading = false while a mutation is running")
	}

	b.mu.Lock()
	b.entered = nil
	close(b.block)
	b.block = nil
	b.mu.Unlock()

	if err := <-errc; err != nil {
		t.Fatalf("first AddPayment: %v", err)
	}
	got, _ := l.Collection().Find(byID(debt.ID))
	if !got.RemainingAmount.Equal(money("400")) {
		t.Errorf("remaining = %s, want 400", got.RemainingAmount)
	}
}

func TestLedger_SummaryOverLoadedDebts(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	today := core.Today(fixedNow)
	b.debts = map[string]core.Debt{
		"a": {ID: "a", Type: core.DebtPayable, TotalAmount: money("100"), RemainingAmount: money("60"), Status: core.DebtPartial, DueDate: today.AddDays(-1)},
		"b": {ID: "b", Type: core.DebtReceivable, TotalAmount: money("250"), RemainingAmount: money("250"), Status: core.DebtOpen, DueDate: today.AddDays(5)},
		"c": {ID: "c", Type: core.DebtPayable, TotalAmount: money("80"), RemainingAmount: core.Zero(), Status: core.DebtPaid, DueDate: today.AddDays(-30)},
	}
	b.order = []string{"a", "b", "c"}
	l := newTestLedger(b)
	if err := l.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	s := l.Summary()
	if !s.TotalPayable.Equal(money("60")) || !s.TotalReceivable.Equal(money("250")) || !s.NetPosition.Equal(money("190")) {
		t.Errorf("totals = %s / %s / %s", s.TotalPayable, s.TotalReceivable, s.NetPosition)
	}
	if s.Open != 1 || s.Partial != 1 || s.Paid != 1 || s.Overdue != 1 {
		t.Errorf("counts = %+v", s)
	}
	if od := l.Overdue(); len(od) != 1 || od[0].ID != "a" {
		t.Errorf("Overdue = %v", od)
	}
}

func TestLedger_GetSurvivesOtherCallerCancel(t *testing.T) {
	b := newFakeBackend()
	b.debts["d1"] = core.Debt{ID: "d1", Type: core.DebtPayable, CounterpartyName: "Sari",
		TotalAmount: money("100"), RemainingAmount: money("100"), Status: core.DebtOpen, DueDate: tomorrow()}
	b.block = make(chan struct{})
	b.entered = make(chan struct{}, 1)
	l := newTestLedger(b)

	type result struct {
		debt core.Debt
		err  error
	}
	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	resA := make(chan result, 1)
	go func() {
		d, err := l.Get(ctxA, "d1")
		resA <- result{d, err}
	}()
	<-b.entered

	resB := make(chan result, 1)
	go func() {
		d, err := l.Get(context.Background(), "d1")
		resB <- result{d, err}
	}()

	cancelA()
	if r := <-resA; !errors.Is(r.err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", r.err)
	}
	close(b.block)

	r := <-resB
	if r.err != nil {
		t.Fatalf("live caller err = %v", r.err)
	}
	if r.debt.ID != "d1" {
		t.Errorf("debt = %+v", r.debt)
	}
	if cur, ok := l.Current(); !ok || cur.ID != "d1" {
		t.Errorf("current = %+v, %v", cur, ok)
	}
}
