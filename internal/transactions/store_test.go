package transactions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
)

var fixedNow = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

type fakeTransport struct {
	items   []core.Transaction
	filters []core.TransactionFilters
	creates int
	seq     int
}

func (f *fakeTransport) ListTransactions(ctx context.Context, filters core.TransactionFilters, page, size int) (core.Page[core.Transaction], error) {
	f.filters = append(f.filters, filters)
	return core.NewPage(f.items, page, size, int64(len(f.items))), nil
}

func (f *fakeTransport) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	for _, tx := range f.items {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (f *fakeTransport) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	f.creates++
	f.seq++
	return core.Transaction{ID: fmt.Sprintf("t%d", f.seq), WalletID: in.WalletID, CategoryID: in.CategoryID,
		Type: in.Type, Amount: in.Amount, Date: in.Date}, nil
}

func (f *fakeTransport) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	return core.Transaction{ID: id, WalletID: in.WalletID, CategoryID: in.CategoryID, Type: in.Type, Amount: in.Amount, Date: in.Date}, nil
}

func (f *fakeTransport) DeleteTransaction(ctx context.Context, id string) error {
	return nil
}

func input(kind core.TransactionType, amount string, date core.Date) core.TransactionInput {
	return core.TransactionInput{WalletID: "w1", CategoryID: "c1", Type: kind, Amount: core.MustParseMoney(amount), Date: date}
}

func newStore(f *fakeTransport) *Store {
	return New(f, WithClock(func() time.Time { return fixedNow }))
}

func TestStore_CreateValidation(t *testing.T) {
	today := core.Today(fixedNow)
	tests := []struct {
		name    string
		in      core.TransactionInput
		wantErr error
		wantMsg string
	}{
		{"valid today", input(core.Expense, "12.50", today), nil, ""},
		{"missing wallet", core.TransactionInput{CategoryID: "c", Type: core.Income, Amount: core.NewMoney(1), Date: today}, core.ErrMissingField, "Please select a wallet"},
		{"missing category", core.TransactionInput{WalletID: "w", Type: core.Income, Amount: core.NewMoney(1), Date: today}, core.ErrMissingField, "Please select a category"},
		{"missing type", input("", "1", today), core.ErrMissingType, "Please select transaction type"},
		{"zero amount", input(core.Income, "0", today), core.ErrInvalidAmount, "Amount must be greater than 0"},
		{"missing date", input(core.Income, "1", core.Date{}), core.ErrMissingDate, "Please select a date"},
		{"tomorrow", input(core.Income, "1", today.AddDays(1)), core.ErrFutureDate, "Transaction date cannot be in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTransport{}
			_, err := newStore(f).Create(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if f.creates != 1 {
					t.Errorf("creates = %d", f.creates)
				}
				return
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if f.creates != 0 {
				t.Error("invalid transaction reached the backend")
			}
		})
	}
}

func TestStore_TypeImmutableOnUpdate(t *testing.T) {
	ctx := context.Background()
	today := core.Today(fixedNow)
	f := &fakeTransport{}
	s := newStore(f)
	tx, err := s.Create(ctx, input(core.Expense, "5", today))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Update(ctx, tx.ID, input(core.Income, "5", today)); !errors.Is(err, core.ErrImmutableType) {
		t.Errorf("err = %v, want ErrImmutableType", err)
	}
	updated, err := s.Update(ctx, tx.ID, input(core.Expense, "7", today))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Transactions(); len(got) != 1 || !got[0].Amount.Equal(updated.Amount) {
		t.Errorf("Transactions = %v", got)
	}
}

func TestStore_TotalsOverLoadedItems(t *testing.T) {
	d := core.NewDate(2025, 5, 30)
	f := &fakeTransport{items: []core.Transaction{
		{ID: "1", Type: core.Income, Amount: core.MustParseMoney("1000"), Date: d},
		{ID: "2", Type: core.Expense, Amount: core.MustParseMoney("250.25"), Date: d},
		{ID: "3", Type: core.Expense, Amount: core.MustParseMoney("49.75"), Date: d},
	}}
	s := newStore(f)
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := s.IncomeTotal(); !got.Equal(core.MustParseMoney("1000")) {
		t.Errorf("IncomeTotal = %s", got)
	}
	if got := s.ExpenseTotal(); !got.Equal(core.MustParseMoney("300")) {
		t.Errorf("ExpenseTotal = %s", got)
	}
	if got := s.Net(); !got.Equal(core.MustParseMoney("700")) {
		t.Errorf("Net = %s", got)
	}
}

func TestStore_FiltersReachTransport(t *testing.T) {
	f := &fakeTransport{}
	s := newStore(f)
	from := core.NewDate(2025, 5, 1)
	s.SetFilters(func(tf *core.TransactionFilters) {
		tf.WalletID = "w9"
		tf.DateFrom = from
	})
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := f.filters[0]
	if got.WalletID != "w9" || !got.DateFrom.Equal(from) {
		t.Errorf("filters = %+v", got)
	}

	s.ResetFilters()
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.filters[1] != (core.TransactionFilters{}) {
		t.Errorf("filters after reset = %+v", f.filters[1])
	}
}

func TestStore_DeleteRemoves(t *testing.T) {
	ctx := context.Background()
	s := newStore(&fakeTransport{})
	tx, _ := s.Create(ctx, input(core.Income, "1", core.Today(fixedNow)))
	if err := s.Delete(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.Transactions()) != 0 || s.Collection().Pagination().TotalElements != 0 {
		t.Error("transaction not removed")
	}
}
