package sheets

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/log"
)

type fakeAPI struct {
	titles  []string
	added   []string
	cleared []string
	ranges  []string
	rows    [][][]any
	failGet error
}

func (f *fakeAPI) tabs(ctx context.Context, id string) ([]string, error) {
	return f.titles, f.failGet
}

func (f *fakeAPI) addTab(ctx context.Context, id, title string) error {
	f.added = append(f.added, title)
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeAPI) clear(ctx context.Context, id, rng string) error {
	f.cleared = append(f.cleared, rng)
	return nil
}

func (f *fakeAPI) update(ctx context.Context, id, rng string, rows [][]any) (int64, error) {
	f.ranges = append(f.ranges, rng)
	f.rows = append(f.rows, rows)
	return int64(len(rows)), nil
}

func TestClient_WriteRowsCreatesThenClears(t *testing.T) {
	f := &fakeAPI{titles: []string{"Sheet1"}}
	c := &Client{api: f, spreadsheetID: "sheet-id", logger: log.Discard()}
	rows := [][]string{{"date", "amount"}, {"2025-03-01", "12.50"}}

	rng, err := c.WriteRows(context.Background(), "Transactions 2025-03-15", rows)
	if err != nil {
		t.Fatal(err)
	}
	if rng != "'Transactions 2025-03-15'!A1:B2" {
		t.Errorf("range = %q", rng)
	}
	if len(f.added) != 1 || len(f.cleared) != 0 {
		t.Errorf("added=%v cleared=%v", f.added, f.cleared)
	}
	if f.rows[0][1][1] != "12.50" {
		t.Errorf("rows = %v", f.rows[0])
	}

	if _, err := c.WriteRows(context.Background(), "Transactions 2025-03-15", rows); err != nil {
		t.Fatal(err)
	}
	if len(f.added) != 1 || len(f.cleared) != 1 {
		t.Errorf("second write: added=%v cleared=%v", f.added, f.cleared)
	}
}

func TestClient_WriteRowsErrors(t *testing.T) {
	c := &Client{api: &fakeAPI{failGet: errors.New("403")}, spreadsheetID: "x", logger: log.Discard()}
	if _, err := c.WriteRows(context.Background(), "Debts", nil); err == nil {
		t.Error("expected list error")
	}
	if _, err := c.WriteRows(context.Background(), "  ", nil); err == nil {
		t.Error("expected empty title error")
	}
}

func TestA1Range(t *testing.T) {
	tests := []struct {
		title string
		rows  [][]string
		want  string
	}{
		{"Debts", nil, "'Debts'!A1:A1"},
		{"Debts", [][]string{{"a", "b", "c"}, {"d"}}, "'Debts'!A1:C2"},
		{"Bob's", [][]string{make([]string, 28)}, "'Bob''s'!A1:AB1"},
	}
	for _, tt := range tests {
		if got := A1Range(tt.title, tt.rows); got != tt.want {
			t.Errorf("A1Range(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestNew_RequiresConfiguration(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v", err)
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x"}, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing credentials: err = %v", err)
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"}, nil); err == nil {
		t.Error("expected read error for missing credentials file")
	}
}
