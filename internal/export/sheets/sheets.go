// Package sheets writes export rows into a Google spreadsheet, one tab per
// export.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/log"
)

var ErrNotConfigured = errors.New("sheets: missing spreadsheet id or service account credentials")

type Config struct {
	SpreadsheetID string
	// CredentialsJSON wins over CredentialsFile when both are set.
	CredentialsJSON string
	CredentialsFile string
}

// api is the subset of the Sheets service the client needs.
type api interface {
	tabs(ctx context.Context, spreadsheetID string) ([]string, error)
	addTab(ctx context.Context, spreadsheetID, title string) error
	clear(ctx context.Context, spreadsheetID, rng string) error
	update(ctx context.Context, spreadsheetID, rng string, rows [][]any) (int64, error)
}

type Client struct {
	api           api
	spreadsheetID string
	logger        *log.Logger
}

// New builds a client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, ErrNotConfigured
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		opts = append([]goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, opts...)
	} else if len(opts) == 0 {
		return nil, ErrNotConfigured
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets client ready", "spreadsheet_id", id)
	return &Client{api: &googleAPI{svc: svc}, spreadsheetID: id, logger: logger}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

// WriteRows replaces the content of the tab named title with rows, creating
// the tab when it does not exist. It returns the A1 range that was written.
func (c *Client) WriteRows(ctx context.Context, title string, rows [][]string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("sheets: empty tab title")
	}

	existing, err := c.api.tabs(ctx, c.spreadsheetID)
	if err != nil {
		return "", fmt.Errorf("list tabs: %w", err)
	}
	if !contains(existing, title) {
		if err := c.api.addTab(ctx, c.spreadsheetID, title); err != nil {
			return "", fmt.Errorf("add tab %q: %w", title, err)
		}
	} else if err := c.api.clear(ctx, c.spreadsheetID, quote(title)); err != nil {
		return "", fmt.Errorf("clear tab %q: %w", title, err)
	}

	rng := A1Range(title, rows)
	n, err := c.api.update(ctx, c.spreadsheetID, rng, toValues(rows))
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "Rows written to spreadsheet", "range", rng, "rows", n)
	return rng, nil
}

// A1Range is the range covering rows starting at A1 of the tab.
func A1Range(title string, rows [][]string) string {
	width := 1
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	height := len(rows)
	if height == 0 {
		height = 1
	}
	return fmt.Sprintf("%s!A1:%s%d", quote(title), column(width), height)
}

// column converts a 1-based column number to its letter name.
func column(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func contains(titles []string, title string) bool {
	for _, t := range titles {
		if strings.EqualFold(strings.TrimSpace(t), title) {
			return true
		}
	}
	return false
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		out[i] = row
	}
	return out
}

type googleAPI struct {
	svc *gsheet.Service
}

func (g *googleAPI) tabs(ctx context.Context, id string) ([]string, error) {
	ss, err := g.svc.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (g *googleAPI) addTab(ctx context.Context, id, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	_, err := g.svc.Spreadsheets.BatchUpdate(id, req).Context(ctx).Do()
	return err
}

func (g *googleAPI) clear(ctx context.Context, id, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(id, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleAPI) update(ctx context.Context, id, rng string, rows [][]any) (int64, error) {
	resp, err := g.svc.Spreadsheets.Values.Update(id, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	return resp.UpdatedRows, nil
}
