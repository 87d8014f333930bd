// Package sheets mirrors materialized transactions into a Google spreadsheet,
// one year-prefixed tab per transaction kind.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"walletguru/internal/export"
)

type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	ExpensesSheet   string // base name, the year is prefixed
	IncomesSheet    string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheets        map[string]string // kind -> base sheet name
	now           func() time.Time
}

var _ export.Exporter = (*Client)(nil)

// New builds a Sheets client. Extra options are appended after the
// credentials, which lets tests point the client at a fake endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	expenses := cfg.ExpensesSheet
	if expenses == "" {
		expenses = "Expenses"
	}
	incomes := cfg.IncomesSheet
	if incomes == "" {
		incomes = "Incomes"
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID)
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheets:        map[string]string{"expense": expenses, "income": incomes},
		now:           time.Now,
	}, nil
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
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// sheetName prefixes the year of the row date, e.g. "2025 Expenses".
func (c *Client) sheetName(row export.Row) (string, error) {
	base, ok := c.sheets[row.Kind]
	if !ok {
		return "", fmt.Errorf("unknown row kind %q", row.Kind)
	}
	year := c.now().Year()
	if t, err := time.Parse("2006-01-02", row.Date); err == nil {
		year = t.Year()
	}
	return fmt.Sprintf("%d %s", year, base), nil
}

func (c *Client) Export(ctx context.Context, row export.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet, err := c.sheetName(row)
	if err != nil {
		return "", err
	}

	rng := fmt.Sprintf("'%s'!A:H", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Date,
		row.Title,
		row.Amount.Euros(),
		row.Category,
		row.Notes,
		row.UserID,
		row.TransactionID,
		row.TemplateID,
	}}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Exported transaction to Google Sheets",
		"sheet", sheet,
		"ref", ref,
		"transaction_id", row.TransactionID)
	return ref, nil
}
