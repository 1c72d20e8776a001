// Package google exports monthly reports to a Google Sheets document
// using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gastos/internal/core"
	"gastos/internal/services"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ services.ReportExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME
// (default "Reportes").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Reportes"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Export appends the report rows to the configured sheet and returns
// the spreadsheet URL. One row per expense, then one row per member
// balance.
func (c *Client) Export(ctx context.Context, report services.ReportData) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := buildRows(report)
	rng := fmt.Sprintf("%s!A1", c.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append report to sheet %s: %w", c.sheetName, err)
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", c.spreadsheetID), nil
}

func buildRows(report services.ReportData) [][]any {
	period := report.PeriodKey()
	rows := [][]any{}
	for _, e := range report.Expenses {
		payer := report.MemberNames[e.PayerID]
		if payer == "" {
			payer = fmt.Sprintf("miembro %d", e.PayerID)
		}
		rows = append(rows, []any{
			period,
			e.Date.Format("2006-01-02"),
			e.Description,
			e.Amount.StringFixed(2),
			e.Category,
			payer,
			string(e.PaymentType),
			fmt.Sprintf("%d/%d", e.InstallmentNo, e.Installments),
		})
	}
	ids := make([]core.MemberID, 0, len(report.Balances))
	for id := range report.Balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		name := report.MemberNames[id]
		if name == "" {
			name = fmt.Sprintf("miembro %d", id)
		}
		rows = append(rows, []any{period, "balance", name, report.Balances[id].StringFixed(2)})
	}
	return rows
}
