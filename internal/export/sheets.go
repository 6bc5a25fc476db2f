package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
)

// SheetsTarget keeps an offsite copy of the transaction list in a Google
// spreadsheet. The transaction ID in column A is the row key for deletes.
type SheetsTarget struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsTargetFromEnv builds a target from GOOGLE_SPREADSHEET_ID and
// GOOGLE_SHEET_NAME, authenticating with a service account
// (GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE) or falling
// back to application default credentials.
func NewSheetsTargetFromEnv(ctx context.Context) (*SheetsTarget, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	var opts []goption.ClientOption
	switch {
	case os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))))
	case os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") != "":
		opts = append(opts, goption.WithCredentialsFile(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")))
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsTarget{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// Append adds one transaction row at the bottom of the sheet.
func (s *SheetsTarget) Append(ctx context.Context, t core.Transaction) error {
	values := &gsheet.ValueRange{
		Values: [][]interface{}{{
			t.ID,
			t.Date.String(),
			string(t.Kind),
			t.Category,
			t.Description,
			t.Amount.Decimal(),
		}},
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName+"!A:F", values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	slog.InfoContext(ctx, "Transaction appended to spreadsheet",
		"id", t.ID,
		"sheet", s.sheetName)
	return nil
}

// Delete removes the row whose first column holds the given transaction
// ID. A missing row is not an error; the delete may have been applied
// already by a redelivered message.
func (s *SheetsTarget) Delete(ctx context.Context, id string) error {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.sheetName+"!A:A").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("read ID column: %w", err)
	}

	rowIndex := -1
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			rowIndex = i
			break
		}
	}
	if rowIndex < 0 {
		slog.WarnContext(ctx, "Transaction row not found in spreadsheet", "id", id)
		return nil
	}

	sheetID, err := s.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex),
					EndIndex:   int64(rowIndex + 1),
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}

	slog.InfoContext(ctx, "Transaction row deleted from spreadsheet", "id", id)
	return nil
}

func (s *SheetsTarget) sheetID(ctx context.Context) (int64, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", s.sheetName)
}
