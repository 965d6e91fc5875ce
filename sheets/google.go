package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Grid capacity for newly created sheet tabs.
const (
	newSheetRows    = 1000
	newSheetColumns = 26
)

// GoogleService implements Service against the Google Sheets v4 API.
type GoogleService struct {
	svc *sheetsapi.Service
}

// NewGoogleService builds a Sheets client from a service account
// credentials file with read/write spreadsheet scope.
func NewGoogleService(ctx context.Context, credentialsPath string) (*GoogleService, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing Sheets client: %w", err)
	}
	return &GoogleService{svc: svc}, nil
}

// ReadHeader probes the header row of the named tab. The Sheets API
// reports a missing tab as a 400 "Unable to parse range" error; that exact
// shape is translated to ErrSheetMissing here so callers never match on
// message text. A 400 with any other message stays an opaque error: the
// range may genuinely be malformed, and guessing would misclassify it.
func (g *GoogleService) ReadHeader(ctx context.Context, spreadsheetID, sheetName string) ([]string, error) {
	resp, err := g.svc.Spreadsheets.Values.
		Get(spreadsheetID, fmt.Sprintf("%s!1:1", sheetName)).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) &&
			apiErr.Code == http.StatusBadRequest &&
			strings.Contains(apiErr.Message, "Unable to parse range") {
			return nil, fmt.Errorf("%w: %s", ErrSheetMissing, sheetName)
		}
		return nil, fmt.Errorf("failed to probe sheet %s: %w", sheetName, err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}
	header := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		header = append(header, fmt.Sprintf("%v", cell))
	}
	return header, nil
}

// AddSheet creates a new tab at index 0 with the default grid capacity.
func (g *GoogleService) AddSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	resp, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{
			{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{
						Title: title,
						Index: 0,
						GridProperties: &sheetsapi.GridProperties{
							RowCount:    newSheetRows,
							ColumnCount: newSheetColumns,
						},
					},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to add sheet %s: %w", title, err)
	}

	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			return reply.AddSheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("add sheet %s: no sheet id in reply", title)
}

// InsertBlankRow inserts one row between the header and the existing data
// (row index 1 to 2).
func (g *GoogleService) InsertBlankRow(ctx context.Context, spreadsheetID string, sheetID int64) error {
	_, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{
			{
				InsertDimension: &sheetsapi.InsertDimensionRequest{
					Range: &sheetsapi.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: 1,
						EndIndex:   2,
					},
					InheritFromBefore: false,
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert blank row: %w", err)
	}
	return nil
}

// WriteRange writes raw values into rangeExpr.
func (g *GoogleService) WriteRange(ctx context.Context, spreadsheetID, rangeExpr string, grid [][]interface{}) error {
	_, err := g.svc.Spreadsheets.Values.
		Update(spreadsheetID, rangeExpr, &sheetsapi.ValueRange{Values: grid}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write range %s: %w", rangeExpr, err)
	}
	return nil
}
