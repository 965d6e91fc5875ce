// Package sheets projects persisted submission records into per-app
// Google spreadsheets: it builds ordered header/data rows from the form
// template and drives the create-or-append state machine per sheet tab.
package sheets

import (
	"context"
	"errors"
)

// ErrSheetMissing classifies a header probe that failed because the target
// sheet tab does not exist. The adapter owns the translation from the
// service's error representation; the engine only ever checks this kind.
var ErrSheetMissing = errors.New("sheet tab does not exist")

// Service is the spreadsheet backend the sync engine writes through.
// Grids are row-major even for a single row, per the write contract.
type Service interface {
	// ReadHeader probes the header range of the named sheet tab. A probe
	// failing because the tab is absent returns an error wrapping
	// ErrSheetMissing; any other failure is returned as-is.
	ReadHeader(ctx context.Context, spreadsheetID, sheetName string) ([]string, error)

	// AddSheet creates a new tab with default capacity and returns its
	// service-assigned sheet id.
	AddSheet(ctx context.Context, spreadsheetID, title string) (int64, error)

	// InsertBlankRow opens one blank row directly below the header so the
	// newest record lands at the top.
	InsertBlankRow(ctx context.Context, spreadsheetID string, sheetID int64) error

	// WriteRange writes a row-major grid at rangeExpr.
	WriteRange(ctx context.Context, spreadsheetID, rangeExpr string, grid [][]interface{}) error
}
