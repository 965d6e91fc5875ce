package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"formgate/models"
)

// ConfigWriter records a newly assigned sheet id back into the owning
// app's template→sheet-id map.
type ConfigWriter interface {
	SetSheetID(ctx context.Context, appKey, templateName string, sheetID int64) error
}

// probeError marks a header probe that failed for a reason other than a
// missing tab. It is not a recognized state: the engine surfaces it
// without retrying instead of guessing "missing" and duplicating a tab.
type probeError struct {
	err error
}

func (e *probeError) Error() string { return fmt.Sprintf("unrecognized probe failure: %v", e.err) }
func (e *probeError) Unwrap() error { return e.err }

// Engine ensures the destination sheet tab exists with the correct header
// and inserts each new data row directly below the header, newest first.
//
// The insert-blank-row and write-data steps are two independent remote
// calls, so all mutations for one (spreadsheetId, templateName) pair are
// serialized through a per-key mutex; concurrent submissions to the same
// tab would otherwise interleave and duplicate rows.
type Engine struct {
	service     Service
	config      ConfigWriter
	maxAttempts int
	backoff     time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine builds a sync engine. maxAttempts bounds the retry loop around
// each remote call; backoff grows linearly per attempt.
func NewEngine(service Service, config ConfigWriter, maxAttempts int, backoff time.Duration) *Engine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Engine{
		service:     service,
		config:      config,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (e *Engine) keyLock(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}

// withRetry runs one remote call up to maxAttempts times. Retrying a
// single call, not the whole sync, keeps a failure from re-running steps
// that already succeeded (a second AddSheet, a duplicate blank row).
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.backoff * time.Duration(attempt-1)):
			}
			log.Printf("🔁 Retrying %s (attempt %d/%d)", op, attempt, e.maxAttempts)
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, e.maxAttempts, lastErr)
}

// SyncRow runs the two-phase protocol for one persisted record: probe the
// tab named after the template, then either append under the existing
// header or create the tab, record its id, write the header, and write the
// data row. The record is already durable in the document store; a sync
// failure here never loses it.
//
// A probe that answers neither "exists" nor "missing" is surfaced without
// retry; guessing would misclassify quota or auth failures.
func (e *Engine) SyncRow(ctx context.Context, app *models.AppConfig, template *models.FormTemplate, header, data [][]interface{}) error {
	spreadsheetID := app.Spreadsheet.ID
	if spreadsheetID == "" {
		return fmt.Errorf("app %s has no spreadsheet configured", app.AppKey)
	}

	lock := e.keyLock(spreadsheetID + "\x00" + template.Name)
	lock.Lock()
	defer lock.Unlock()

	probed, err := e.service.ReadHeader(ctx, spreadsheetID, template.Name)
	switch {
	case err == nil:
		return e.appendRow(ctx, app, template, probed, header, data)
	case errors.Is(err, ErrSheetMissing):
		return e.createAndWrite(ctx, app, template, header, data)
	default:
		return &probeError{err: err}
	}
}

// appendRow handles an existing tab: restore the header if a prior partial
// create lost it, then open a blank row under it and fill the row in.
func (e *Engine) appendRow(ctx context.Context, app *models.AppConfig, template *models.FormTemplate, probed []string, header, data [][]interface{}) error {
	spreadsheetID := app.Spreadsheet.ID
	sheetID, ok := app.Spreadsheet.SheetIDByTemplate[template.Name]
	if !ok {
		return fmt.Errorf("app %s has no recorded sheet id for template %s", app.AppKey, template.Name)
	}

	if len(probed) == 0 {
		log.Printf("⚠️  Sheet %s/%s exists without a header, restoring it", app.AppKey, template.Name)
		if err := e.writeHeader(ctx, spreadsheetID, template.Name, header); err != nil {
			return err
		}
	}

	if err := e.withRetry(ctx, fmt.Sprintf("insert row %s/%s", app.AppKey, template.Name), func() error {
		return e.service.InsertBlankRow(ctx, spreadsheetID, sheetID)
	}); err != nil {
		return err
	}
	return e.writeData(ctx, spreadsheetID, template.Name, data)
}

// createAndWrite handles a missing tab: create it, record its id, then
// write the header and the first data row.
func (e *Engine) createAndWrite(ctx context.Context, app *models.AppConfig, template *models.FormTemplate, header, data [][]interface{}) error {
	spreadsheetID := app.Spreadsheet.ID

	var sheetID int64
	if err := e.withRetry(ctx, fmt.Sprintf("add sheet %s/%s", app.AppKey, template.Name), func() error {
		var err error
		sheetID, err = e.service.AddSheet(ctx, spreadsheetID, template.Name)
		return err
	}); err != nil {
		return err
	}

	if err := e.withRetry(ctx, fmt.Sprintf("record sheet id %s/%s", app.AppKey, template.Name), func() error {
		return e.config.SetSheetID(ctx, app.AppKey, template.Name, sheetID)
	}); err != nil {
		return err
	}
	if app.Spreadsheet.SheetIDByTemplate == nil {
		app.Spreadsheet.SheetIDByTemplate = make(map[string]int64)
	}
	app.Spreadsheet.SheetIDByTemplate[template.Name] = sheetID

	if err := e.writeHeader(ctx, spreadsheetID, template.Name, header); err != nil {
		return err
	}
	return e.writeData(ctx, spreadsheetID, template.Name, data)
}

func (e *Engine) writeHeader(ctx context.Context, spreadsheetID, templateName string, header [][]interface{}) error {
	rangeHeader := fmt.Sprintf("%s!A1", templateName)
	return e.withRetry(ctx, fmt.Sprintf("write header %s", rangeHeader), func() error {
		return e.service.WriteRange(ctx, spreadsheetID, rangeHeader, header)
	})
}

func (e *Engine) writeData(ctx context.Context, spreadsheetID, templateName string, data [][]interface{}) error {
	rangeData := fmt.Sprintf("%s!A2", templateName)
	return e.withRetry(ctx, fmt.Sprintf("write row %s", rangeData), func() error {
		return e.service.WriteRange(ctx, spreadsheetID, rangeData, data)
	})
}
