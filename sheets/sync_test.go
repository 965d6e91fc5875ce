package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/models"
)

// fakeService simulates the spreadsheet backend: tabs exist once created,
// header writes are remembered per tab, and per-method failures can be
// injected.
type fakeService struct {
	tabs    map[string]int64
	headers map[string][]string

	nextSheetID int64
	probeErr    error
	writeErrs   int

	addSheetCalls  int
	insertRowCalls int
	writeCalls     []string
}

func newFakeService() *fakeService {
	return &fakeService{
		tabs:        make(map[string]int64),
		headers:     make(map[string][]string),
		nextSheetID: 7001,
	}
}

// addExistingTab seeds a tab that already carries a header, as if a prior
// sync completed.
func (f *fakeService) addExistingTab(name string, id int64) {
	f.tabs[name] = id
	f.headers[name] = []string{"Date", "Time"}
}

func (f *fakeService) ReadHeader(ctx context.Context, spreadsheetID, sheetName string) ([]string, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	if _, ok := f.tabs[sheetName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetMissing, sheetName)
	}
	return f.headers[sheetName], nil
}

func (f *fakeService) AddSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	f.addSheetCalls++
	id := f.nextSheetID
	f.nextSheetID++
	f.tabs[title] = id
	return id, nil
}

func (f *fakeService) InsertBlankRow(ctx context.Context, spreadsheetID string, sheetID int64) error {
	f.insertRowCalls++
	return nil
}

func (f *fakeService) WriteRange(ctx context.Context, spreadsheetID, rangeExpr string, grid [][]interface{}) error {
	if f.writeErrs > 0 {
		f.writeErrs--
		return errors.New("write failed")
	}
	f.writeCalls = append(f.writeCalls, rangeExpr)

	if name, ok := strings.CutSuffix(rangeExpr, "!A1"); ok && len(grid) > 0 {
		header := make([]string, 0, len(grid[0]))
		for _, cell := range grid[0] {
			header = append(header, fmt.Sprintf("%v", cell))
		}
		f.headers[name] = header
	}
	return nil
}

// fakeConfig records sheet-id writes the way the document store would.
type fakeConfig struct {
	recorded map[string]int64
}

func (f *fakeConfig) SetSheetID(ctx context.Context, appKey, templateName string, sheetID int64) error {
	if f.recorded == nil {
		f.recorded = make(map[string]int64)
	}
	f.recorded[appKey+"/"+templateName] = sheetID
	return nil
}

func syncFixtures() (*models.AppConfig, *models.FormTemplate, [][]interface{}, [][]interface{}) {
	app := &models.AppConfig{
		AppKey: "acme",
		Spreadsheet: models.Spreadsheet{
			ID:                "spreadsheet-1",
			SheetIDByTemplate: map[string]int64{},
		},
	}
	template := &models.FormTemplate{Name: "contact"}
	header := [][]interface{}{{"Date", "Time", "Name"}}
	data := [][]interface{}{{"01/15/2025", "1:30 PM EST", "Jax"}}
	return app, template, header, data
}

func TestSyncRowCreatesMissingSheet(t *testing.T) {
	service := newFakeService()
	config := &fakeConfig{}
	engine := NewEngine(service, config, 3, time.Millisecond)
	app, template, header, data := syncFixtures()

	err := engine.SyncRow(context.Background(), app, template, header, data)
	require.NoError(t, err)

	assert.Equal(t, 1, service.addSheetCalls)
	assert.Equal(t, 0, service.insertRowCalls)
	assert.Equal(t, []string{"contact!A1", "contact!A2"}, service.writeCalls, "header then data")
	assert.Equal(t, int64(7001), config.recorded["acme/contact"], "new sheet id recorded in app config")
	assert.Equal(t, int64(7001), app.Spreadsheet.SheetIDByTemplate["contact"])
}

func TestSyncRowAppendsUnderExistingHeader(t *testing.T) {
	service := newFakeService()
	config := &fakeConfig{}
	engine := NewEngine(service, config, 3, time.Millisecond)
	app, template, header, data := syncFixtures()

	// First sync creates the tab, second must only insert and write.
	require.NoError(t, engine.SyncRow(context.Background(), app, template, header, data))
	service.writeCalls = nil

	require.NoError(t, engine.SyncRow(context.Background(), app, template, header, data))

	assert.Equal(t, 1, service.addSheetCalls, "no second sheet creation")
	assert.Equal(t, 1, service.insertRowCalls)
	assert.Equal(t, []string{"contact!A2"}, service.writeCalls, "data row only, directly under the header")
	assert.Len(t, config.recorded, 1)
}

func TestSyncRowRepairsHeaderAfterPartialCreate(t *testing.T) {
	service := newFakeService()
	service.writeErrs = 1
	config := &fakeConfig{}
	engine := NewEngine(service, config, 1, 0)
	app, template, header, data := syncFixtures()

	// Sheet creation succeeds but the header write fails: the sync must
	// report the failure, not return nil with a headerless tab.
	err := engine.SyncRow(context.Background(), app, template, header, data)
	require.Error(t, err)
	assert.Equal(t, 1, service.addSheetCalls)
	assert.Empty(t, service.headers["contact"])

	// The next sync finds the tab without its header and restores it
	// before appending, without creating a second tab.
	require.NoError(t, engine.SyncRow(context.Background(), app, template, header, data))

	assert.Equal(t, 1, service.addSheetCalls)
	assert.Equal(t, []string{"contact!A1", "contact!A2"}, service.writeCalls)
	assert.Equal(t, []string{"Date", "Time", "Name"}, service.headers["contact"])
}

func TestSyncRowUnclassifiedProbeErrorSurfaces(t *testing.T) {
	service := newFakeService()
	service.probeErr = errors.New("quota exceeded")
	engine := NewEngine(service, &fakeConfig{}, 3, time.Millisecond)
	app, template, header, data := syncFixtures()

	err := engine.SyncRow(context.Background(), app, template, header, data)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized probe failure")
	assert.Equal(t, 0, service.addSheetCalls, "an unclassified probe error must never be treated as a missing sheet")
}

func TestSyncRowRetriesTransientWriteFailures(t *testing.T) {
	service := newFakeService()
	service.addExistingTab("contact", 7001)
	service.writeErrs = 2
	config := &fakeConfig{}
	engine := NewEngine(service, config, 3, time.Millisecond)
	app, template, header, data := syncFixtures()
	app.Spreadsheet.SheetIDByTemplate["contact"] = 7001

	err := engine.SyncRow(context.Background(), app, template, header, data)

	require.NoError(t, err)
	assert.Equal(t, []string{"contact!A2"}, service.writeCalls)
	assert.Equal(t, 1, service.insertRowCalls, "only the failed write is retried, never the insert")
}

func TestSyncRowExhaustsRetries(t *testing.T) {
	service := newFakeService()
	service.addExistingTab("contact", 7001)
	service.writeErrs = 10
	engine := NewEngine(service, &fakeConfig{}, 2, time.Millisecond)
	app, template, header, data := syncFixtures()
	app.Spreadsheet.SheetIDByTemplate["contact"] = 7001

	err := engine.SyncRow(context.Background(), app, template, header, data)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 1, service.insertRowCalls)
}

func TestSyncRowRequiresSpreadsheet(t *testing.T) {
	engine := NewEngine(newFakeService(), &fakeConfig{}, 1, 0)
	app, template, header, data := syncFixtures()
	app.Spreadsheet.ID = ""

	err := engine.SyncRow(context.Background(), app, template, header, data)
	assert.Error(t, err)
}
