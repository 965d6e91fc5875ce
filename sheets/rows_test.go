package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/models"
)

// Template with fields declared out of position order on purpose.
func shuffledTemplate() *models.FormTemplate {
	return &models.FormTemplate{
		Name: "contact",
		Fields: []models.TemplateField{
			{ID: "message", Position: 2, SheetHeader: "Message"},
			{ID: "name", Position: 0, SheetHeader: "Name"},
			{ID: "email", Position: 1, SheetHeader: "Email"},
		},
	}
}

func testApp(tz string) *models.AppConfig {
	return &models.AppConfig{
		AppKey:  "acme",
		AppInfo: models.AppInfo{AppTimeZone: tz},
	}
}

func TestHeaderRowOrder(t *testing.T) {
	grid := HeaderRow(shuffledTemplate())

	require.Len(t, grid, 1, "write contract requires a single-row grid")
	assert.Equal(t, []interface{}{"Date", "Time", "Name", "Email", "Message"}, grid[0])
}

func TestDataRowOrderAndPadding(t *testing.T) {
	createdAt := time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC)

	grid := DataRow(shuffledTemplate(), testApp("America/New_York"), createdAt, map[string]string{
		// Submission key order must not matter; email intentionally absent.
		"message": "hello",
		"name":    "Jax",
	})

	require.Len(t, grid, 1)
	row := grid[0]
	require.Len(t, row, 5, "row must never have fewer columns than the header")
	assert.Equal(t, "01/15/2025", row[0])
	assert.Equal(t, "1:30 PM EST", row[1])
	assert.Equal(t, "Jax", row[2])
	assert.Equal(t, "", row[3], "missing field renders as empty string")
	assert.Equal(t, "hello", row[4])
}

func TestDataRowInvalidTimeZoneFallsBackToUTC(t *testing.T) {
	createdAt := time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC)

	grid := DataRow(shuffledTemplate(), testApp("Not/AZone"), createdAt, nil)

	assert.Equal(t, "01/15/2025", grid[0][0])
	assert.Equal(t, "6:30 PM UTC", grid[0][1])
}

func TestHeaderAndDataRowsAlign(t *testing.T) {
	template := shuffledTemplate()
	header := HeaderRow(template)
	data := DataRow(template, testApp("UTC"), time.Now(), map[string]string{"email": "jax@x.com"})

	assert.Equal(t, len(header[0]), len(data[0]))
}
