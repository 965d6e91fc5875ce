package sheets

import (
	"log"
	"sort"
	"time"

	"formgate/models"
)

// Spreadsheet date/time formats, matching the columns the header promises.
const (
	dateFormat = "01/02/2006"
	timeFormat = "3:04 PM MST"
)

// sortedFields returns the template's fields in ascending position order
// without mutating the template.
func sortedFields(template *models.FormTemplate) []models.TemplateField {
	fields := make([]models.TemplateField, len(template.Fields))
	copy(fields, template.Fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Position < fields[j].Position
	})
	return fields
}

// HeaderRow builds the header grid for a template's sheet tab:
// Date, Time, then each field's sheet header label in position order.
// The header, once written, defines the column contract for every data row.
func HeaderRow(template *models.FormTemplate) [][]interface{} {
	fields := sortedFields(template)
	row := make([]interface{}, 0, len(fields)+2)
	row = append(row, "Date", "Time")
	for _, field := range fields {
		row = append(row, field.SheetHeader)
	}
	return [][]interface{}{row}
}

// DataRow builds the data grid for one submission record in the same
// column order as HeaderRow. A field the record has no value for renders
// as an empty string so the row never has fewer columns than the header.
// The timestamp is formatted in the app's configured time zone; an
// unloadable zone falls back to UTC rather than dropping the projection.
func DataRow(template *models.FormTemplate, app *models.AppConfig, createdAt time.Time, data map[string]string) [][]interface{} {
	loc, err := time.LoadLocation(app.AppInfo.AppTimeZone)
	if err != nil {
		log.Printf("⚠️  App %s has invalid time zone %q, using UTC", app.AppKey, app.AppInfo.AppTimeZone)
		loc = time.UTC
	}
	local := createdAt.In(loc)

	fields := sortedFields(template)
	row := make([]interface{}, 0, len(fields)+2)
	row = append(row, local.Format(dateFormat), local.Format(timeFormat))
	for _, field := range fields {
		row = append(row, data[field.ID])
	}
	return [][]interface{}{row}
}
