package db

import (
	"formgate/models"
)

// Schema defaults applied to newly created config documents, so an app or
// template created with a partial body still has the blocks the submit
// pipeline reads. Mirrors the default-schema documents the admin UI
// expects.

// ApplyAppDefaults fills the zero-valued blocks of a new app config.
func ApplyAppDefaults(app *models.AppConfig) {
	if app.AppInfo.AppTimeZone == "" {
		app.AppInfo.AppTimeZone = "America/New_York"
	}
	if app.Message.Success.Text == "" {
		app.Message.Success.Text = "Thanks, your message was sent."
	}
	if app.Message.Error.Text == "" {
		app.Message.Error.Text = "An error occurred. Please try again later."
	}
	if app.Spreadsheet.SheetIDByTemplate == nil {
		app.Spreadsheet.SheetIDByTemplate = make(map[string]int64)
	}
}

// ApplyTemplateDefaults normalizes a new form template.
func ApplyTemplateDefaults(template *models.FormTemplate) {
	if template.Fields == nil {
		template.Fields = []models.TemplateField{}
	}
}
