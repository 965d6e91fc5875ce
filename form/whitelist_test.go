package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"formgate/models"
)

func TestBuildWhitelist(t *testing.T) {
	required := []models.FormField{
		{ID: "appKey", Required: true},
		{ID: "templateName", Required: true},
	}
	template := &models.FormTemplate{
		Name: "contact",
		Fields: []models.TemplateField{
			{ID: "name", Position: 0},
			{ID: "email", Position: 1},
		},
	}
	info := models.AppInfo{AppName: "Acme", AppURL: "https://acme.example.com"}

	w := BuildWhitelist(required, template, info)

	for _, key := range []string{"appKey", "templateName", "name", "email", "appName", "appUrl", "appFrom", "appTimeZone"} {
		assert.True(t, w.Allows(key), "expected %q to be whitelisted", key)
	}
	assert.False(t, w.Allows("__anything__"))
	assert.False(t, w.Allows("toUidsSpamOverride"), "spam override must never be submittable")
}

func TestWhitelistFilter(t *testing.T) {
	template := &models.FormTemplate{
		Name:   "contact",
		Fields: []models.TemplateField{{ID: "name", Position: 0}},
	}
	w := BuildWhitelist(nil, template, models.AppInfo{})

	filtered := w.Filter(map[string]string{
		"name":         "Jax",
		"__injected__": "drop table",
		"password":     "hunter2",
	})

	assert.Equal(t, map[string]string{"name": "Jax"}, filtered)
}
