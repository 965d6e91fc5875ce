package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formgate/models"
)

func contactTemplate() *models.FormTemplate {
	return &models.FormTemplate{
		Name: "contact",
		Fields: []models.TemplateField{
			{ID: "name", Position: 0, SheetHeader: "Name"},
			{ID: "email", Position: 1, SheetHeader: "Email"},
		},
	}
}

func TestAccumulatorRecord(t *testing.T) {
	a := NewAccumulator(contactTemplate(), nil)
	a.Set(map[string]string{
		"appKey":       "acme",
		"templateName": "contact",
		"appFrom":      "Acme <noreply@acme.example.com>",
		"name":         "  Jax  ",
		"email":        "jax@x.com",
	})

	record := a.Record()
	assert.Equal(t, "acme", record.AppKey)
	assert.Equal(t, "Acme <noreply@acme.example.com>", record.From)
	assert.Equal(t, []string{"acme"}, record.ToUids)
	assert.Equal(t, "jax@x.com", record.ReplyTo)
	assert.Equal(t, "contact", record.Template.Name)
	assert.Equal(t, map[string]string{"name": "Jax", "email": "jax@x.com"}, record.Template.Data)
	assert.True(t, record.CreatedDateTime.IsZero(), "timestamp is assigned by the store")
}

func TestAccumulatorTrimsValues(t *testing.T) {
	a := NewAccumulator(contactTemplate(), nil)
	a.Set(map[string]string{"name": "\t Jax \n"})
	assert.Equal(t, "Jax", a.TemplateData()["name"])
}

func TestAccumulatorMaxLength(t *testing.T) {
	a := NewAccumulator(contactTemplate(), map[string]int{"name": 3})
	a.Set(map[string]string{"name": "Jaxson"})
	assert.Equal(t, "Jax", a.TemplateData()["name"])
}

func TestAccumulatorLastWriteWins(t *testing.T) {
	a := NewAccumulator(contactTemplate(), nil)
	a.Set(map[string]string{"name": "first"})
	a.Set(map[string]string{"name": "second"})
	assert.Equal(t, "second", a.Record().Template.Data["name"])
}

func TestAccumulatorSpamOverride(t *testing.T) {
	a := NewAccumulator(contactTemplate(), nil)
	a.Set(map[string]string{"appKey": "acme"})
	require.Equal(t, []string{"acme"}, a.Record().ToUids)

	a.Set(map[string]string{
		"spam":               "true",
		"toUidsSpamOverride": SpamSuppressedRecipient,
	})

	record := a.Record()
	assert.Equal(t, []string{SpamSuppressedRecipient}, record.ToUids)
	assert.Equal(t, "true", record.Spam)
	assert.NotContains(t, record.Template.Data, "spam", "verdict props are not template fields")
}

func TestAccumulatorRecordIdempotent(t *testing.T) {
	a := NewAccumulator(contactTemplate(), nil)
	a.Set(map[string]string{"appKey": "acme", "name": "Jax", "email": "jax@x.com"})

	first := a.Record()
	second := a.Record()
	assert.Equal(t, first, second)

	// Mutating one copy must not leak into the next.
	first.Template.Data["name"] = "tampered"
	assert.Equal(t, "Jax", a.Record().Template.Data["name"])
}

func TestAccumulatorRedirect(t *testing.T) {
	a := NewAccumulator(contactTemplate(), nil)
	assert.Equal(t, "", a.Redirect())

	a.Set(map[string]string{"urlRedirect": "https://acme.example.com/thanks"})
	assert.Equal(t, "https://acme.example.com/thanks", a.Redirect())
}
