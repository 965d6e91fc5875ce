package form

import (
	"strings"

	"formgate/models"
)

// SpamSuppressedRecipient replaces the record's recipient when the spam
// check flags a submission: the record is still persisted, but the
// notification consumer matches no user and sends nothing.
const SpamSuppressedRecipient = "SPAM_SUSPECTED_DO_NOT_EMAIL"

// Accumulator builds one submission record over two passes: the
// whitelisted submission entries first, then any spam-classification
// results. Later passes overwrite earlier values for the same key. One
// Accumulator serves exactly one request; never share across requests.
type Accumulator struct {
	props          map[string]string
	templateData   map[string]string
	toUids         string
	templateName   string
	templateFields map[string]struct{}
	maxLengths     map[string]int
}

// NewAccumulator prepares an empty accumulator scoped to the submitted
// template. maxLengths carries per-field truncation limits from the form
// field definitions (0 = unlimited).
func NewAccumulator(template *models.FormTemplate, maxLengths map[string]int) *Accumulator {
	fields := make(map[string]struct{}, len(template.Fields))
	for _, f := range template.Fields {
		fields[f.ID] = struct{}{}
	}
	return &Accumulator{
		props:          make(map[string]string),
		templateData:   make(map[string]string),
		templateName:   template.Name,
		templateFields: fields,
		maxLengths:     maxLengths,
	}
}

// Set ingests one pass of prop entries. Values are whitespace-trimmed and
// truncated to the field's max length. appKey doubles as the default
// recipient; toUidsSpamOverride replaces the recipient outright. Keys that
// are template fields are additionally copied into the template data.
func (a *Accumulator) Set(entries map[string]string) {
	for key, value := range entries {
		value = strings.TrimSpace(value)
		if max, ok := a.maxLengths[key]; ok && max > 0 {
			if runes := []rune(value); len(runes) > max {
				value = string(runes[:max])
			}
		}

		a.props[key] = value

		switch key {
		case "appKey":
			a.toUids = value
		case "toUidsSpamOverride":
			a.toUids = value
		}

		if _, ok := a.templateFields[key]; ok {
			a.templateData[key] = value
		}
	}
}

// Record projects the accumulated state into the persisted record shape.
// CreatedDateTime is left zero so the store embeds a server timestamp on
// write. Safe to call repeatedly; each call returns an independent copy.
func (a *Accumulator) Record() *models.Submission {
	data := make(map[string]string, len(a.templateData))
	for key, value := range a.templateData {
		data[key] = value
	}

	return &models.Submission{
		AppKey:  a.props["appKey"],
		From:    a.props["appFrom"],
		Spam:    a.props["spam"],
		ToUids:  []string{a.toUids},
		ReplyTo: a.templateData["email"],
		Template: models.SubmissionTemplate{
			Name: a.templateName,
			Data: data,
		},
	}
}

// Redirect returns the post-submit redirect URL, or "" when the template
// has none configured.
func (a *Accumulator) Redirect() string {
	return a.props["urlRedirect"]
}

// TemplateData exposes the current whitelisted template values for the
// spam classifier's field groups.
func (a *Accumulator) TemplateData() map[string]string {
	data := make(map[string]string, len(a.templateData))
	for key, value := range a.templateData {
		data[key] = value
	}
	return data
}
