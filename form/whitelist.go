package form

import (
	"formgate/models"
)

// Whitelist is the set of prop keys permitted to flow into a submission
// record. It is the union of required form field ids, the submitted
// template's field ids, and the app info keys. Anything else is dropped
// before persistence or spam classification so arbitrary <input> names can
// never reach the document store.
type Whitelist map[string]struct{}

// BuildWhitelist computes the whitelist for one request. It must be rebuilt
// per request because the template portion depends on the submitted
// template name.
func BuildWhitelist(required []models.FormField, template *models.FormTemplate, info models.AppInfo) Whitelist {
	w := make(Whitelist)
	for _, field := range required {
		w[field.ID] = struct{}{}
	}
	for _, field := range template.Fields {
		w[field.ID] = struct{}{}
	}
	for _, key := range info.Keys() {
		w[key] = struct{}{}
	}
	return w
}

// Allows reports whether key may flow into the record.
func (w Whitelist) Allows(key string) bool {
	_, ok := w[key]
	return ok
}

// Filter returns only the entries of props whose keys are whitelisted.
func (w Whitelist) Filter(props map[string]string) map[string]string {
	allowed := make(map[string]string, len(props))
	for key, value := range props {
		if w.Allows(key) {
			allowed[key] = value
		}
	}
	return allowed
}
