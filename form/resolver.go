// Package form implements the submission pipeline core: per-request config
// resolution, field whitelisting, prop accumulation, and spam
// classification. Everything here is pure or talks to collaborators through
// narrow interfaces; HTTP plumbing lives in handlers.
package form

import (
	"formgate/models"
)

// Decision is the effective per-request configuration after merging the
// global config with one app's config through the tri-state gates.
type Decision struct {
	Messages    models.Messages
	EnforceCORS bool
	AllowOrigin string
	SubmitOn    bool
	SpamCheckOn bool
}

// ResolveConfig merges global and app configuration. Each gate resolves
// independently: global off/on wins, defer uses the app's own value.
func ResolveConfig(global *models.GlobalConfig, app *models.AppConfig) Decision {
	d := Decision{}

	if global.Condition.MessageGlobal.Resolve(app.Condition.MessageGlobal.Bool()) {
		d.Messages = global.Message
	} else {
		d.Messages = app.Message
	}

	// CORS is enforced unless the bypass gate resolves on. When enforced
	// the allow-origin header is pinned to the app's registered URL;
	// otherwise any origin (e.g. localhost) may submit.
	d.EnforceCORS = !global.Condition.CORSBypass.Resolve(app.Condition.CORSBypass.Bool())
	if d.EnforceCORS {
		d.AllowOrigin = app.AppInfo.AppURL
	} else {
		d.AllowOrigin = "*"
	}

	d.SubmitOn = global.Condition.SubmitForm.Resolve(app.Condition.SubmitForm.Bool())
	d.SpamCheckOn = global.Condition.SpamFilter.Resolve(app.Condition.SpamFilter.Bool())

	return d
}
