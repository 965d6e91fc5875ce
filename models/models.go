// models.go
// Defines the core data structures shared by the submit pipeline, the sheet
// sync worker, and the admin API. Firestore field names follow the document
// schema consumed by the downstream notification extension (camelCase).

package models

import (
	"time"
)

// TriState is a configuration gate resolved against a global and an
// app-level value. The global value wins unless it defers to the app.
type TriState int

const (
	ForceOff   TriState = 0
	ForceOn    TriState = 1
	DeferToApp TriState = 2
)

// Resolve applies the gate rule: global off/on is authoritative,
// DeferToApp falls through to the app's own boolean.
func (g TriState) Resolve(app bool) bool {
	switch g {
	case ForceOn:
		return true
	case DeferToApp:
		return app
	default:
		return false
	}
}

// Bool reads an app-level gate value as a plain boolean (0 = false,
// anything else = true).
func (g TriState) Bool() bool {
	return g != ForceOff
}

// Condition holds the tri-state gates on the global config and the
// corresponding booleans on each app config. Firestore stores both shapes
// in the same block; app-level values are read as 0/1.
type Condition struct {
	MessageGlobal TriState `firestore:"messageGlobal" json:"messageGlobal"`
	CORSBypass    TriState `firestore:"corsBypass" json:"corsBypass"`
	SubmitForm    TriState `firestore:"submitForm" json:"submitForm"`
	SpamFilter    TriState `firestore:"spamFilterAkismet" json:"spamFilterAkismet"`
}

// Message is a single user-facing message.
type Message struct {
	Text string `firestore:"text" json:"text"`
}

// Messages is the success/error message pair shown to form submitters.
type Messages struct {
	Success Message `firestore:"success" json:"success"`
	Error   Message `firestore:"error" json:"error"`
}

// AppInfo identifies an app to submitters and to the notification consumer.
// Its keys are part of the submission whitelist.
type AppInfo struct {
	AppName     string `firestore:"appName" json:"appName"`
	AppURL      string `firestore:"appUrl" json:"appUrl"`
	AppFrom     string `firestore:"appFrom" json:"appFrom"`
	AppTimeZone string `firestore:"appTimeZone" json:"appTimeZone"`
}

// Keys returns the whitelisted prop names contributed by app info.
func (a AppInfo) Keys() []string {
	return []string{"appName", "appUrl", "appFrom", "appTimeZone"}
}

// Props returns app info as prop entries, merged over the submission so
// app identity always wins.
func (a AppInfo) Props() map[string]string {
	return map[string]string{
		"appName":     a.AppName,
		"appUrl":      a.AppURL,
		"appFrom":     a.AppFrom,
		"appTimeZone": a.AppTimeZone,
	}
}

// Spreadsheet maps an app to its Google spreadsheet and the per-template
// sheet tabs created so far. SheetIDByTemplate is the only core-owned
// mutable configuration field; the sync engine adds entries when it
// creates a new sheet.
type Spreadsheet struct {
	ID                string           `firestore:"id" json:"id"`
	SheetIDByTemplate map[string]int64 `firestore:"sheetIdByTemplate" json:"sheetIdByTemplate"`
}

// SpamCredentials holds the app's Akismet API key. The blog URL sent to
// Akismet is the app's AppURL.
type SpamCredentials struct {
	Key string `firestore:"key" json:"key"`
}

// AppConfig is one tenant's configuration document. The document ID is the
// app key; AppKey is populated from the ref after reads.
type AppConfig struct {
	AppKey      string          `firestore:"-" json:"appKey"`
	AppInfo     AppInfo         `firestore:"appInfo" json:"appInfo"`
	Condition   Condition       `firestore:"condition" json:"condition"`
	Message     Messages        `firestore:"message" json:"message"`
	Spreadsheet Spreadsheet     `firestore:"spreadsheet" json:"spreadsheet"`
	SpamFilter  SpamCredentials `firestore:"spamFilterAkismet" json:"spamFilterAkismet"`
}

// GlobalConfig is the authoritative flag/message document (global/app).
type GlobalConfig struct {
	Condition Condition `firestore:"condition" json:"condition"`
	Message   Messages  `firestore:"message" json:"message"`
}

// FormField is reference data for one submittable field. The document ID is
// the field id. Required fields are always whitelisted; Default fields
// contribute their Value when the submission omits them; MaxLength > 0
// truncates submitted values.
type FormField struct {
	ID        string `firestore:"-" json:"id"`
	Required  bool   `firestore:"required" json:"required"`
	Default   bool   `firestore:"default" json:"default"`
	Value     string `firestore:"value" json:"value"`
	MaxLength int    `firestore:"maxLength" json:"maxLength"`
}

// TemplateField places one field in a form template: Position orders the
// spreadsheet columns, SheetHeader is the column label.
type TemplateField struct {
	ID          string `firestore:"id" json:"id"`
	Position    int    `firestore:"position" json:"position"`
	SheetHeader string `firestore:"sheetHeader" json:"sheetHeader"`
}

// SpamFieldGroups declares which template fields feed the spam check:
// Content fields are concatenated into one text blob, Other fields are sent
// as discrete key/value pairs.
type SpamFieldGroups struct {
	Content []string `firestore:"content" json:"content"`
	Other   []string `firestore:"other" json:"other"`
}

// FormTemplate is the named, ordered schema for a form. The document ID is
// the template name.
type FormTemplate struct {
	Name            string           `firestore:"-" json:"name"`
	Fields          []TemplateField  `firestore:"fields" json:"fields"`
	SpamFieldGroups *SpamFieldGroups `firestore:"fieldsAkismet,omitempty" json:"fieldsAkismet,omitempty"`
}

// SubmissionTemplate nests the template name and the whitelisted data keys
// inside a submission record.
type SubmissionTemplate struct {
	Name string            `firestore:"name" json:"name"`
	Data map[string]string `firestore:"data" json:"data"`
}

// Submission is the persisted record for one accepted form submission.
// CreatedDateTime carries the serverTimestamp sentinel so the write embeds
// a server-assigned time. ToUids holds exactly one recipient: the app key,
// or the spam suppression sentinel.
type Submission struct {
	AppKey          string             `firestore:"appKey" json:"appKey"`
	CreatedDateTime time.Time          `firestore:"createdDateTime,serverTimestamp" json:"createdDateTime"`
	From            string             `firestore:"from" json:"from"`
	Spam            string             `firestore:"spam,omitempty" json:"spam,omitempty"`
	ToUids          []string           `firestore:"toUids" json:"toUids"`
	ReplyTo         string             `firestore:"replyTo,omitempty" json:"replyTo,omitempty"`
	Template        SubmissionTemplate `firestore:"template" json:"template"`
}

// UserRole defines the access level of an admin API user.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleViewer UserRole = "VIEWER"
)

// User is an admin API account. Submitters are never users; the public
// submit endpoint is unauthenticated by design.
type User struct {
	UserID    string    `firestore:"user_id" json:"user_id"`
	Username  string    `firestore:"username" json:"username"`
	Role      UserRole  `firestore:"role" json:"role"`
	LastLogin time.Time `firestore:"last_login" json:"last_login"`
}

// AuditLog records one admin action.
type AuditLog struct {
	LogID     string    `firestore:"log_id" json:"log_id"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	UserID    string    `firestore:"user_id" json:"user_id"`
	Action    string    `firestore:"action" json:"action"`
	Details   string    `firestore:"details" json:"details"`
}
