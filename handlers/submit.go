package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"formgate/form"
	"formgate/models"
)

// SubmitStore is the document-store surface the submit pipeline consumes.
// *db.FirestoreDB satisfies it.
type SubmitStore interface {
	GetApp(ctx context.Context, appKey string) (*models.AppConfig, error)
	GetGlobal(ctx context.Context) (*models.GlobalConfig, error)
	GetRequiredFields(ctx context.Context) ([]models.FormField, error)
	GetDefaultFields(ctx context.Context) ([]models.FormField, error)
	GetAllFormFields(ctx context.Context) ([]models.FormField, error)
	GetTemplate(ctx context.Context, name string) (*models.FormTemplate, error)
	CreateSubmission(ctx context.Context, submission *models.Submission) (string, error)
}

// SpamCheckerFactory builds a spam service client from one app's
// credentials. Injected so tests can substitute a fake service.
type SpamCheckerFactory func(key, blog string) form.SpamChecker

// fallbackError is used when a failure happens before the app's configured
// messages are resolved.
var fallbackError = models.Message{Text: "An error occurred. Please try again later."}

type SubmitHandler struct {
	db         SubmitStore
	newChecker SpamCheckerFactory
}

func NewSubmitHandler(store SubmitStore, newChecker SpamCheckerFactory) *SubmitHandler {
	return &SubmitHandler{
		db:         store,
		newChecker: newChecker,
	}
}

type submitSuccessBody struct {
	Redirect interface{}    `json:"redirect"`
	Message  models.Message `json:"message"`
}

type submitSuccess struct {
	Data submitSuccessBody `json:"data"`
}

type submitErrorBody struct {
	Message models.Message `json:"message"`
}

type submitError struct {
	Error submitErrorBody `json:"error"`
}

// Submit ingests one webform submission: validates the request against the
// app's resolved configuration, whitelists the submitted fields, optionally
// classifies spam, and persists the record. The persisted record is the
// durability boundary; the spreadsheet projection happens downstream off
// the store's change feed.
//
// Untrusted requests (wrong content type, unknown app key, CORS mismatch)
// are terminated with an empty response and no error body: they are
// expected probe noise, not application failures.
func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	// The form posts a JSON body encoded as text/plain so browsers skip
	// the CORS preflight; anything else is terminated unread.
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if contentType != "text/plain" {
		log.Printf("⚠️  Request header 'content-type' must be 'text/plain'")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("⚠️  Failed to read submission body: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("⚠️  Submission body is not valid JSON: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	submitted := stringValues(raw)

	// Unknown app keys terminate silently: submit is not from an
	// approved app, so no error is surfaced to guide probing.
	app, err := h.db.GetApp(ctx, submitted["appKey"])
	if err != nil {
		log.Printf("❌ Failed to load app config: %v", err)
		writeSubmitError(w, fallbackError)
		return
	}
	if app == nil {
		log.Printf("⚠️  App Key does not exist.")
		w.WriteHeader(http.StatusOK)
		return
	}

	global, err := h.db.GetGlobal(ctx)
	if err != nil {
		log.Printf("❌ Failed to load global config: %v", err)
		writeSubmitError(w, fallbackError)
		return
	}

	decision := form.ResolveConfig(global, app)
	w.Header().Set("Access-Control-Allow-Origin", decision.AllowOrigin)

	if decision.EnforceCORS && r.Header.Get("Origin") != app.AppInfo.AppURL {
		log.Printf("⚠️  CORS Access Control: Origin URL does not match App URL.")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Submit disabled is surfaced: the request did come from an approved
	// app, so it gets the configured error message.
	if !decision.SubmitOn {
		log.Printf("⚠️  Form submit disabled for app %q", app.AppInfo.AppName)
		writeSubmitError(w, decision.Messages.Error)
		return
	}

	record, redirect, err := h.buildRecord(ctx, app, submitted, clientIP(r), r.UserAgent(), decision.SpamCheckOn)
	if err != nil {
		log.Printf("❌ Failed to process submission for app %s: %v", app.AppKey, err)
		writeSubmitError(w, decision.Messages.Error)
		return
	}

	id, err := h.db.CreateSubmission(ctx, record)
	if err != nil {
		log.Printf("❌ Failed to persist submission for app %s: %v", app.AppKey, err)
		writeSubmitError(w, decision.Messages.Error)
		return
	}

	log.Printf("📨 Submission %s persisted for app %s (template %s)", id, app.AppKey, record.Template.Name)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submitSuccess{
		Data: submitSuccessBody{
			Redirect: redirectValue(redirect),
			Message:  decision.Messages.Success,
		},
	})
}

// buildRecord runs whitelisting, accumulation, and the optional spam pass
// for one approved submission.
func (h *SubmitHandler) buildRecord(ctx context.Context, app *models.AppConfig, submitted map[string]string, ip, userAgent string, spamCheckOn bool) (*models.Submission, string, error) {
	templateName := submitted["templateName"]
	template, err := h.db.GetTemplate(ctx, templateName)
	if err != nil {
		return nil, "", err
	}
	if template == nil {
		return nil, "", fmt.Errorf("form template %q does not exist", templateName)
	}

	required, err := h.db.GetRequiredFields(ctx)
	if err != nil {
		return nil, "", err
	}
	defaults, err := h.db.GetDefaultFields(ctx)
	if err != nil {
		return nil, "", err
	}
	allFields, err := h.db.GetAllFormFields(ctx)
	if err != nil {
		return nil, "", err
	}

	maxLengths := make(map[string]int, len(allFields))
	for _, field := range allFields {
		maxLengths[field.ID] = field.MaxLength
	}

	// Consolidate props, last-in wins: app key, field defaults, the
	// submission itself, then app info so app identity can't be spoofed.
	propsAll := map[string]string{"appKey": app.AppKey}
	for _, field := range defaults {
		propsAll[field.ID] = field.Value
	}
	for key, value := range submitted {
		propsAll[key] = value
	}
	for key, value := range app.AppInfo.Props() {
		propsAll[key] = value
	}
	// appKey and templateName reach the record because the formField
	// collection marks them required; the whitelist never hardcodes them.
	whitelist := form.BuildWhitelist(required, template, app.AppInfo)

	accumulator := form.NewAccumulator(template, maxLengths)
	accumulator.Set(whitelist.Filter(propsAll))

	if spamCheckOn {
		checker := h.newChecker(app.SpamFilter.Key, app.AppInfo.AppURL)
		classifier := form.NewClassifier(checker)
		if verdict := classifier.Classify(ctx, template, accumulator.TemplateData(), ip, userAgent); verdict != nil {
			accumulator.Set(verdict)
		}
	}

	return accumulator.Record(), accumulator.Redirect(), nil
}

// stringValues flattens a decoded JSON object to string props the way the
// form posts them. Non-string values (numbers, booleans, multi-select
// arrays) are stringified rather than dropped; nulls carry no value.
func stringValues(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case nil:
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// redirectValue mirrors the historical response contract: a URL string
// when a redirect is configured, boolean false otherwise.
func redirectValue(redirect string) interface{} {
	if redirect == "" {
		return false
	}
	return redirect
}

func writeSubmitError(w http.ResponseWriter, message models.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(submitError{
		Error: submitErrorBody{Message: message},
	})
}

// clientIP extracts the requester's network address for spam
// classification, honouring the proxy header like the rate limiter does.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
