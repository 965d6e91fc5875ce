package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"formgate/db"
	"formgate/middleware"
	"formgate/models"
	"formgate/sheets"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type AdminHandler struct {
	db *db.FirestoreDB
}

func NewAdminHandler(firestoreDB *db.FirestoreDB) *AdminHandler {
	return &AdminHandler{
		db: firestoreDB,
	}
}

// audit records one admin action; failures are logged, never surfaced.
func (h *AdminHandler) audit(r *http.Request, action, details string) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return
	}
	entry := &models.AuditLog{
		LogID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    user.UserID,
		Action:    action,
		Details:   details,
	}
	if err := h.db.AddAuditLog(r.Context(), entry); err != nil {
		log.Printf("Warning: failed to write audit log: %v", err)
	}
}

// --- App Config Management ---

// GetApps returns all app configs
func (h *AdminHandler) GetApps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	apps, err := h.db.GetAllApps(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get apps: %v", err)
		writeError(w, "Failed to retrieve apps", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apps)
}

// CreateApp creates a new app config with schema defaults applied
func (h *AdminHandler) CreateApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var app models.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if app.AppKey == "" {
		writeError(w, "appKey is required", http.StatusBadRequest)
		return
	}

	existing, err := h.db.GetApp(r.Context(), app.AppKey)
	if err != nil {
		log.Printf("❌ Failed to check app %s: %v", app.AppKey, err)
		writeError(w, "Failed to create app", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeError(w, "App key already exists", http.StatusConflict)
		return
	}

	db.ApplyAppDefaults(&app)

	if err := h.db.SetApp(r.Context(), &app); err != nil {
		log.Printf("❌ Failed to create app %s: %v", app.AppKey, err)
		writeError(w, "Failed to create app", http.StatusInternalServerError)
		return
	}

	h.audit(r, "APP_CREATE", fmt.Sprintf("Created app '%s'", app.AppKey))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(app)
}

// UpdateApp replaces an existing app config
func (h *AdminHandler) UpdateApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var app models.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if app.AppKey == "" {
		writeError(w, "appKey is required", http.StatusBadRequest)
		return
	}

	existing, err := h.db.GetApp(r.Context(), app.AppKey)
	if err != nil {
		log.Printf("❌ Failed to check app %s: %v", app.AppKey, err)
		writeError(w, "Failed to update app", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		writeError(w, "App not found", http.StatusNotFound)
		return
	}

	// The sheet-id map is owned by the sync engine; an admin update must
	// not clobber tabs that were already created.
	if app.Spreadsheet.SheetIDByTemplate == nil {
		app.Spreadsheet.SheetIDByTemplate = existing.Spreadsheet.SheetIDByTemplate
	}

	if err := h.db.SetApp(r.Context(), &app); err != nil {
		log.Printf("❌ Failed to update app %s: %v", app.AppKey, err)
		writeError(w, "Failed to update app", http.StatusInternalServerError)
		return
	}

	h.audit(r, "APP_UPDATE", fmt.Sprintf("Updated app '%s'", app.AppKey))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(app)
}

type DeleteAppRequest struct {
	AppKey string `json:"appKey"`
}

// DeleteApp deletes an app config
func (h *AdminHandler) DeleteApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DeleteAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.AppKey == "" {
		writeError(w, "appKey is required", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteApp(r.Context(), req.AppKey); err != nil {
		log.Printf("❌ Failed to delete app %s: %v", req.AppKey, err)
		writeError(w, "Failed to delete app", http.StatusInternalServerError)
		return
	}

	h.audit(r, "APP_DELETE", fmt.Sprintf("Deleted app '%s'", req.AppKey))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// --- Form Template Management ---

// GetTemplates returns all form templates
func (h *AdminHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	templates, err := h.db.GetAllTemplates(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get templates: %v", err)
		writeError(w, "Failed to retrieve templates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(templates)
}

// CreateTemplate creates or replaces a form template
func (h *AdminHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var template models.FormTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if template.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	db.ApplyTemplateDefaults(&template)

	if err := h.db.SetTemplate(r.Context(), &template); err != nil {
		log.Printf("❌ Failed to set template %s: %v", template.Name, err)
		writeError(w, "Failed to save template", http.StatusInternalServerError)
		return
	}

	h.audit(r, "TEMPLATE_SAVE", fmt.Sprintf("Saved template '%s'", template.Name))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(template)
}

type DeleteTemplateRequest struct {
	Name string `json:"name"`
}

// DeleteTemplate deletes a form template
func (h *AdminHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DeleteTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteTemplate(r.Context(), req.Name); err != nil {
		log.Printf("❌ Failed to delete template %s: %v", req.Name, err)
		writeError(w, "Failed to delete template", http.StatusInternalServerError)
		return
	}

	h.audit(r, "TEMPLATE_DELETE", fmt.Sprintf("Deleted template '%s'", req.Name))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// --- Submission Export ---

// ExportSubmissions streams one app's submissions as CSV, columns ordered
// by the requested template's field positions.
func (h *AdminHandler) ExportSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	appKey := query.Get("appKey")
	templateName := query.Get("template")
	if appKey == "" || templateName == "" {
		writeError(w, "appKey and template query parameters are required", http.StatusBadRequest)
		return
	}

	app, err := h.db.GetApp(r.Context(), appKey)
	if err != nil || app == nil {
		writeError(w, "App not found", http.StatusNotFound)
		return
	}

	template, err := h.db.GetTemplate(r.Context(), templateName)
	if err != nil || template == nil {
		writeError(w, "Template not found", http.StatusNotFound)
		return
	}

	submissions, err := h.db.GetSubmissionsByApp(r.Context(), appKey)
	if err != nil {
		log.Printf("❌ Failed to get submissions for app %s: %v", appKey, err)
		writeError(w, "Failed to retrieve submissions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s.csv", appKey, templateName))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write(csvRow(sheets.HeaderRow(template)))
	for _, submission := range submissions {
		if submission.Template.Name != templateName {
			continue
		}
		row := sheets.DataRow(template, app, submission.CreatedDateTime, submission.Template.Data)
		writer.Write(csvRow(row))
	}

	h.audit(r, "DATA_EXPORT", fmt.Sprintf("Exported submissions for app '%s' template '%s'", appKey, templateName))
}

// csvRow flattens a single-row grid into CSV cells.
func csvRow(grid [][]interface{}) []string {
	if len(grid) == 0 {
		return nil
	}
	cells := make([]string, 0, len(grid[0]))
	for _, cell := range grid[0] {
		cells = append(cells, fmt.Sprintf("%v", cell))
	}
	return cells
}
