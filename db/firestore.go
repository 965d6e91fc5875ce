package db

import (
	"context"
	"fmt"
	"formgate/models"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Collection names. The camelCase names are fixed by the document schema
// the notification consumer reads.
const (
	CollectionApp        = "app"
	CollectionGlobal     = "global"
	CollectionFormField  = "formField"
	CollectionTemplate   = "formTemplate"
	CollectionSubmitForm = "submitForm"
	CollectionUsers      = "users"
	CollectionPasswords  = "passwords"
	CollectionAuditLog   = "auditLog"
)

// FirestoreDB wraps the Firestore client
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB initializes a new Firestore client
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &FirestoreDB{client: client}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// --- App Config Operations ---

// GetApp retrieves an app config by app key. Returns (nil, nil) when the
// key does not resolve to a document: unknown app keys are expected noise
// on the public endpoint, not errors.
func (db *FirestoreDB) GetApp(ctx context.Context, appKey string) (*models.AppConfig, error) {
	doc, err := db.client.Collection(CollectionApp).Doc(appKey).Get(ctx)
	if doc != nil && !doc.Exists() {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app %s: %w", appKey, err)
	}

	var app models.AppConfig
	if err := doc.DataTo(&app); err != nil {
		return nil, fmt.Errorf("failed to parse app %s: %w", appKey, err)
	}
	app.AppKey = doc.Ref.ID

	return &app, nil
}

// GetAllApps retrieves every app config.
func (db *FirestoreDB) GetAllApps(ctx context.Context) ([]models.AppConfig, error) {
	iter := db.client.Collection(CollectionApp).Documents(ctx)
	defer iter.Stop()

	var apps []models.AppConfig
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate apps: %w", err)
		}

		var app models.AppConfig
		if err := doc.DataTo(&app); err != nil {
			log.Printf("Warning: failed to parse app %s: %v", doc.Ref.ID, err)
			continue
		}
		app.AppKey = doc.Ref.ID
		apps = append(apps, app)
	}

	return apps, nil
}

// SetApp creates or replaces an app config document.
func (db *FirestoreDB) SetApp(ctx context.Context, app *models.AppConfig) error {
	_, err := db.client.Collection(CollectionApp).Doc(app.AppKey).Set(ctx, app)
	if err != nil {
		return fmt.Errorf("failed to set app %s: %w", app.AppKey, err)
	}
	return nil
}

// DeleteApp deletes an app config document.
func (db *FirestoreDB) DeleteApp(ctx context.Context, appKey string) error {
	_, err := db.client.Collection(CollectionApp).Doc(appKey).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete app %s: %w", appKey, err)
	}
	return nil
}

// SetSheetID records a newly created sheet tab id under the app's
// spreadsheet.sheetIdByTemplate map. Called by the sync engine only.
func (db *FirestoreDB) SetSheetID(ctx context.Context, appKey, templateName string, sheetID int64) error {
	_, err := db.client.Collection(CollectionApp).Doc(appKey).Update(ctx, []firestore.Update{
		{
			FieldPath: firestore.FieldPath{"spreadsheet", "sheetIdByTemplate", templateName},
			Value:     sheetID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to record sheet id for app %s template %s: %w", appKey, templateName, err)
	}
	return nil
}

// --- Global Config Operations ---

// GetGlobal retrieves the global config document (global/app).
func (db *FirestoreDB) GetGlobal(ctx context.Context) (*models.GlobalConfig, error) {
	doc, err := db.client.Collection(CollectionGlobal).Doc("app").Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get global config: %w", err)
	}

	var global models.GlobalConfig
	if err := doc.DataTo(&global); err != nil {
		return nil, fmt.Errorf("failed to parse global config: %w", err)
	}

	return &global, nil
}

// SetGlobal creates or replaces the global config document.
func (db *FirestoreDB) SetGlobal(ctx context.Context, global *models.GlobalConfig) error {
	_, err := db.client.Collection(CollectionGlobal).Doc("app").Set(ctx, global)
	if err != nil {
		return fmt.Errorf("failed to set global config: %w", err)
	}
	return nil
}

// --- Form Field Operations ---

// queryFormFields runs one boolean-flag query over the formField collection.
func (db *FirestoreDB) queryFormFields(ctx context.Context, flag string) ([]models.FormField, error) {
	iter := db.client.Collection(CollectionFormField).
		Where(flag, "==", true).
		Documents(ctx)
	defer iter.Stop()

	var fields []models.FormField
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate form fields: %w", err)
		}

		var field models.FormField
		if err := doc.DataTo(&field); err != nil {
			log.Printf("Warning: failed to parse form field %s: %v", doc.Ref.ID, err)
			continue
		}
		field.ID = doc.Ref.ID
		fields = append(fields, field)
	}

	return fields, nil
}

// GetRequiredFields retrieves form fields with required == true. Their ids
// are always part of the submission whitelist.
func (db *FirestoreDB) GetRequiredFields(ctx context.Context) ([]models.FormField, error) {
	return db.queryFormFields(ctx, "required")
}

// GetDefaultFields retrieves form fields with default == true. Their values
// seed the submission props when the submitter omits them.
func (db *FirestoreDB) GetDefaultFields(ctx context.Context) ([]models.FormField, error) {
	return db.queryFormFields(ctx, "default")
}

// GetAllFormFields retrieves every form field definition.
func (db *FirestoreDB) GetAllFormFields(ctx context.Context) ([]models.FormField, error) {
	iter := db.client.Collection(CollectionFormField).Documents(ctx)
	defer iter.Stop()

	var fields []models.FormField
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate form fields: %w", err)
		}

		var field models.FormField
		if err := doc.DataTo(&field); err != nil {
			log.Printf("Warning: failed to parse form field %s: %v", doc.Ref.ID, err)
			continue
		}
		field.ID = doc.Ref.ID
		fields = append(fields, field)
	}

	return fields, nil
}

// SetFormField creates or replaces a form field definition.
func (db *FirestoreDB) SetFormField(ctx context.Context, field *models.FormField) error {
	_, err := db.client.Collection(CollectionFormField).Doc(field.ID).Set(ctx, field)
	if err != nil {
		return fmt.Errorf("failed to set form field %s: %w", field.ID, err)
	}
	return nil
}

// --- Form Template Operations ---

// GetTemplate retrieves a form template by name. Returns (nil, nil) when
// the template does not exist.
func (db *FirestoreDB) GetTemplate(ctx context.Context, name string) (*models.FormTemplate, error) {
	doc, err := db.client.Collection(CollectionTemplate).Doc(name).Get(ctx)
	if doc != nil && !doc.Exists() {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", name, err)
	}

	var template models.FormTemplate
	if err := doc.DataTo(&template); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	template.Name = doc.Ref.ID

	return &template, nil
}

// GetAllTemplates retrieves every form template.
func (db *FirestoreDB) GetAllTemplates(ctx context.Context) ([]models.FormTemplate, error) {
	iter := db.client.Collection(CollectionTemplate).Documents(ctx)
	defer iter.Stop()

	var templates []models.FormTemplate
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate templates: %w", err)
		}

		var template models.FormTemplate
		if err := doc.DataTo(&template); err != nil {
			log.Printf("Warning: failed to parse template %s: %v", doc.Ref.ID, err)
			continue
		}
		template.Name = doc.Ref.ID
		templates = append(templates, template)
	}

	return templates, nil
}

// SetTemplate creates or replaces a form template document.
func (db *FirestoreDB) SetTemplate(ctx context.Context, template *models.FormTemplate) error {
	_, err := db.client.Collection(CollectionTemplate).Doc(template.Name).Set(ctx, template)
	if err != nil {
		return fmt.Errorf("failed to set template %s: %w", template.Name, err)
	}
	return nil
}

// DeleteTemplate deletes a form template document.
func (db *FirestoreDB) DeleteTemplate(ctx context.Context, name string) error {
	_, err := db.client.Collection(CollectionTemplate).Doc(name).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	return nil
}

// --- Submission Operations ---

// CreateSubmission persists a new submission record under a generated
// document id. The doc ref is created first so the serverTimestamp
// sentinel on CreatedDateTime is resolved on the initial Set.
func (db *FirestoreDB) CreateSubmission(ctx context.Context, submission *models.Submission) (string, error) {
	ref := db.client.Collection(CollectionSubmitForm).NewDoc()
	if _, err := ref.Set(ctx, submission); err != nil {
		return "", fmt.Errorf("failed to create submission: %w", err)
	}
	return ref.ID, nil
}

// GetSubmissionsByApp retrieves all submissions for one app, for export.
func (db *FirestoreDB) GetSubmissionsByApp(ctx context.Context, appKey string) ([]models.Submission, error) {
	iter := db.client.Collection(CollectionSubmitForm).
		Where("appKey", "==", appKey).
		Documents(ctx)
	defer iter.Stop()

	var submissions []models.Submission
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate submissions: %w", err)
		}

		var submission models.Submission
		if err := doc.DataTo(&submission); err != nil {
			log.Printf("Warning: failed to parse submission %s: %v", doc.Ref.ID, err)
			continue
		}
		submissions = append(submissions, submission)
	}

	return submissions, nil
}

// WatchSubmissions streams newly created submission records to handle,
// replacing the Firestore onCreate trigger of the hosted runtime. The
// initial snapshot (pre-existing documents) is skipped; only documents
// added after the listener starts are delivered. Blocks until ctx is
// cancelled.
func (db *FirestoreDB) WatchSubmissions(ctx context.Context, handle func(id string, submission *models.Submission)) error {
	snapshots := db.client.Collection(CollectionSubmitForm).Snapshots(ctx)
	defer snapshots.Stop()

	first := true
	for {
		snap, err := snapshots.Next()
		if err != nil {
			return fmt.Errorf("submission watch stopped: %w", err)
		}
		if first {
			first = false
			continue
		}

		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}

			var submission models.Submission
			if err := change.Doc.DataTo(&submission); err != nil {
				log.Printf("Warning: failed to parse submission %s: %v", change.Doc.Ref.ID, err)
				continue
			}
			handle(change.Doc.Ref.ID, &submission)
		}
	}
}

// --- User Operations ---

// CreateUser creates a new admin user in Firestore
func (db *FirestoreDB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := db.client.Collection(CollectionUsers).Doc(user.UserID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *FirestoreDB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	doc, err := db.client.Collection(CollectionUsers).Doc(userID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (db *FirestoreDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	iter := db.client.Collection(CollectionUsers).
		Where("username", "==", username).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// UpdateUser updates an existing user
func (db *FirestoreDB) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := db.client.Collection(CollectionUsers).Doc(user.UserID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a user
func (db *FirestoreDB) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := db.client.Collection(CollectionPasswords).Doc(userID).Set(ctx, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GetPasswordHash retrieves a password hash for a user
func (db *FirestoreDB) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	doc, err := db.client.Collection(CollectionPasswords).Doc(userID).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}

	data := doc.Data()
	if hash, ok := data["password_hash"].(string); ok {
		return hash, nil
	}

	return "", fmt.Errorf("password hash not found for user: %s", userID)
}

// --- Audit Operations ---

// AddAuditLog appends one admin action to the audit trail.
func (db *FirestoreDB) AddAuditLog(ctx context.Context, entry *models.AuditLog) error {
	_, err := db.client.Collection(CollectionAuditLog).Doc(entry.LogID).Set(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
