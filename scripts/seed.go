package main

import (
	"context"
	"fmt"
	"formgate/auth"
	"formgate/config"
	"formgate/db"
	"formgate/models"
	"log"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedGlobalConfig(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed global config: %v", err)
	}

	if err := seedFormFields(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed form fields: %v", err)
	}

	if err := seedTemplates(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed templates: %v", err)
	}

	if err := seedApps(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed apps: %v", err)
	}

	if err := seedUsers(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedGlobalConfig(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	global := &models.GlobalConfig{
		Condition: models.Condition{
			MessageGlobal: models.DeferToApp,
			CORSBypass:    models.DeferToApp,
			SubmitForm:    models.DeferToApp,
			SpamFilter:    models.DeferToApp,
		},
		Message: models.Messages{
			Success: models.Message{Text: "Thanks, your message was sent."},
			Error:   models.Message{Text: "An error occurred. Please try again later."},
		},
	}

	if err := firestoreDB.SetGlobal(ctx, global); err != nil {
		return err
	}
	log.Println("  ✓ Created global config")
	return nil
}

func seedFormFields(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	fields := []models.FormField{
		{ID: "appKey", Required: true, MaxLength: 64},
		{ID: "templateName", Required: true, MaxLength: 64},
		{ID: "webformId", Required: true, MaxLength: 64},
		// Required as well as default so the whitelist passes it through.
		{ID: "urlRedirect", Required: true, Default: true, Value: ""},
		{ID: "name", MaxLength: 80},
		{ID: "email", MaxLength: 120},
		{ID: "phone", MaxLength: 32},
		{ID: "message", MaxLength: 2000},
	}

	for _, field := range fields {
		if err := firestoreDB.SetFormField(ctx, &field); err != nil {
			return fmt.Errorf("failed to create form field %s: %w", field.ID, err)
		}
		log.Printf("  ✓ Created form field: %s", field.ID)
	}

	return nil
}

func seedTemplates(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	templates := []models.FormTemplate{
		{
			Name: "contactDefault",
			Fields: []models.TemplateField{
				{ID: "name", Position: 0, SheetHeader: "Name"},
				{ID: "email", Position: 1, SheetHeader: "Email"},
				{ID: "phone", Position: 2, SheetHeader: "Phone"},
				{ID: "message", Position: 3, SheetHeader: "Message"},
			},
			SpamFieldGroups: &models.SpamFieldGroups{
				Content: []string{"message"},
				Other:   []string{"name", "email"},
			},
		},
	}

	for _, template := range templates {
		db.ApplyTemplateDefaults(&template)
		if err := firestoreDB.SetTemplate(ctx, &template); err != nil {
			return fmt.Errorf("failed to create template %s: %w", template.Name, err)
		}
		log.Printf("  ✓ Created template: %s", template.Name)
	}

	return nil
}

func seedApps(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	apps := []models.AppConfig{
		{
			AppKey: "demo",
			AppInfo: models.AppInfo{
				AppName:     "Demo Site",
				AppURL:      "https://demo.example.com",
				AppFrom:     "Demo Site <noreply@demo.example.com>",
				AppTimeZone: "America/New_York",
			},
			Condition: models.Condition{
				MessageGlobal: models.ForceOff,
				CORSBypass:    models.ForceOn,
				SubmitForm:    models.ForceOn,
				SpamFilter:    models.ForceOff,
			},
			Message: models.Messages{
				Success: models.Message{Text: "Thanks, your message was sent to Demo Site."},
				Error:   models.Message{Text: "An error occurred. Please try again later."},
			},
			Spreadsheet: models.Spreadsheet{
				ID:                "",
				SheetIDByTemplate: map[string]int64{},
			},
		},
	}

	for _, app := range apps {
		db.ApplyAppDefaults(&app)
		if err := firestoreDB.SetApp(ctx, &app); err != nil {
			return fmt.Errorf("failed to create app %s: %w", app.AppKey, err)
		}
		log.Printf("  ✓ Created app: %s", app.AppKey)
	}

	return nil
}

func seedUsers(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	users := []struct {
		User     models.User
		Password string
	}{
		{
			User: models.User{
				UserID:    "user-admin",
				Username:  "admin",
				Role:      models.RoleAdmin,
				LastLogin: time.Now(),
			},
			Password: "changeme123",
		},
		{
			User: models.User{
				UserID:    "user-viewer",
				Username:  "viewer",
				Role:      models.RoleViewer,
				LastLogin: time.Now(),
			},
			Password: "changeme123",
		},
	}

	for _, userData := range users {
		if err := firestoreDB.CreateUser(ctx, &userData.User); err != nil {
			return fmt.Errorf("failed to create user %s: %w", userData.User.Username, err)
		}

		passwordHash, err := auth.HashPassword(userData.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", userData.User.Username, err)
		}

		if err := firestoreDB.StorePasswordHash(ctx, userData.User.UserID, passwordHash); err != nil {
			return fmt.Errorf("failed to store password for %s: %w", userData.User.Username, err)
		}

		log.Printf("  ✓ Created user: %s (role: %s)", userData.User.Username, userData.User.Role)
	}

	return nil
}
