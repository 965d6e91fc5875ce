// main.go
// Formgate API - webform ingestion for multi-app configurations.
// Receives form submissions over HTTP, persists them to Firestore, and
// projects each new record into the owning app's Google spreadsheet.

package main

import (
	"context"
	"fmt"
	"formgate/auth"
	"formgate/config"
	"formgate/db"
	"formgate/form"
	"formgate/handlers"
	"formgate/middleware"
	"formgate/models"
	"formgate/sheets"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting Formgate API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firestore
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	// Initialize Google Sheets service
	sheetService, err := sheets.NewGoogleService(ctx, cfg.Sheets.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Sheets client: %v", err)
	}
	log.Printf("✅ Sheets client initialized")

	// Initialize JWT Manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Spam checker factory: one client per request, from the app's
	// credentials.
	newChecker := func(key, blog string) form.SpamChecker {
		return form.NewAkismetClient(key, blog, cfg.Akismet.Host, cfg.Akismet.Timeout)
	}

	// Initialize handlers
	submitHandler := handlers.NewSubmitHandler(firestoreDB, newChecker)
	authHandler := handlers.NewAuthHandler(firestoreDB, jwtManager)
	adminHandler := handlers.NewAdminHandler(firestoreDB)
	log.Printf("✅ Handlers initialized")

	// Initialize sheet sync pipeline on the submission change feed
	syncEngine := sheets.NewEngine(sheetService, firestoreDB, cfg.Sync.MaxAttempts, cfg.Sync.Backoff)
	pipeline := sheets.NewPipeline(firestoreDB, syncEngine)
	go pipeline.Run(ctx, firestoreDB.WatchSubmissions, 5*time.Second)
	log.Printf("📊 Sheet sync pipeline started")

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/submit", submitHandler.Submit)
	mux.HandleFunc("/api/login", authHandler.Login)
	mux.HandleFunc("/api/refresh", authHandler.RefreshToken)

	// Admin routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(jwtManager, firestoreDB)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	viewerOrAdmin := middleware.RequireRole(models.RoleViewer, models.RoleAdmin)

	mux.Handle("/api/admin/apps", authMiddleware(viewerOrAdmin(http.HandlerFunc(adminHandler.GetApps))))
	mux.Handle("/api/admin/apps/create", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.CreateApp))))
	mux.Handle("/api/admin/apps/update", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.UpdateApp))))
	mux.Handle("/api/admin/apps/delete", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.DeleteApp))))
	mux.Handle("/api/admin/templates", authMiddleware(viewerOrAdmin(http.HandlerFunc(adminHandler.GetTemplates))))
	mux.Handle("/api/admin/templates/create", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.CreateTemplate))))
	mux.Handle("/api/admin/templates/delete", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.DeleteTemplate))))
	mux.Handle("/api/admin/users/create", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.CreateUser))))
	mux.Handle("/api/admin/export", authMiddleware(viewerOrAdmin(http.HandlerFunc(adminHandler.ExportSubmissions))))

	// Apply global middleware
	handler := rateLimiter.Middleware()(mux)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
