package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	JWT       JWTConfig
	Firebase  FirebaseConfig
	Sheets    SheetsConfig
	Akismet   AkismetConfig
	RateLimit RateLimitConfig
	Sync      SyncConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type JWTConfig struct {
	Secret                 string
	Expiration             time.Duration
	RefreshTokenExpiration time.Duration
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

// SheetsConfig covers the Google Sheets service account. The credentials
// file may be the same service account used for Firestore.
type SheetsConfig struct {
	CredentialsPath string
}

// AkismetConfig points at the spam service. Host is overridable so tests
// and self-hosted deployments can redirect the client.
type AkismetConfig struct {
	Host    string
	Timeout time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// SyncConfig tunes the sheet sync worker's retry behaviour.
type SyncConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		JWT: JWTConfig{
			Secret:                 getEnv("JWT_SECRET", "dev-secret-key"),
			Expiration:             parseDuration(getEnv("JWT_EXPIRATION", "30m"), 30*time.Minute),
			RefreshTokenExpiration: parseDuration(getEnv("REFRESH_TOKEN_EXPIRATION", "168h"), 7*24*time.Hour),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: getEnv("SHEETS_CREDENTIALS_PATH", getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json")),
		},
		Akismet: AkismetConfig{
			Host:    getEnv("AKISMET_HOST", "rest.akismet.com"),
			Timeout: parseDuration(getEnv("AKISMET_TIMEOUT", "10s"), 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:   parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
		},
		Sync: SyncConfig{
			MaxAttempts: parseInt(getEnv("SYNC_MAX_ATTEMPTS", "3"), 3),
			Backoff:     parseDuration(getEnv("SYNC_BACKOFF", "2s"), 2*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	// Handle simple formats like "30m", "10s", "60"
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// If it's just a number, assume seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) Validate() {
	if c.JWT.Secret == "dev-secret-key" && c.IsProduction() {
		log.Fatal("JWT_SECRET must be set in production")
	}
	if c.Firebase.ProjectID == "" {
		log.Fatal("FIREBASE_PROJECT_ID must be set")
	}
	if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
		log.Fatalf("Firebase credentials file not found: %s", c.Firebase.CredentialsPath)
	}
	if strings.TrimSpace(c.Akismet.Host) == "" {
		log.Fatal("AKISMET_HOST must not be blank")
	}
}
