package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Bank-sync provider
	BankfeedBaseURL  string
	BankfeedClientID string
	BankfeedSecret   string
	BankfeedTimeout  time.Duration

	// Machine endpoints (sync trigger) and credential sealing
	SyncAPIKey    string
	CredentialKey string // 64 hex chars; see internal/vault
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "moneta"),
		DBPassword: getEnv("DB_PASSWORD", "moneta"),
		DBName:     getEnv("DB_NAME", "moneta"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Bank-sync provider
		BankfeedBaseURL:  getEnv("BANKFEED_BASE_URL", "https://sandbox.plaid.com"),
		BankfeedClientID: getEnv("BANKFEED_CLIENT_ID", ""),
		BankfeedSecret:   getEnv("BANKFEED_SECRET", ""),

		SyncAPIKey:    getEnv("SYNC_API_KEY", ""),
		CredentialKey: getEnv("CREDENTIAL_KEY", ""),
	}

	// Parse the external-call timeout
	timeoutStr := getEnv("BANKFEED_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		log.Printf("Warning: invalid BANKFEED_TIMEOUT value '%s', falling back to 30s\n", timeoutStr)
		timeout = 30 * time.Second
	}
	config.BankfeedTimeout = timeout

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
