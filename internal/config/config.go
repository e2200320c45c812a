package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store kinds for persisted OAuth tokens.
const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
)

// Settings holds the runtime configuration of the action server. Values are
// resolved from the environment (prefix CALACTIONS_) with sensible defaults;
// command-line flags may override individual fields afterwards.
type Settings struct {
	// HTTP action server
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	// Google Calendar access
	CredentialsFile string // OAuth client secret JSON
	TokenStore      string // "file" or "sqlite"
	TokenFile       string // token path for the file store
	TokenDB         string // database path for the sqlite store
	Account         string // account key within the store
	CalendarID      string

	Debug bool
}

// Load resolves settings from a .env file (when present) and the process
// environment.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Settings{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("CALACTIONS")
	v.AutomaticEnv()

	_ = v.BindEnv("host", "CALACTIONS_HOST")
	_ = v.BindEnv("port", "CALACTIONS_PORT")
	_ = v.BindEnv("shutdown_timeout_seconds", "CALACTIONS_SHUTDOWN_TIMEOUT_SECONDS")
	_ = v.BindEnv("credentials_file", "CALACTIONS_CREDENTIALS_FILE", "GOOGLE_CREDENTIALS_FILE")
	_ = v.BindEnv("token_store", "CALACTIONS_TOKEN_STORE")
	_ = v.BindEnv("token_file", "CALACTIONS_TOKEN_FILE", "GOOGLE_TOKEN_FILE")
	_ = v.BindEnv("token_db", "CALACTIONS_TOKEN_DB")
	_ = v.BindEnv("account", "CALACTIONS_ACCOUNT")
	_ = v.BindEnv("calendar_id", "CALACTIONS_CALENDAR_ID")
	_ = v.BindEnv("debug", "CALACTIONS_DEBUG")

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5055)
	v.SetDefault("shutdown_timeout_seconds", 10)
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_store", TokenStoreFile)
	v.SetDefault("token_file", "token.json")
	v.SetDefault("token_db", "tokens.db")
	v.SetDefault("account", "default")
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("debug", false)

	port := v.GetInt("port")
	if port < 1 || port > 65535 {
		return Settings{}, fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}

	shutdownSeconds := v.GetInt("shutdown_timeout_seconds")
	if shutdownSeconds <= 0 {
		shutdownSeconds = 10
	}

	store := strings.ToLower(strings.TrimSpace(v.GetString("token_store")))
	switch store {
	case TokenStoreFile, TokenStoreSQLite:
	default:
		return Settings{}, fmt.Errorf("invalid token store %q: must be %q or %q", store, TokenStoreFile, TokenStoreSQLite)
	}

	host := strings.TrimSpace(v.GetString("host"))
	if host == "" {
		host = "0.0.0.0"
	}

	account := strings.TrimSpace(v.GetString("account"))
	if account == "" {
		account = "default"
	}

	calendarID := strings.TrimSpace(v.GetString("calendar_id"))
	if calendarID == "" {
		calendarID = "primary"
	}

	return Settings{
		Host:            host,
		Port:            port,
		ShutdownTimeout: time.Duration(shutdownSeconds) * time.Second,
		CredentialsFile: v.GetString("credentials_file"),
		TokenStore:      store,
		TokenFile:       v.GetString("token_file"),
		TokenDB:         v.GetString("token_db"),
		Account:         account,
		CalendarID:      calendarID,
		Debug:           v.GetBool("debug"),
	}, nil
}
