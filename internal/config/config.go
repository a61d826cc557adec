package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Document store backends
const (
	BackendNotion = "notion"
	BackendSQLite = "sqlite"
)

const placeholderPrefix = "YOUR_"

// Config represents the application configuration
type Config struct {
	Strava   StravaConfig   `json:"strava"`
	Withings WithingsConfig `json:"withings"`
	Notion   NotionConfig   `json:"notion"`
	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`

	HTTPTimeout string `json:"http_timeout"` // Go duration, e.g. "30s"
	LogLevel    string `json:"log_level"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	VerifyToken  string `json:"verify_token"`  // webhook subscription handshake
	RefreshToken string `json:"refresh_token"` // seeds the token cache
}

// WithingsConfig holds Withings API credentials
type WithingsConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	APIURL       string `json:"api_url"`
}

// NotionConfig holds the document store credentials and database ids
type NotionConfig struct {
	Secret                   string `json:"secret"`
	WorkoutDatabaseID        string `json:"workout_database_id"`
	AthleteProfileDatabaseID string `json:"athlete_profile_database_id"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Address string `json:"address"`
	APIKey  string `json:"api_key"`
}

// StorageConfig selects where workouts and tokens live
type StorageConfig struct {
	Backend string `json:"backend"` // "notion" or "sqlite"
	DBPath  string `json:"db_path"` // token cache, and pages for the sqlite backend
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Withings: WithingsConfig{
			APIURL: "https://wbsapi.withings.net",
		},
		Notion: NotionConfig{
			WorkoutDatabaseID:        "workouts",
			AthleteProfileDatabaseID: "athlete_profile",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Storage: StorageConfig{
			Backend: BackendNotion,
		},
		HTTPTimeout: "30s",
		LogLevel:    "info",
	}
}

// Load reads ~/.fitsync/config.json, fills defaults and applies
// environment overrides. A missing file is not an error: the environment
// alone may configure the service.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if errors.Is(err, ErrNoConfig) {
		defaults := DefaultConfig()
		cfg, err = &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads the config file without environment overrides.
func LoadFile() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	setDefault(&cfg.Withings.APIURL, defaults.Withings.APIURL)
	setDefault(&cfg.Notion.WorkoutDatabaseID, defaults.Notion.WorkoutDatabaseID)
	setDefault(&cfg.Notion.AthleteProfileDatabaseID, defaults.Notion.AthleteProfileDatabaseID)
	setDefault(&cfg.Server.Address, defaults.Server.Address)
	setDefault(&cfg.Storage.Backend, defaults.Storage.Backend)
	setDefault(&cfg.HTTPTimeout, defaults.HTTPTimeout)
	setDefault(&cfg.LogLevel, defaults.LogLevel)

	return &cfg, nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) applyEnv() {
	c.Strava.ClientID = getEnv("STRAVA_CLIENT_ID", c.Strava.ClientID)
	c.Strava.ClientSecret = getEnv("STRAVA_CLIENT_SECRET", c.Strava.ClientSecret)
	c.Strava.VerifyToken = getEnv("STRAVA_VERIFY_TOKEN", c.Strava.VerifyToken)
	c.Strava.RefreshToken = getEnv("STRAVA_REFRESH_TOKEN", c.Strava.RefreshToken)

	c.Withings.ClientID = getEnv("WITHINGS_CLIENT_ID", c.Withings.ClientID)
	c.Withings.ClientSecret = getEnv("WITHINGS_CLIENT_SECRET", c.Withings.ClientSecret)
	c.Withings.RefreshToken = getEnv("WITHINGS_REFRESH_TOKEN", c.Withings.RefreshToken)
	c.Withings.APIURL = getEnv("WBSAPI_URL", c.Withings.APIURL)

	c.Notion.Secret = getEnv("NOTION_SECRET", c.Notion.Secret)
	c.Notion.WorkoutDatabaseID = getEnv("NOTION_WORKOUT_DATABASE_ID", c.Notion.WorkoutDatabaseID)
	c.Notion.AthleteProfileDatabaseID = getEnv("NOTION_ATHLETE_PROFILE_DATABASE_ID", c.Notion.AthleteProfileDatabaseID)

	c.Server.Address = getEnv("HTTP_ADDRESS", c.Server.Address)
	c.Server.APIKey = getEnv("API_KEY", c.Server.APIKey)

	c.Storage.Backend = getEnv("DOCUMENT_BACKEND", c.Storage.Backend)
	c.Storage.DBPath = getEnv("FITSYNC_DB_PATH", c.Storage.DBPath)

	c.HTTPTimeout = getEnv("HTTP_TIMEOUT", c.HTTPTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Timeout returns the outbound HTTP timeout, 30s when unset or invalid.
func (c *Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.HTTPTimeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// Level returns the configured log level, info when unrecognised.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Save writes the configuration to ~/.fitsync/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists.
// It reports whether a file was written.
func CreateExample() (bool, error) {
	path, err := getConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
		VerifyToken:  "YOUR_VERIFY_TOKEN",
	}
	example.Withings.ClientID = "YOUR_WITHINGS_CLIENT_ID"
	example.Withings.ClientSecret = "YOUR_WITHINGS_CLIENT_SECRET"
	example.Notion.Secret = "YOUR_NOTION_SECRET"
	example.Server.APIKey = "YOUR_API_KEY"

	return true, Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if isUnset(c.Strava.ClientID) {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if isUnset(c.Strava.ClientSecret) {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	switch c.Storage.Backend {
	case BackendNotion:
		if isUnset(c.Notion.Secret) {
			return errors.New("notion.secret is required for the notion backend")
		}
		if c.Notion.WorkoutDatabaseID == "" || c.Notion.AthleteProfileDatabaseID == "" {
			return errors.New("notion database ids are required for the notion backend")
		}
	case BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendNotion, BackendSQLite, c.Storage.Backend)
	}

	if c.HTTPTimeout != "" {
		if _, err := time.ParseDuration(c.HTTPTimeout); err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
	}

	return nil
}

// ValidateServer additionally checks what the HTTP API needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if isUnset(c.Server.APIKey) {
		return errors.New("server.api_key is required to serve the API")
	}
	return nil
}

func isUnset(v string) bool {
	return v == "" || strings.HasPrefix(v, placeholderPrefix)
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".fitsync"), nil
}
