package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"sheetsync/internal/dbclient"
	"sheetsync/internal/etl"
)

// ── Configuration ──────────────────────────────────────────
// Everything comes from the environment (optionally seeded from a .env
// file by the caller). The resulting Config is passed explicitly into
// each component — there is no global configuration state.

// Config holds the full configuration surface of a pipeline run.
type Config struct {
	// Source selection and credentials.
	SourceType        string // "google_sheets" | "csv_file"
	SpreadsheetID     string
	SheetRange        string
	GoogleAPIKey      string
	GoogleAccessToken string
	CSVFile           string

	// Store targets.
	Relational dbclient.SQLConfig
	Mongo      dbclient.MongoConfig

	// Load behavior.
	BatchSize int
	SyncMode  etl.SyncMode

	// Observability.
	LogFile   string
	LogLevel  string
	RunDBPath string
}

// FromEnv reads and validates the configuration from the environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SourceType:        envOr("ETL_SOURCE", "google_sheets"),
		SpreadsheetID:     os.Getenv("SPREADSHEET_ID"),
		SheetRange:        envOr("SHEET_RANGE", "Sheet1"),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		GoogleAccessToken: os.Getenv("GOOGLE_ACCESS_TOKEN"),
		CSVFile:           os.Getenv("CSV_FILE"),

		Relational: dbclient.SQLConfig{
			Driver:   envOr("RELATIONAL_DRIVER", "postgres"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     envInt("POSTGRES_PORT", 0),
			Database: os.Getenv("POSTGRES_DATABASE"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		},
		Mongo: dbclient.MongoConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: os.Getenv("MONGODB_DATABASE"),
		},

		BatchSize: envInt("ETL_BATCH_SIZE", 1000),
		SyncMode:  etl.SyncMode(envOr("ETL_SYNC_MODE", string(etl.SyncReplace))),

		LogFile:   envOr("ETL_LOG_FILE", "etl_pipeline.log"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		RunDBPath: envOr("ETL_RUN_DB", "etl_runs.db"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch c.SourceType {
	case "google_sheets":
		require("SPREADSHEET_ID", c.SpreadsheetID)
	case "csv_file":
		require("CSV_FILE", c.CSVFile)
	default:
		return fmt.Errorf("unknown ETL_SOURCE: %q", c.SourceType)
	}

	if c.Relational.Driver != "postgres" && c.Relational.Driver != "mysql" {
		return fmt.Errorf("unknown RELATIONAL_DRIVER: %q", c.Relational.Driver)
	}
	require("POSTGRES_HOST", c.Relational.Host)
	require("POSTGRES_DATABASE", c.Relational.Database)
	require("POSTGRES_USER", c.Relational.User)
	require("MONGODB_URI", c.Mongo.URI)

	if c.SyncMode != etl.SyncReplace && c.SyncMode != etl.SyncIncremental {
		return fmt.Errorf("unknown ETL_SYNC_MODE: %q", c.SyncMode)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SourceConfig builds the source-specific configuration map.
func (c *Config) SourceConfig() etl.SourceConfig {
	switch c.SourceType {
	case "csv_file":
		return etl.SourceConfig{"filePath": c.CSVFile}
	default:
		return etl.SourceConfig{
			"spreadsheetId": c.SpreadsheetID,
			"range":         c.SheetRange,
			"apiKey":        c.GoogleAPIKey,
			"accessToken":   c.GoogleAccessToken,
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
