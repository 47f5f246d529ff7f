// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	ShutdownTimeout time.Duration

	// Data backend selection: "jsonfile", "sqlite" or "memory".
	DataBackend  string
	JSONFilePath string
	SQLiteDBPath string

	// AMQP is optional; empty URL disables change events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export, used by the worker.
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Collation language for balance ordering.
	DisplayLang string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "jsonfile"),
		JSONFilePath: getEnv("JSON_FILE_PATH", "data/pache-data.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "data/pache.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pache"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "pache-changed"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Balances"),

		DisplayLang: getEnv("DISPLAY_LANG", "fa"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.DataBackend {
	case "jsonfile":
		if c.JSONFilePath == "" {
			return fmt.Errorf("JSON_FILE_PATH is required for the jsonfile backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLITE_DB_PATH is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid DATA_BACKEND: %q", c.DataBackend)
	}

	switch c.LogFormat {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q", c.LogFormat)
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
