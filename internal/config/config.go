package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// Remote API
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration
	PageSize   int

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP (optional notification fan-out)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export
	ExportDir                string
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Reminders
	ReminderSchedule   string
	ReminderDaysBefore []int
	Timezone           string

	// Emulator
	EmulatorPort   string
	EmulatorDBPath string
	EmulatorToken  string
	EmulatorTier   string

	// EmulatorRateLimit is requests per client and minute; 0 disables it.
	EmulatorRateLimit int
}

func Load() *Config {
	return &Config{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8081/api/v1"),
		APIToken:   getEnv("API_TOKEN", ""),
		APITimeout: getEnvDuration("API_TIMEOUT", 30*time.Second),
		PageSize:   getEnvInt("PAGE_SIZE", 20),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		ExportDir:                getEnv("EXPORT_DIR", "./exports"),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ReminderSchedule:   getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		ReminderDaysBefore: getEnvIntList("REMINDER_DAYS_BEFORE", []int{7, 1}),
		Timezone:           getEnv("TIMEZONE", "UTC"),

		EmulatorPort:   getEnv("EMULATOR_PORT", "8081"),
		EmulatorDBPath: getEnv("EMULATOR_DB_PATH", "./data/fintrack.db"),
		EmulatorToken:  getEnv("EMULATOR_TOKEN", "dev-token"),
		EmulatorTier:   getEnv("EMULATOR_TIER", "FREE"),

		EmulatorRateLimit: getEnvInt("EMULATOR_RATE_LIMIT", 120),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at most 5 minutes", c.APITimeout))
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided with GOOGLE_SPREADSHEET_ID")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reminder schedule '%s': %v", c.ReminderSchedule, err))
	}
	for _, d := range c.ReminderDaysBefore {
		if d < 0 || d > 365 {
			errors = append(errors, fmt.Sprintf("invalid reminder offset %d: must be between 0 and 365 days", d))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if err := c.validateEmulator(); err != "" {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func (c *Config) validateEmulator() string {
	if port, err := strconv.Atoi(c.EmulatorPort); err != nil {
		return fmt.Sprintf("invalid emulator port '%s': must be a number", c.EmulatorPort)
	} else if port < 1 || port > 65535 {
		return fmt.Sprintf("invalid emulator port %d: must be between 1 and 65535", port)
	}
	if c.EmulatorDBPath == "" {
		return "emulator database path cannot be empty"
	}
	if dir := filepath.Dir(c.EmulatorDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Sprintf("cannot create emulator database directory '%s': %v", dir, err)
			}
		}
	}
	if c.EmulatorRateLimit < 0 {
		return fmt.Sprintf("invalid emulator rate limit %d: must not be negative", c.EmulatorRateLimit)
	}
	switch strings.ToUpper(c.EmulatorTier) {
	case "FREE", "PREMIUM":
	default:
		return fmt.Sprintf("invalid emulator tier '%s': must be FREE or PREMIUM", c.EmulatorTier)
	}
	return ""
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvIntList parses a comma separated list such as "7,3,1". Any malformed
// entry makes the whole value fall back to the default.
func getEnvIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, i)
	}
	return out
}
