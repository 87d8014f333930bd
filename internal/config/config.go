package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	minJWTSecretLength = 16
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	// HTTP Server
	Port            string        `envconfig:"PORT" default:"8081"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	RateLimitPerMin int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Ledger
	DataBackend  string `envconfig:"DATA_BACKEND" default:"memory"`
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/walletguru.db"`

	// Occurrence claims; empty RedisURL keeps claims in process
	RedisURL string        `envconfig:"REDIS_URL"`
	ClaimTTL time.Duration `envconfig:"CLAIM_TTL" default:"24h"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"walletguru"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"transactions_export"`

	// Google Sheets export
	GoogleSpreadsheetID   string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleCredentialsJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleCredentialsFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleExpensesSheet   string `envconfig:"GOOGLE_EXPENSES_SHEET" default:"Expenses"`
	GoogleIncomesSheet    string `envconfig:"GOOGLE_INCOMES_SHEET" default:"Incomes"`

	// Auth
	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Recurring worker
	RecurringInterval time.Duration `envconfig:"RECURRING_INTERVAL" default:"1h"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// SheetsEnabled reports whether transactions should be exported to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate returns every configuration problem in one error.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if u.Scheme != "redis" && u.Scheme != "rediss" {
			problems = append(problems, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", u.Scheme))
		}
	}
	if c.ClaimTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid claim TTL %v: must be at least 1 minute", c.ClaimTTL))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() && c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
		problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
	}

	if c.IsProduction() && len(c.JWTSecret) < minJWTSecretLength {
		problems = append(problems, fmt.Sprintf("JWT secret must be at least %d characters in production", minJWTSecretLength))
	}
	if c.JWTTTL < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
	}

	if c.RateLimitPerMin < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}

	if c.RecurringInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid recurring interval %v: must be at least 1 second", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
