package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"faturamento/internal/projection"
)

type Config struct {
	// HTTP Server
	Port string `yaml:"port"`

	// Backend selection
	DataBackend string `yaml:"data_backend"`

	// Database
	SQLiteDBPath string `yaml:"sqlite_db_path"`

	// MemorySeedFile optionally seeds the memory backend from YAML.
	MemorySeedFile string `yaml:"memory_seed_file"`

	// AMQP
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Google Sheets
	GoogleSpreadsheetID   string `yaml:"google_spreadsheet_id"`
	GoogleItemsSheetName  string `yaml:"google_items_sheet_name"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	GoogleCredentialsJSON string `yaml:"-"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Projection Projection `yaml:"projection"`

	// Worker
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// Projection tunes the billing projection and its grid.
type Projection struct {
	ChunkSize       int           `yaml:"chunk_size"`
	MaxItems        int           `yaml:"max_items"`
	LookBackMonths  int           `yaml:"lookback_months"`
	LookAheadMonths int           `yaml:"lookahead_months"`
	MaxMonths       int           `yaml:"max_months"`
	MemoTTL         time.Duration `yaml:"memo_ttl"`
	PageSizeWide    int           `yaml:"page_size_wide"`
	PageSizeNarrow  int           `yaml:"page_size_narrow"`
}

// Limits converts the settings into projection bounds.
func (p Projection) Limits() projection.Limits {
	return projection.Limits{
		LookBackMonths:  p.LookBackMonths,
		LookAheadMonths: p.LookAheadMonths,
		MaxMonths:       p.MaxMonths,
		MaxItems:        p.MaxItems,
	}
}

// PageSize returns the configured page size for layout.
func (p Projection) PageSize(layout projection.Layout) int {
	if layout == projection.LayoutNarrow {
		return p.PageSizeNarrow
	}
	return p.PageSizeWide
}

var (
	validBackends   = []string{"memory", "sheets", "sqlite"}
	validLogFormats = []string{"text", "json", "pretty"}
)

func defaults() *Config {
	limits := projection.DefaultLimits()
	return &Config{
		Port:         "8082",
		DataBackend:  "memory",
		SQLiteDBPath: "./data/faturamento.db",

		AMQPURL:      "",
		AMQPExchange: "faturamento",
		AMQPQueue:    "items_changed",

		GoogleItemsSheetName: "Itens",

		LogLevel:  "info",
		LogFormat: "text",

		Projection: Projection{
			ChunkSize:       projection.DefaultChunkSize,
			MaxItems:        limits.MaxItems,
			LookBackMonths:  limits.LookBackMonths,
			LookAheadMonths: limits.LookAheadMonths,
			MaxMonths:       limits.MaxMonths,
			MemoTTL:         30 * time.Second,
			PageSizeWide:    projection.WidePageSize,
			PageSizeNarrow:  projection.NarrowPageSize,
		},

		RefreshInterval: time.Minute,
	}
}

// Load reads the configuration from the environment on top of defaults.
func Load() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML file over the defaults, then applies the
// environment, which wins on conflicts.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.MemorySeedFile = getEnv("MEMORY_SEED_FILE", c.MemorySeedFile)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleItemsSheetName = getEnv("GOOGLE_ITEMS_SHEET_NAME", c.GoogleItemsSheetName)
	c.GoogleCredentialsFile = getEnv("GOOGLE_CREDENTIALS_FILE", c.GoogleCredentialsFile)
	c.GoogleCredentialsJSON = getEnv("GOOGLE_CREDENTIALS_JSON", c.GoogleCredentialsJSON)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	p := &c.Projection
	p.ChunkSize = getEnvInt("PROJECTION_CHUNK_SIZE", p.ChunkSize)
	p.MaxItems = getEnvInt("PROJECTION_MAX_ITEMS", p.MaxItems)
	p.LookBackMonths = getEnvInt("PROJECTION_LOOKBACK_MONTHS", p.LookBackMonths)
	p.LookAheadMonths = getEnvInt("PROJECTION_LOOKAHEAD_MONTHS", p.LookAheadMonths)
	p.MaxMonths = getEnvInt("PROJECTION_MAX_MONTHS", p.MaxMonths)
	p.MemoTTL = getEnvDuration("PROJECTION_MEMO_TTL", p.MemoTTL)
	p.PageSizeWide = getEnvInt("PAGE_SIZE_WIDE", p.PageSizeWide)
	p.PageSizeNarrow = getEnvInt("PAGE_SIZE_NARROW", p.PageSizeNarrow)

	c.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", c.RefreshInterval)
}

// SlogLevel returns the parsed log level, Info when unparsable.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
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

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleItemsSheetName == "" {
			errors = append(errors, "Google items sheet name is required when using sheets backend")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for sheets backend")
		} else if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	errors = append(errors, c.Projection.validate()...)

	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (p Projection) validate() []string {
	var errors []string
	if p.ChunkSize < 1 || p.ChunkSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid projection chunk size %d: must be between 1 and 10000", p.ChunkSize))
	}
	if p.MaxItems < 1 {
		errors = append(errors, fmt.Sprintf("invalid projection max items %d: must be at least 1", p.MaxItems))
	}
	if p.MaxMonths < 1 || p.MaxMonths > 600 {
		errors = append(errors, fmt.Sprintf("invalid projection max months %d: must be between 1 and 600", p.MaxMonths))
	}
	if p.LookBackMonths < 0 || p.LookBackMonths >= p.MaxMonths {
		errors = append(errors, fmt.Sprintf("invalid projection look-back %d: must be between 0 and max months - 1", p.LookBackMonths))
	}
	if p.LookAheadMonths < 0 {
		errors = append(errors, fmt.Sprintf("invalid projection look-ahead %d: must not be negative", p.LookAheadMonths))
	}
	if p.MemoTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid projection memo TTL %v: must not be negative", p.MemoTTL))
	}
	if p.PageSizeWide < 1 || p.PageSizeNarrow < 1 {
		errors = append(errors, fmt.Sprintf("invalid page sizes %d/%d: must be at least 1", p.PageSizeWide, p.PageSizeNarrow))
	}
	return errors
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
