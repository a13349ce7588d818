package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Search      SearchConfig      `toml:"search"`
	Parser      ParserConfig      `toml:"parser"`
	Analytics   AnalyticsConfig   `toml:"analytics"`
	Suggestions SuggestionsConfig `toml:"suggestions"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port      int     `toml:"port"`
	Host      string  `toml:"host"`
	RateLimit float64 `toml:"rate_limit"` // API requests per second (0 disables throttling)
	RateBurst int     `toml:"rate_burst"` // Burst allowance for the API rate limiter
}

type StorageConfig struct {
	Type   string       `toml:"type"` // Only "badger" is supported
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// SearchConfig contains configuration for search behavior
type SearchConfig struct {
	DefaultLimit    int `toml:"default_limit"`    // Results per page when unspecified (default: 50)
	MaxLimit        int `toml:"max_limit"`        // Hard cap on requested page size
	SuggestionLimit int `toml:"suggestion_limit"` // Prefix suggestions returned by the index
}

// ParserConfig holds the natural-language parser's heuristic confidence
// weights. These are tunable constants, not statistically derived values.
type ParserConfig struct {
	IntentConfidence    int `toml:"intent_confidence"`     // Added when an intent is detected
	EntityConfidence    int `toml:"entity_confidence"`     // Added per populated entity category
	TimeRangeConfidence int `toml:"time_range_confidence"` // Added when a time window matches
	FilterConfidence    int `toml:"filter_confidence"`     // Added per extracted filter key
	MaxConfidence       int `toml:"max_confidence"`        // Cap applied after all passes
}

// AnalyticsConfig contains configuration for the analytics engine
type AnalyticsConfig struct {
	MaxEvents          int           `toml:"max_events"`           // In-memory event log cap (default: 1000)
	PersistedEvents    int           `toml:"persisted_events"`     // Events kept when persisting (default: 500)
	TrendDays          int           `toml:"trend_days"`           // Trailing window for the daily trend
	TrendingWindowDays int           `toml:"trending_window_days"` // Trailing window for trending suggestions
	SessionIdleTimeout time.Duration `toml:"session_idle_timeout"` // Inactivity before the sweep closes a session
}

// SuggestionsConfig holds the fixed per-category suggestion confidences.
type SuggestionsConfig struct {
	SimilarConfidence      float64 `toml:"similar_confidence"`
	TrendingConfidence     float64 `toml:"trending_confidence"`
	PersonalizedConfidence float64 `toml:"personalized_confidence"`
	FilterConfidence       float64 `toml:"filter_confidence"`
	SimilarityThreshold    float64 `toml:"similarity_threshold"` // Word-overlap cutoff for similar queries
	MaxSuggestions         int     `toml:"max_suggestions"`      // Total suggestions returned (default: 8)
}

// MaintenanceConfig contains configuration for the background maintenance job
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule for GC + analytics flush
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in invenio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:      8080,
			Host:      "localhost",
			RateLimit: 50,
			RateBurst: 100,
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Search: SearchConfig{
			DefaultLimit:    50,
			MaxLimit:        100,
			SuggestionLimit: 10,
		},
		Parser: ParserConfig{
			IntentConfidence:    20,
			EntityConfidence:    10,
			TimeRangeConfidence: 25,
			FilterConfidence:    5,
			MaxConfidence:       100,
		},
		Analytics: AnalyticsConfig{
			MaxEvents:          1000,
			PersistedEvents:    500,
			TrendDays:          30,
			TrendingWindowDays: 7,
			SessionIdleTimeout: 30 * time.Minute,
		},
		Suggestions: SuggestionsConfig{
			SimilarConfidence:      0.8,
			TrendingConfidence:     0.9,
			PersonalizedConfidence: 0.7,
			FilterConfidence:       0.6,
			SimilarityThreshold:    0.3,
			MaxSuggestions:         8,
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "*/5 * * * *", // Every 5 minutes
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override everything except CLI flags.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("INVENIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("INVENIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("INVENIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("INVENIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("INVENIO_BADGER_RESET_ON_STARTUP"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}

	// Logging configuration
	if level := os.Getenv("INVENIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("INVENIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("INVENIO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Search configuration
	if limit := os.Getenv("INVENIO_SEARCH_DEFAULT_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Search.DefaultLimit = l
		}
	}
	if maxLimit := os.Getenv("INVENIO_SEARCH_MAX_LIMIT"); maxLimit != "" {
		if l, err := strconv.Atoi(maxLimit); err == nil {
			config.Search.MaxLimit = l
		}
	}

	// Analytics configuration
	if maxEvents := os.Getenv("INVENIO_ANALYTICS_MAX_EVENTS"); maxEvents != "" {
		if m, err := strconv.Atoi(maxEvents); err == nil {
			config.Analytics.MaxEvents = m
		}
	}
	if persisted := os.Getenv("INVENIO_ANALYTICS_PERSISTED_EVENTS"); persisted != "" {
		if p, err := strconv.Atoi(persisted); err == nil {
			config.Analytics.PersistedEvents = p
		}
	}
	if idle := os.Getenv("INVENIO_ANALYTICS_SESSION_IDLE_TIMEOUT"); idle != "" {
		if d, err := time.ParseDuration(idle); err == nil {
			config.Analytics.SessionIdleTimeout = d
		}
	}

	// Maintenance configuration
	if enabled := os.Getenv("INVENIO_MAINTENANCE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Maintenance.Enabled = e
		}
	}
	if schedule := os.Getenv("INVENIO_MAINTENANCE_SCHEDULE"); schedule != "" {
		config.Maintenance.Schedule = schedule
	}
}
