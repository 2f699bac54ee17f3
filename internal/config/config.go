package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	intel "ninebox/domain/intelligence"
	"ninebox/internal/errors"
	"ninebox/internal/intelligence"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig        `validate:"required"`
	Data     DataConfig
	Database DatabaseConfig
	Analysis intelligence.Config `validate:"required"`
	Logging  LoggingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port                  string        `validate:"required"`
	GinMode               string        `validate:"omitempty,oneof=debug release test"`
	MaxConcurrentAnalyses int64         `validate:"gte=1"`
	ShutdownTimeout       time.Duration `validate:"gte=0"`
}

// DataConfig holds roster input settings
type DataConfig struct {
	// RosterFile is an .xlsx or .csv roster loaded at startup.
	RosterFile  string
	RosterSheet string
}

// DatabaseConfig is optional; when URL is empty the roster comes from RosterFile.
type DatabaseConfig struct {
	URL string `validate:"omitempty,url"`
}

// LoggingConfig selects level and optional rotating file
type LoggingConfig struct {
	Level string `validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
	File  string
}

// Load reads configuration from environment variables, applies the optional
// ANALYSIS_CONFIG YAML overlay and validates the result
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Data:     *loadDataConfig(),
		Database: *loadDatabaseConfig(),
		Logging:  *loadLoggingConfig(),
	}

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}
	config.Analysis = *analysis

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:                  getEnvOrDefault("PORT", "8080"),
		GinMode:               getEnvOrDefault("GIN_MODE", "debug"),
		MaxConcurrentAnalyses: int64(getEnvIntOrDefault("MAX_CONCURRENT_ANALYSES", 4)),
		ShutdownTimeout:       getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		RosterFile:  getEnvOrDefault("ROSTER_FILE", ""),
		RosterSheet: getEnvOrDefault("ROSTER_SHEET", ""),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL: getEnvOrDefault("DATABASE_URL", ""),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level: normalizeLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO")),
		File:  getEnvOrDefault("LOG_FILE", ""),
	}
}

// normalizeLogLevel accepts the same spellings as logging.ParseLevel.
func normalizeLogLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "WARNING" {
		return "WARN"
	}
	return level
}

// loadAnalysisConfig starts from the defaults, overlays ANALYSIS_CONFIG when
// set, then applies individual environment overrides.
func loadAnalysisConfig() (*intelligence.Config, error) {
	cfg := intelligence.DefaultConfig()

	if path := os.Getenv("ANALYSIS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse %s", path))
		}
	}

	cfg.Thresholds.SevereP = getEnvFloatOrDefault("SEVERE_P", cfg.Thresholds.SevereP)
	cfg.Thresholds.ModerateP = getEnvFloatOrDefault("MODERATE_P", cfg.Thresholds.ModerateP)
	cfg.Thresholds.CellZ = getEnvFloatOrDefault("CELL_Z", cfg.Thresholds.CellZ)
	cfg.ManagerMinTeamSize = getEnvIntOrDefault("MANAGER_MIN_TEAM_SIZE", cfg.ManagerMinTeamSize)
	cfg.SignificanceFloor = getEnvIntOrDefault("SIGNIFICANCE_FLOOR", cfg.SignificanceFloor)
	cfg.TopN = getEnvIntOrDefault("TOP_ANOMALIES", cfg.TopN)

	if axis := os.Getenv("RATING_AXIS"); axis != "" {
		parsed, err := intel.ParseAxis(axis)
		if err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
		cfg.Axis = parsed
	}
	return &cfg, nil
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
