package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config is the server configuration.
type Config struct {
	// Server
	Port string `json:"port"`

	// Database
	DatabasePath    string        `json:"database_path"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"-"`

	// Logging
	LogLevel string `json:"log_level"`

	// Rate limiting
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`

	// Matching data files. Empty means the embedded defaults.
	AliasTablePath string `json:"alias_table_path"`
	TaxonomyPath   string `json:"taxonomy_path"`
}

// configJSON mirrors Config for file parsing; durations are strings
// there ("5m") and parsed on load.
type configJSON struct {
	Port            string  `json:"port"`
	DatabasePath    string  `json:"database_path"`
	MaxOpenConns    int     `json:"max_open_conns"`
	MaxIdleConns    int     `json:"max_idle_conns"`
	ConnMaxLifetime string  `json:"conn_max_lifetime"`
	LogLevel        string  `json:"log_level"`
	RateLimitRPS    float64 `json:"rate_limit_rps"`
	RateLimitBurst  int     `json:"rate_limit_burst"`
	AliasTablePath  string  `json:"alias_table_path"`
	TaxonomyPath    string  `json:"taxonomy_path"`
}

// LoadConfig loads configuration from the JSON file at path when it
// exists, then applies environment overrides. An empty path skips the
// file and uses environment variables with defaults.
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			log.Printf("Config file %s not found, using defaults and environment", path)
		} else {
			var fileCfg configJSON
			if err := json.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			applyFileConfig(config, &fileCfg)
			log.Printf("Config loaded from %s", path)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Port:            "8080",
		DatabasePath:    "fieldcatalog.db",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		LogLevel:        "INFO",
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

func applyFileConfig(config *Config, fileCfg *configJSON) {
	if fileCfg.Port != "" {
		config.Port = fileCfg.Port
	}
	if fileCfg.DatabasePath != "" {
		config.DatabasePath = fileCfg.DatabasePath
	}
	if fileCfg.MaxOpenConns > 0 {
		config.MaxOpenConns = fileCfg.MaxOpenConns
	}
	if fileCfg.MaxIdleConns > 0 {
		config.MaxIdleConns = fileCfg.MaxIdleConns
	}
	if fileCfg.ConnMaxLifetime != "" {
		if lifetime, err := time.ParseDuration(fileCfg.ConnMaxLifetime); err == nil {
			config.ConnMaxLifetime = lifetime
		} else {
			log.Printf("Invalid conn_max_lifetime %q, keeping %s", fileCfg.ConnMaxLifetime, config.ConnMaxLifetime)
		}
	}
	if fileCfg.LogLevel != "" {
		config.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.RateLimitRPS > 0 {
		config.RateLimitRPS = fileCfg.RateLimitRPS
	}
	if fileCfg.RateLimitBurst > 0 {
		config.RateLimitBurst = fileCfg.RateLimitBurst
	}
	if fileCfg.AliasTablePath != "" {
		config.AliasTablePath = fileCfg.AliasTablePath
	}
	if fileCfg.TaxonomyPath != "" {
		config.TaxonomyPath = fileCfg.TaxonomyPath
	}
}

func applyEnvOverrides(config *Config) {
	config.Port = getEnv("SERVER_PORT", config.Port)
	config.DatabasePath = getEnv("DATABASE_PATH", config.DatabasePath)
	config.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", config.MaxOpenConns)
	config.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", config.MaxIdleConns)
	config.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", config.ConnMaxLifetime)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", config.RateLimitRPS)
	config.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", config.RateLimitBurst)
	config.AliasTablePath = getEnv("ALIAS_TABLE_PATH", config.AliasTablePath)
	config.TaxonomyPath = getEnv("TAXONOMY_PATH", config.TaxonomyPath)
}

// Validate checks the configuration for values the server cannot run
// with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("max_idle_conns cannot be negative")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate_limit_rps must be positive")
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("rate_limit_burst must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid integer for %s, using %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid number for %s, using %g", key, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Invalid duration for %s, using %s", key, defaultValue)
	}
	return defaultValue
}
