package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	Port           int
	AllowedOrigins []string

	// Database configuration
	DBPath string

	// Logging
	LogLevel string

	// Admin bootstrap. When both are set and no admin exists yet, the
	// server stores these credentials at startup.
	AdminID       string
	AdminPassword string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		DBPath:         "hisab.db",
		LogLevel:       "info",

		AdminID:       os.Getenv("ADMIN_ID"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, fmt.Errorf("PORT must be a valid port number, got %q", port)
		}
		config.Port = parsed
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		config.DBPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = strings.ToLower(level)
	}

	// Parse allowed origins
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, o)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.IsProduction() {
		if config.AdminPassword != "" && config.AdminID == "" {
			return nil, fmt.Errorf("ADMIN_ID is required when ADMIN_PASSWORD is set")
		}
		if config.DBPath == ":memory:" {
			return nil, fmt.Errorf("DB_PATH cannot be :memory: in production")
		}
	}

	return config, nil
}
