package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment         string
	AuthServiceURL      string
	DBHost              string
	DBPort              string
	DBUsername          string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	Port                string
	SyncPageSize        int64
	SummarizeWebhookURL string
	ResponseWebhookURL  string
}

func NewConfig() (*Config, error) {
	env := os.Getenv("EMAILAI_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	config := &Config{
		Environment:         env,
		AuthServiceURL:      os.Getenv("EMAILAI_AUTH_URL"),
		DBHost:              getEnvOrDefault("EMAILAI_DB_HOST", "localhost"),
		DBPort:              getEnvOrDefault("EMAILAI_DB_PORT", "5432"),
		DBUsername:          getEnvOrDefault("EMAILAI_DB_USER", "emailai"),
		DBPassword:          os.Getenv("EMAILAI_DB_PASSWORD"),
		DBName:              getEnvOrDefault("EMAILAI_DB_NAME", "emailai"),
		DBSSLMode:           getEnvOrDefault("EMAILAI_DB_SSLMODE", "disable"),
		Port:                getEnvOrDefault("PORT", "8080"),
		SyncPageSize:        getEnvInt64OrDefault("EMAILAI_SYNC_PAGE_SIZE", 50),
		SummarizeWebhookURL: os.Getenv("EMAILAI_SUMMARIZE_WEBHOOK_URL"),
		ResponseWebhookURL:  os.Getenv("EMAILAI_RESPONSE_WEBHOOK_URL"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("EMAILAI_DB_PASSWORD is required")
	}

	if c.SyncPageSize <= 0 {
		return fmt.Errorf("EMAILAI_SYNC_PAGE_SIZE must be positive")
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
