package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Ebay        EbayConfig
	Jobs        JobsConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EbayConfig struct {
	BaseURL     string
	AccessToken string
}

type JobsConfig struct {
	SyncCron        string
	AutoProcessCron string
	MinConfidence   int
	DryRun          bool
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_DB", "0")
	viper.SetDefault("EBAY_BASE_URL", "https://api.ebay.com")
	viper.SetDefault("RETURNS_SYNC_CRON", "*/30 * * * *")
	viper.SetDefault("RETURNS_AUTOPROCESS_CRON", "0 6 * * *")
	viper.SetDefault("AUTOPROCESS_MIN_CONFIDENCE", "90")
	viper.SetDefault("AUTOPROCESS_DRY_RUN", "false")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "resaleapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Ebay: EbayConfig{
			BaseURL:     getEnvOrViper("EBAY_BASE_URL", "https://api.ebay.com"),
			AccessToken: getEnvOrViper("EBAY_ACCESS_TOKEN", ""),
		},
		Jobs: JobsConfig{
			SyncCron:        getEnvOrViper("RETURNS_SYNC_CRON", "*/30 * * * *"),
			AutoProcessCron: getEnvOrViper("RETURNS_AUTOPROCESS_CRON", "0 6 * * *"),
			MinConfidence:   viper.GetInt("AUTOPROCESS_MIN_CONFIDENCE"),
			DryRun:          viper.GetBool("AUTOPROCESS_DRY_RUN"),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Ebay.BaseURL == "" {
		return nil, fmt.Errorf("EBAY_BASE_URL is required")
	}
	if cfg.Jobs.MinConfidence < 0 || cfg.Jobs.MinConfidence > 100 {
		return nil, fmt.Errorf("AUTOPROCESS_MIN_CONFIDENCE must be between 0 and 100")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
