package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	DB     DBConfig
	Oracle OracleConfig
	App    AppConfig
}

type ServerConfig struct {
	Port           string
	APIKey         string
	CallbackSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DBConfig struct {
	// DSN for the journal database; empty disables the journal.
	DSN string
}

// OracleConfig holds the parameters supplied at initialization and
// immutable thereafter: oracle endpoint, default job id, default fee,
// fee-asset account and the price feed endpoint.
type OracleConfig struct {
	URL              string
	JobID            string
	Fee              string
	FeeTokenAddress  string
	FeeAccount       string
	PriceFeedURL     string
	CallbackURL      string
	Timeout          time.Duration
	InitialFeeSupply string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			APIKey:         getEnv("API_KEY", ""),
			CallbackSecret: getEnv("CALLBACK_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		DB: DBConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Oracle: OracleConfig{
			URL:              getEnv("ORACLE_URL", ""),
			JobID:            getEnv("ORACLE_JOB_ID", "a8356f48569c434eaa4ac5fcb4db5cc0"),
			Fee:              getEnv("ORACLE_FEE", "100000000000000000"),
			FeeTokenAddress:  getEnv("FEE_TOKEN_ADDRESS", ""),
			FeeAccount:       getEnv("FEE_ACCOUNT", "oracle-fees"),
			PriceFeedURL:     getEnv("PRICE_FEED_URL", ""),
			CallbackURL:      getEnv("ORACLE_CALLBACK_URL", ""),
			Timeout:          time.Duration(getEnvAsInt("ORACLE_TIMEOUT_SECONDS", 300)) * time.Second,
			InitialFeeSupply: getEnv("FEE_INITIAL_SUPPLY", "0"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Oracle.URL == "" {
		return fmt.Errorf("ORACLE_URL is required")
	}

	if c.Oracle.JobID == "" {
		return fmt.Errorf("ORACLE_JOB_ID is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
