package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL   string `validate:"omitempty"`
	ServerAddr    string `validate:"required"`
	AllowedOrigin string `validate:"required"`

	NotionToken     string
	NotionBaseURL   string `validate:"required,url"`
	NotionVersion   string `validate:"required"`
	IntegrationID   string `validate:"required,uuid"`
	SearchPageLimit int    `validate:"min=1,max=100"`
	SearchDelay     time.Duration

	JWTSecret string
	JWKSURL   string `validate:"omitempty,url"`

	LogLevel  string `validate:"oneof=trace debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
}

var validate = validator.New()

// Load reads the configuration from the environment after loading an
// optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		NotionToken:     getEnv("NOTION_TOKEN", ""),
		NotionBaseURL:   getEnv("NOTION_BASE_URL", "https://api.notion.com"),
		NotionVersion:   getEnv("NOTION_VERSION", "2022-02-22"),
		IntegrationID:   getEnv("INTEGRATION_ID", "4f6a9d57-b8d0-4635-852a-9a49de2e7ad5"),
		SearchPageLimit: getEnvInt("SEARCH_PAGE_LIMIT", 10),
		SearchDelay:     time.Duration(getEnvInt("SEARCH_DELAY_MS", 300)) * time.Millisecond,
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWKSURL:         getEnv("JWKS_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.SearchDelay < 0 {
		return fmt.Errorf("invalid configuration: SEARCH_DELAY_MS must not be negative")
	}
	return nil
}

// AuthEnabled reports whether API requests must carry a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWKSURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
