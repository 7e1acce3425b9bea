// Package config loads the service configuration from .env, config.yml and the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	BotToken       string `mapstructure:"BOT_TOKEN"`
	PrimaryAdminID int64  `mapstructure:"PRIMARY_ADMIN_ID"`
	AdminIDs       string `mapstructure:"ADMIN_IDS"`
	Port           string `mapstructure:"PORT"`
	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBPath         string `mapstructure:"DB_PATH"`
	MediaDir       string `mapstructure:"MEDIA_DIR"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	staticAdmins []int64
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The config file is optional; environment variables alone are enough.
	_ = v.ReadInConfig()

	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("PRIMARY_ADMIN_ID", 0)
	v.SetDefault("ADMIN_IDS", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "assistix")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "tasks.db")
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and parses the static allow-list.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.PrimaryAdminID <= 0 {
		return errors.New("PRIMARY_ADMIN_ID is required")
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}

	ids, err := ParseIDList(c.AdminIDs)
	if err != nil {
		return fmt.Errorf("ADMIN_IDS: %w", err)
	}
	c.staticAdmins = ids

	if c.IsProduction() {
		if len(c.BotToken) < 32 {
			return errors.New("BOT_TOKEN must be at least 32 characters in production")
		}
		if c.DBDriver == DriverPostgres && c.DBSSLMode == "disable" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production.")
		}
	}
	return nil
}

// IsProduction reports whether APP_ENV names a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// StaticAdminIDs returns the ADMIN_IDS allow-list parsed by Validate.
func (c *Config) StaticAdminIDs() []int64 {
	out := make([]int64, len(c.staticAdmins))
	copy(out, c.staticAdmins)
	return out
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PostgresDSN builds the connection URL for the postgres driver.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// SQLiteDSN returns the sqlite file DSN with a busy timeout so concurrent
// sessions wait for the write lock instead of failing.
func (c *Config) SQLiteDSN() string {
	return c.DBPath + "?_busy_timeout=5000&_journal_mode=WAL"
}

// ParseIDList parses a comma-separated list of account ids. Blank entries are ignored.
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid account id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
