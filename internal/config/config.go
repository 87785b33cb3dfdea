package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the runtime configuration, read once at startup.
type Config struct {
	AppPort string

	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	DatabaseDSN     string
	RabbitMQURL     string
	JWTSecret       string
	AdminUsername   string
	AdminPassword   string
	SessionDuration time.Duration
	RequestTimeout  time.Duration
	SeedOnStart     bool
	APIBaseURL      string
	ClientTimeout   time.Duration
	ClientRetries   int
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that file. Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv() // Load environment variables

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		StoreDriver:     strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		MongoURI:        v.GetString("MONGODB_URI"),
		MongoDatabase:   v.GetString("MONGODB_DATABASE"),
		MongoCollection: v.GetString("MONGODB_COLLECTION"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		AdminUsername:   v.GetString("ADMIN_USERNAME"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		SessionDuration: v.GetDuration("SESSION_DURATION"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		SeedOnStart:     v.GetBool("SEED_ON_START"),
		APIBaseURL:      strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		ClientTimeout:   v.GetDuration("CLIENT_TIMEOUT"),
		ClientRetries:   v.GetInt("CLIENT_RETRIES"),
	}
	if cfg.StoreDriver == DriverSQLite && cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file::memory:?cache=shared"
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "nzeoma_solar")
	v.SetDefault("MONGODB_COLLECTION", "products")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SESSION_DURATION", 24*time.Hour)
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("SEED_ON_START", false)
	v.SetDefault("API_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("CLIENT_TIMEOUT", 30*time.Second)
	v.SetDefault("CLIENT_RETRIES", 2)
	v.SetDefault("CONFIG_FILE", "")
}

// Validate reports every configuration problem that would stop the server.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when STORE_DRIVER is mongo"))
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required when STORE_DRIVER is postgres"))
		}
	case DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.AuthEnabled() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when admin credentials are set"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether admin credentials are configured.
func (c *Config) AuthEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

// EventsEnabled reports whether a message broker is configured.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}
