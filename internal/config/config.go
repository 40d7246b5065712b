// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	StoreDriver  string
	SessionStore string
	Database     DatabaseConfig
	Redis        RedisConfig
	Server       ServerConfig
	Logging      LoggingConfig
	CORS         CORSConfig
	Session      SessionConfig
	Payments     PaymentsConfig
	Admin        AdminConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
	// NodeID distinguishes payment numbers generated by replicas (0-1023)
	NodeID int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
	File  string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds session token settings
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

// PaymentsConfig holds payment gateway settings
type PaymentsConfig struct {
	APIKey        string
	PendingTTL    time.Duration
	SweepSchedule string
}

// AdminConfig holds the admin safety switch and the seed account
type AdminConfig struct {
	ProtectLastAdmin bool
	SeedEmail        string
	SeedPassword     string
	SeedName         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Storage drivers
	cfg.StoreDriver = strings.ToLower(os.Getenv("STORE_DRIVER"))
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverMySQL
	}
	if cfg.StoreDriver != DriverMySQL && cfg.StoreDriver != DriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", cfg.StoreDriver, DriverMySQL, DriverMemory)
	}

	cfg.SessionStore = strings.ToLower(os.Getenv("SESSION_STORE"))
	if cfg.SessionStore == "" {
		cfg.SessionStore = DriverMemory
	}
	if cfg.SessionStore != DriverRedis && cfg.SessionStore != DriverMemory {
		return nil, fmt.Errorf("invalid SESSION_STORE %q: must be %s or %s", cfg.SessionStore, DriverRedis, DriverMemory)
	}

	// Database configuration (required for the mysql driver)
	if cfg.StoreDriver == DriverMySQL {
		if err := loadDatabase(&cfg.Database); err != nil {
			return nil, err
		}
	}

	// Redis configuration
	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost" // default
	}
	redisPort, err := envInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	// Server configuration
	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	nodeID, err := envInt("NODE_ID", 1)
	if err != nil {
		return nil, err
	}
	if nodeID < 0 || nodeID > 1023 {
		return nil, fmt.Errorf("NODE_ID must be between 0 and 1023")
	}
	cfg.Server.NodeID = nodeID

	// Logging configuration
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info" // default level
	}
	cfg.Logging.File = os.Getenv("LOG_FILE") // optional

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Session configuration
	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.Session.TTL, err = envDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Session.SecureCookie, err = envBool("SESSION_COOKIE_SECURE", true); err != nil {
		return nil, err
	}

	// Payment configuration
	cfg.Payments.APIKey = os.Getenv("PAYMENT_API_KEY") // webhook rejects every call when empty
	if cfg.Payments.PendingTTL, err = envDuration("PENDING_PAYMENT_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	cfg.Payments.SweepSchedule = os.Getenv("PAYMENT_SWEEP_SCHEDULE")
	if cfg.Payments.SweepSchedule == "" {
		cfg.Payments.SweepSchedule = "@every 5m"
	}

	// Admin configuration
	if cfg.Admin.ProtectLastAdmin, err = envBool("PROTECT_LAST_ADMIN", true); err != nil {
		return nil, err
	}
	cfg.Admin.SeedEmail = os.Getenv("SEED_ADMIN_EMAIL")
	cfg.Admin.SeedPassword = os.Getenv("SEED_ADMIN_PASSWORD")
	cfg.Admin.SeedName = os.Getenv("SEED_ADMIN_NAME")
	if cfg.Admin.SeedName == "" {
		cfg.Admin.SeedName = "Administrator"
	}
	if (cfg.Admin.SeedEmail == "") != (cfg.Admin.SeedPassword == "") {
		return nil, fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func loadDatabase(db *DatabaseConfig) error {
	db.Host = os.Getenv("DB_HOST")
	if db.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if os.Getenv("DB_PORT") == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	port, err := envInt("DB_PORT", 0)
	if err != nil {
		return err
	}
	db.Port = port

	db.User = os.Getenv("DB_USER")
	if db.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	db.Password = os.Getenv("DB_PASSWORD")
	if db.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	db.DBName = os.Getenv("DB_NAME")
	if db.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	return nil
}

// parseOrigins splits a comma-separated origin list, allowing all origins when it is empty
func parseOrigins(value string) []string {
	origins := []string{}
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func envInt(key string, def int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// DSN returns the database connection string, empty when no database is configured
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
