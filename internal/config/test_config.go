package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for the integration tests from the .env file or environment variables.
// If any TEST_DB_* variable is missing, it returns a Config with an empty database section and DSN returns ""
// so the callers can skip. TEST_REDIS_* default to localhost:6379, database 1; the Redis tests skip when
// the server does not answer.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("./../../configs/.env")
	_ = godotenv.Load()

	cfg := &Config{StoreDriver: DriverMySQL, SessionStore: DriverRedis}

	redisPort, err := envInt("TEST_REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	redisDB, err := envInt("TEST_REDIS_DB", 1)
	if err != nil {
		return nil, err
	}
	cfg.Redis = RedisConfig{
		Host:     os.Getenv("TEST_REDIS_HOST"),
		Port:     redisPort,
		Password: os.Getenv("TEST_REDIS_PASSWORD"),
		DB:       redisDB,
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}

	host := os.Getenv("TEST_DB_HOST")
	portStr := os.Getenv("TEST_DB_PORT")
	user := os.Getenv("TEST_DB_USER")
	password := os.Getenv("TEST_DB_PASSWORD")
	name := os.Getenv("TEST_DB_NAME")
	if host == "" || portStr == "" || user == "" || password == "" || name == "" {
		return cfg, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}

	cfg.Database = DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		DBName:   name,
	}
	return cfg, nil
}
