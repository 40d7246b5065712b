package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/growup/backend/internal/app"
	"github.com/growup/backend/internal/config"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/logger"
	"github.com/growup/backend/internal/repositories"
	"github.com/growup/backend/internal/sessions"
	"github.com/growup/backend/internal/store"
	"go.uber.org/zap"
)

// @title GrowUp Portal API
// @version 1.0
// @description API for the GrowUp coaching institute portal: accounts, study material, subscriptions and administration
// @termsOfService http://swagger.io/terms/

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token. The session_token cookie is accepted as well.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting GrowUp portal",
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("session_store", cfg.SessionStore),
	)

	if err := ids.SetNode(int64(cfg.Server.NodeID)); err != nil {
		logger.Logger.Fatal("Failed to initialize payment ids", zap.Error(err))
	}

	var deps app.Dependencies

	// Initialize store backend
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := connectDB(cfg.DSN())
		if err != nil {
			logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := runMigrations(db); err != nil {
			logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		deps.Backend = repositories.NewDocumentRepository(db, logger.Logger)
		deps.AuditLog = repositories.NewAuditLogRepository(db, logger.Logger)
	default:
		logger.Logger.Warn("Using in-memory store, data is lost on restart")
		deps.Backend = store.NewMemoryBackend()
		deps.AuditLog = store.NewMemoryAuditLog()
	}

	// Initialize session store
	switch cfg.SessionStore {
	case config.DriverRedis:
		client, err := connectRedis(cfg)
		if err != nil {
			logger.Logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		deps.Sessions = sessions.NewRedisStore(client, logger.Logger)
	default:
		deps.Sessions = sessions.NewMemoryStore()
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	portal, err := app.New(startupCtx, cfg, deps, logger.Logger)
	cancelStartup()
	if err != nil {
		logger.Logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	portal.Sweeper.Start()

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      portal.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	portal.Sweeper.Stop()

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// connectRedis connects to the session Redis server
func connectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "portal_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
