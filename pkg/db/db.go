package db

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
	// LogLevel is one of silent, error, warn, info or debug. Only debug
	// logs SQL statements.
	LogLevel string
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(logMode(cfg.LogLevel)),
			TranslateError: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close releases the connection pool behind database. Pools gorm cannot
// hand out as a *sql.DB are closed directly when they support it.
func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err == nil {
		return sqlDB.Close()
	}
	if c, ok := database.ConnPool.(io.Closer); ok {
		return c.Close()
	}
	return err
}

// logMode maps a log level onto gorm's. SQL is only traced at debug.
func logMode(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "warn", "info":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

// URL returns the database URL from environment.
// Returns empty string if DATABASE_URL is not set.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
