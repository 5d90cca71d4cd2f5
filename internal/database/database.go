package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

const sqlitePrefix = "sqlite:"

// Connect opens the report archive. URLs starting with "sqlite:" open a SQLite file,
// anything else is treated as a PostgreSQL DSN.
func Connect(url string) (*gorm.DB, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("database url must not be empty")
	}

	config := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	if strings.HasPrefix(url, sqlitePrefix) {
		path := strings.TrimPrefix(url, sqlitePrefix)
		db, err := gorm.Open(sqlite.Open(path), config)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, nil
	}

	db, err := gorm.Open(postgres.Open(url), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the archive tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.InterviewReport{}); err != nil {
		return fmt.Errorf("failed to migrate interview reports: %w", err)
	}
	return nil
}
