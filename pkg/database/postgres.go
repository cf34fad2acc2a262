package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/discovery-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Rsvp{},
		&models.Follow{},
		&models.Connection{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// Bounding-box prefilter for the proximity query.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_location
		ON events (location_latitude, location_longitude)
		WHERE status = 'published'
	`).Error; err != nil {
		return fmt.Errorf("create location index: %w", err)
	}

	// Promotion order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_rsvps_waitlist
		ON rsvps (event_id, created_at, id)
		WHERE status = 'waitlist'
	`).Error; err != nil {
		return fmt.Errorf("create waitlist index: %w", err)
	}
	return nil
}
