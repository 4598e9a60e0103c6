package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cabin-booking-backend/config"
	"cabin-booking-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.Service{},
		&model.Cabin{},
		&model.Client{},
		&model.Reservation{},
		&model.PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableExclusionConstraint {
		log.Println("Applying reservation exclusion constraint DDL...")
		if err := applyExclusionDDL(db); err != nil {
			return nil, err
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// applyExclusionDDL pushes the non-overlap invariant into Postgres itself:
// two Confirmed reservations for the same cabin may never cover a common day,
// regardless of what the application layer checked beforehand. The range is
// built with inclusive bounds on both sides ('[]') to match the engine's
// date-range convention.
func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		// DO blocks keep the DDL re-runnable; ADD CONSTRAINT has no IF NOT EXISTS.
		"DO $$ BEGIN " +
			"ALTER TABLE reservations " +
			"ADD CONSTRAINT reservations_dates_valid CHECK (start_date < end_date); " +
			"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",

		"DO $$ BEGIN " +
			"ALTER TABLE reservations " +
			"ADD CONSTRAINT reservations_no_overlap EXCLUDE USING GIST (" +
			"cabin_id WITH =, " +
			"daterange(start_date::date, end_date::date, '[]') WITH &&" +
			") WHERE (state = 'Confirmed'); " +
			"EXCEPTION WHEN duplicate_object OR duplicate_table THEN NULL; END $$;",

		"CREATE INDEX IF NOT EXISTS idx_reservations_cabin_id_end_date " +
			"ON reservations (cabin_id, end_date DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
