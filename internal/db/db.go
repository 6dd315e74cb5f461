package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/model"
)

// Models lists every persisted type in migration order.
var Models = []any{
	&model.Station{},
	&model.Train{},
	&model.Shoulder{},
	&model.Locomotive{},
	&model.Assignment{},
	&model.ServicePoint{},
	&model.ServiceLog{},
	&model.PushSubscription{},
}

// Open connects to the configured database without migrating it.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.LogSQL {
		level = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}

// Init opens the database and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.Driver == "postgres" {
		log.Println("Applying postgres-specific DDL...")
		if err := applyPostgresDDL(db); err != nil {
			log.Printf("Warning: failed to apply some postgres DDL: %v. Continuing without them.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func applyPostgresDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE assignments DROP CONSTRAINT IF EXISTS assignments_period_valid;",
		"ALTER TABLE assignments ADD CONSTRAINT assignments_period_valid CHECK (start_time < end_time);",

		// Range index for the overlap predicate start < $end AND end > $start.
		"CREATE INDEX IF NOT EXISTS idx_assignments_loco_period ON assignments " +
			"USING GIST (locomotive_id, tstzrange(start_time, end_time, '[)'));",

		"ALTER TABLE locomotives DROP CONSTRAINT IF EXISTS locomotives_fuel_range;",
		"ALTER TABLE locomotives ADD CONSTRAINT locomotives_fuel_range CHECK (fuel_current >= 0 AND fuel_current <= fuel_capacity);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
