package models

import (
	"fmt"
	"time"

	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlLog routes gorm's messages into the application logger.
type sqlLog struct{}

func (sqlLog) Printf(format string, args ...interface{}) {
	logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}

// Open connects to the configured database. Callers own the handle and pass
// it to the services; there is no package-level DB. With debug set every
// statement is logged.
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(sqlLog{}, gormlogger.Config{
			SlowThreshold:             time.Duration(cfg.SlowQueryMS) * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	// SQLite serialises writers anyway; a pool only adds lock contention.
	if cfg.Driver == "sqlite" {
		return db, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	}
	return db, nil
}

// tables lists every migrated model, parents before children.
var tables = []interface{}{
	&User{},
	&Project{},
	&Task{},
	&ProjectMember{},
	&Session{},
	&SystemLog{},
	&JobRun{},
}

// AutoMigrate creates or alters the tables. It does not touch the task
// guard triggers; Migrate does both.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(tables...)
}

// Migrate brings the schema up to date and (re)installs the task guards,
// which must come after the tasks table exists.
func Migrate(db *gorm.DB, guards GuardOptions) error {
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := InstallTaskGuards(db, guards); err != nil {
		return fmt.Errorf("install task guards: %w", err)
	}
	return nil
}
