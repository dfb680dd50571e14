package rdb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yatube/internal/model"
)

type Options struct {
	Driver   string
	DSN      string
	MaxIdle  int
	MaxOpen  int
	LogLevel logger.LogLevel
}

// Open connects to the configured database and applies the schema.
func Open(opt Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opt.Driver {
	case "mysql":
		dialector = mysql.Open(opt.DSN)
	case "postgres":
		dialector = postgres.Open(opt.DSN)
	case "sqlite":
		dialector = sqlite.Open(opt.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opt.Driver)
	}

	level := opt.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	gormLog := log.With().Str("component", "gorm").Logger()
	gormLogger := logger.New(&gormLog, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opt.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opt.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(opt.MaxIdle)
	}
	if opt.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opt.MaxOpen)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// MemoryDSN names a private in-memory sqlite database.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

// Health pings the database and reports pool statistics.
func Health(ctx context.Context, db *gorm.DB) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	stats := make(map[string]string)
	sqlDB, err := db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	s := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", s.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", s.InUse)
	stats["idle"] = fmt.Sprintf("%d", s.Idle)
	return stats
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
