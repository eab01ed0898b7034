package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database named by dbURL and returns a GORM handle.
// Two URL schemes are understood: "postgres://..." (passed through as a
// DSN) and "sqlite://<path>" (a local file, or ":memory:").
func Open(dbURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch {
	case strings.HasPrefix(dbURL, "postgres://"):
		dialector = postgres.Open(dbURL)
		log.Info().Msg("connecting to postgres")
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		dialector = sqlite.Open(dsn)
		log.Info().Str("path", dsn).Msg("connecting to sqlite")
	default:
		return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", dbURL)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return gdb, nil
}
