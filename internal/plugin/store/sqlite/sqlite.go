// Package sqlite registers a single-file record store for development and
// small installs.
package sqlite

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/config"
	"github.com/chirino/gina-service/internal/plugin/store/gormstore"
	registrymigrate "github.com/chirino/gina-service/internal/registry/migrate"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

//go:embed db/schema.sql
var schemaSQL string

const defaultDSN = "file:gina.db"

func init() {
	registrystore.Register(registrystore.Plugin{
		Name:   "sqlite",
		Loader: load,
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &sqliteMigrator{}})
}

func load(ctx context.Context) (registrystore.RecordStore, error) {
	cfg := config.FromContext(ctx)
	dsn := DSN(cfg.DBURL)
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	// In-memory databases live and die with their connection, so the
	// migrator cannot reach them.
	if isMemory(dsn) {
		if err := db.Exec(schemaSQL).Error; err != nil {
			return nil, fmt.Errorf("sqlite: failed to execute schema: %w", err)
		}
	}
	opts := gormstore.OptionsFromConfig(cfg, nil)
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1
	return gormstore.Open(ctx, db, opts)
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One writer at a time; this also keeps in-memory databases alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}

// DSN fills in the connection parameters the store relies on: foreign keys
// for cascading deletes and a busy timeout for the background writers.
func DSN(raw string) string {
	dsn := strings.TrimSpace(raw)
	if dsn == "" {
		dsn = defaultDSN
	}
	add := func(key, value string) {
		if strings.Contains(dsn, key+"=") {
			return
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + key + "=" + value
	}
	add("_foreign_keys", "on")
	add("_busy_timeout", "5000")
	return dsn
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

type sqliteMigrator struct{}

func (m *sqliteMigrator) Name() string { return "sqlite-schema" }
func (m *sqliteMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart || cfg.DatastoreType != "sqlite" {
		return nil
	}
	dsn := DSN(cfg.DBURL)
	if isMemory(dsn) {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := open(dsn)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration: failed to execute schema: %w", err)
	}
	log.Info("SQLite schema migration complete")
	return nil
}
