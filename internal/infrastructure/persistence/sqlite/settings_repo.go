// Package sqlite persists the settings record in a single-row key-value
// table, for installations that co-locate settings with browser data.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver (pure Go)
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite WASM binary

	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/repository"
	"github.com/bnema/linktint/internal/logging"
)

// settingsKey is the fixed key the record lives under.
const settingsKey = "linktint_settings"

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Repo is a SQLite-backed settings repository.
type Repo struct {
	db *sql.DB
}

// NewConnection opens the settings database, creating directory and
// schema as needed.
func NewConnection(ctx context.Context, dbPath string) (*sql.DB, error) {
	const dbDirPerm = 0o750
	log := logging.FromContext(ctx)

	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), dbDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("settings database connection established")
	return db, nil
}

// NewSettingsRepository creates a SQLite-backed settings repository.
func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &Repo{db: db}
}

func (r *Repo) Load(ctx context.Context) (entity.Settings, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, settingsKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Settings{}, repository.ErrNotFound
		}
		return entity.Settings{}, fmt.Errorf("query settings row: %w", err)
	}

	var settings entity.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return entity.Settings{}, fmt.Errorf("decode settings row: %w", err)
	}
	settings.Normalize()
	return settings, nil
}

func (r *Repo) Save(ctx context.Context, settings entity.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingsKey, string(data))
	if err != nil {
		return translateWriteErr(err)
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, settingsKey); err != nil {
		return fmt.Errorf("delete settings row: %w", err)
	}
	return nil
}

// translateWriteErr maps storage-exhaustion failures to ErrQuotaExceeded
// so the store layer can run its clear-and-retry recovery.
func translateWriteErr(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "disk i/o error") {
		return fmt.Errorf("%w: %v", repository.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("write settings row: %w", err)
}
