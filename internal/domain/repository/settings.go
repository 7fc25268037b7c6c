package repository

import (
	"context"
	"errors"

	"github.com/bnema/linktint/internal/domain/entity"
)

// ErrNotFound is returned by Load when no settings record exists yet.
var ErrNotFound = errors.New("settings record not found")

// ErrQuotaExceeded marks a write failure caused by exhausted storage
// (disk full, database page limit). The store layer retries once after
// clearing the record; every other error is terminal for that write.
var ErrQuotaExceeded = errors.New("settings storage quota exceeded")

// SettingsRepository is the key-value persistence substrate beneath the
// settings store. Implementations keep exactly one record.
type SettingsRepository interface {
	// Load reads the persisted record. Returns ErrNotFound when no
	// record has been written yet.
	Load(ctx context.Context) (entity.Settings, error)

	// Save replaces the persisted record.
	Save(ctx context.Context, settings entity.Settings) error

	// Clear removes the persisted record. Used as the one-shot recovery
	// path for quota failures.
	Clear(ctx context.Context) error
}

// Watcher is implemented by repositories that can observe external
// writes to the record (another process, a file-sync agent). The channel
// delivers the freshly loaded record after each external change and is
// closed when the watch stops.
type Watcher interface {
	Watch(ctx context.Context) (<-chan entity.Settings, error)
}
