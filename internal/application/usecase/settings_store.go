// Package usecase wires domain logic to the persistence and host ports.
package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/repository"
	"github.com/bnema/linktint/internal/logging"
)

// SettingsStore owns access to the persisted settings record. Persistence
// failures never escape as errors: reads fall back to defaults, writes
// report a boolean outcome. A quota failure gets exactly one
// clear-and-retry before the write is abandoned.
type SettingsStore struct {
	repo repository.SettingsRepository

	mu sync.Mutex
}

// NewSettingsStore creates a settings store over the given repository.
func NewSettingsStore(repo repository.SettingsRepository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

// Get returns the persisted record, or defaults when it is absent or
// unreadable.
func (s *SettingsStore) Get(ctx context.Context) entity.Settings {
	log := logging.FromContext(ctx)

	settings, err := s.repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to load settings, using defaults")
		}
		return entity.DefaultSettings()
	}
	return settings
}

// Exists reports whether a record has been persisted yet. Used by the
// coordinator's install path to decide whether to write defaults.
func (s *SettingsStore) Exists(ctx context.Context) bool {
	_, err := s.repo.Load(ctx)
	return err == nil
}

// Set replaces the persisted record. Returns false when the write failed
// after recovery.
func (s *SettingsStore) Set(ctx context.Context, settings entity.Settings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.Normalize()
	return s.save(ctx, settings)
}

// Merge applies a partial update over the current record and persists the
// result (read-modify-write, last write wins). Returns the merged record
// and whether the write succeeded.
func (s *SettingsStore) Merge(ctx context.Context, patch entity.SettingsPatch) (entity.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := patch.Apply(s.Get(ctx))
	return merged, s.save(ctx, merged)
}

func (s *SettingsStore) save(ctx context.Context, settings entity.Settings) bool {
	log := logging.FromContext(ctx)

	err := s.repo.Save(ctx, settings)
	if err == nil {
		return true
	}
	if !errors.Is(err, repository.ErrQuotaExceeded) {
		log.Warn().Err(err).Msg("failed to persist settings")
		return false
	}

	// Quota exhausted: clear the record once and retry the write.
	log.Warn().Err(err).Msg("settings storage quota exceeded, clearing and retrying")
	if clearErr := s.repo.Clear(ctx); clearErr != nil {
		log.Warn().Err(clearErr).Msg("failed to clear settings storage")
		return false
	}
	if retryErr := s.repo.Save(ctx, settings); retryErr != nil {
		log.Warn().Err(retryErr).Msg("settings write failed after clearing storage")
		return false
	}
	return true
}
