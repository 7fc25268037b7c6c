// Package filestore persists the settings record as a single JSON
// document under the XDG config directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/repository"
	"github.com/bnema/linktint/internal/logging"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Repo stores the settings record in one JSON file, written atomically
// via a temp file and rename. Implements repository.SettingsRepository
// and repository.Watcher.
type Repo struct {
	path string

	mu             sync.Mutex
	skipNextReload bool
}

// New creates a file-backed settings repository at path.
func New(path string) *Repo {
	return &Repo{path: path}
}

// Path returns the backing file path.
func (r *Repo) Path() string {
	return r.path
}

func (r *Repo) Load(_ context.Context) (entity.Settings, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.Settings{}, repository.ErrNotFound
		}
		return entity.Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	var settings entity.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return entity.Settings{}, fmt.Errorf("decode settings file: %w", err)
	}
	settings.Normalize()
	return settings, nil
}

func (r *Repo) Save(_ context.Context, settings entity.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), dirPerm); err != nil {
		return translateWriteErr(err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return translateWriteErr(err)
	}

	r.mu.Lock()
	r.skipNextReload = true
	r.mu.Unlock()

	if err := os.Rename(tmp, r.path); err != nil {
		return translateWriteErr(err)
	}
	return nil
}

func (r *Repo) Clear(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove settings file: %w", err)
	}
	return nil
}

// Watch observes external writes to the settings file. Writes performed
// through Save are filtered out so the daemon does not react to itself.
func (r *Repo) Watch(ctx context.Context) (<-chan entity.Settings, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}

	// Watch the directory: editors and sync agents replace the file,
	// which drops a watch placed on the file itself.
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}

	out := make(chan entity.Settings, 1)
	go r.watchLoop(ctx, watcher, out)
	return out, nil
}

func (r *Repo) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan entity.Settings) {
	log := logging.FromContext(ctx).With().Str("component", "filestore").Logger()
	defer close(out)
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Debug().Err(err).Msg("failed to close settings watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			r.mu.Lock()
			skip := r.skipNextReload
			r.skipNextReload = false
			r.mu.Unlock()
			if skip {
				log.Debug().Msg("skipping reload (triggered by own Save)")
				continue
			}

			settings, err := r.Load(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to reload settings after external change")
				continue
			}
			log.Debug().Str("op", event.Op.String()).Msg("settings changed externally")

			// Coalesce: drop a stale pending record if the consumer lags.
			select {
			case out <- settings:
			default:
				select {
				case <-out:
				default:
				}
				out <- settings
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}

// translateWriteErr maps out-of-space conditions to ErrQuotaExceeded so
// the store layer can run its clear-and-retry recovery.
func translateWriteErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", repository.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("write settings file: %w", err)
}
