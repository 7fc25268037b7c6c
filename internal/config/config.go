package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/bnema/linktint/internal/logging"
)

// File permission constants
const (
	dirPerm = 0755
)

// Config is the daemon configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Injection InjectionConfig `mapstructure:"injection" yaml:"injection"`
	Popup     PopupConfig     `mapstructure:"popup" yaml:"popup"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds the message API listener settings.
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// BrowserConfig selects how the host browser is reached.
type BrowserConfig struct {
	// RemoteURL attaches to a running browser's DevTools endpoint.
	// Empty means launch a browser using ProfileDir.
	RemoteURL  string `mapstructure:"remote_url" yaml:"remote_url"`
	ProfileDir string `mapstructure:"profile_dir" yaml:"profile_dir"`
	Headless   bool   `mapstructure:"headless" yaml:"headless"`
	ExecPath   string `mapstructure:"exec_path" yaml:"exec_path"`
}

// InjectionConfig tunes the injection heuristics.
type InjectionConfig struct {
	// RetryDelay is the pause before the single extra injection attempt
	// on a loading tab.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// PopupConfig tunes the settings popup.
type PopupConfig struct {
	// Debounce is the quiet period before a color edit is persisted.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// StoreBackend selects the settings persistence substrate.
type StoreBackend string

const (
	StoreFile   StoreBackend = "file"
	StoreSQLite StoreBackend = "sqlite"
)

// StoreConfig selects and locates the settings store.
type StoreConfig struct {
	Backend StoreBackend `mapstructure:"backend" yaml:"backend"`
	// Path overrides the default settings file / database location.
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a configuration manager reading
// $XDG_CONFIG_HOME/linktint/config.{toml,yaml,json} with LINKTINT_*
// environment overrides.
func NewManager() (*Manager, error) {
	v := viper.New()
	v.SetConfigName("config")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("LINKTINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	m := &Manager{viper: v}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// load reads the config file (absence is fine, defaults apply).
func (m *Manager) load() error {
	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := new(Config)
	if err := m.viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Watch starts watching the config file for changes and reloads
// automatically.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watching {
		return
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log := logging.NewFromEnv()
		log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("config change detected")

		if err := m.load(); err != nil {
			log.Warn().Err(err).Msg("failed to reload config")
			return
		}

		m.mu.RLock()
		cfg := m.config
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.RUnlock()

		for _, callback := range callbacks {
			callback(cfg)
		}
	})

	m.watching = true
}

// OnConfigChange registers a callback invoked after each reload.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}
