package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default configuration constants
const (
	defaultListen     = "127.0.0.1:7641"
	defaultRetryDelay = 50 * time.Millisecond
	defaultDebounce   = 300 * time.Millisecond
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", defaultListen)

	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.profile_dir", "")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.exec_path", "")

	v.SetDefault("injection.retry_delay", defaultRetryDelay)
	v.SetDefault("popup.debounce", defaultDebounce)

	v.SetDefault("store.backend", string(StoreFile))
	v.SetDefault("store.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// DefaultConfig returns the default configuration values for linktint.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Listen: defaultListen},
		Injection: InjectionConfig{
			RetryDelay: defaultRetryDelay,
		},
		Popup: PopupConfig{
			Debounce: defaultDebounce,
		},
		Store: StoreConfig{
			Backend: StoreFile,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
