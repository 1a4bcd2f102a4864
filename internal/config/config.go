package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderConfig is one online provider endpoint.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Config holds all runtime settings for the studio core.
type Config struct {
	DeviceName      string `mapstructure:"device_name"`
	DeviceMemoryGiB int64  `mapstructure:"device_memory_gib"`

	MonitorTick    time.Duration `mapstructure:"monitor_tick"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxQueueDepth  int           `mapstructure:"max_queue_depth"`

	CacheCapacity int           `mapstructure:"cache_capacity"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`

	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`

	DBPath          string `mapstructure:"db_path"`
	AssetDir        string `mapstructure:"asset_dir"`
	AssetBaseURL    string `mapstructure:"asset_base_url"`
	ConnectivityURL string `mapstructure:"connectivity_url"`

	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// Load initializes viper and merges file, environment, and defaults.
// A missing config file is fine; env vars (STUDIO_*) alone can configure everything.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("monitor_tick", "5s")
	v.SetDefault("poll_interval", "100ms")
	v.SetDefault("request_timeout", "120s")
	v.SetDefault("max_queue_depth", 128)
	v.SetDefault("cache_capacity", 256)
	v.SetDefault("cache_ttl", "30m")
	v.SetDefault("session_idle_timeout", "30m")
	v.SetDefault("db_path", "studio.db")
	v.SetDefault("asset_dir", "models")
	v.SetDefault("asset_base_url", "https://assets.agentstudio.dev")
	v.SetDefault("device_name", "")
	v.SetDefault("device_memory_gib", 0)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	// Config file is optional; env vars alone may carry everything.
	_ = v.ReadInConfig()

	v.SetEnvPrefix("STUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
