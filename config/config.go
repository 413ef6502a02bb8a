package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the config file looked up in the data directory.
const FileName = "tweakplay.config"

type Config struct {
	DataDir          string  `json:"data_dir" validate:"required"`
	ListenAddr       string  `json:"listen_addr" validate:"required,listen_addr"`
	Storage          string  `json:"storage" validate:"oneof=memory dir sqlite"`
	DebounceWindow   string  `json:"debounce_window" validate:"duration"`
	AutosaveInterval string  `json:"autosave_interval" validate:"duration"`
	ReadCacheTTL     string  `json:"read_cache_ttl" validate:"duration"`
	DefaultTheme     string  `json:"default_theme" validate:"required"`
	ThemeRegistry    string  `json:"theme_registry,omitempty"`
	MatchThreshold   float64 `json:"match_threshold,omitempty" validate:"gte=0,lte=1"`
	LogLevel         string  `json:"log_level" validate:"oneof=trace debug info warn error"`
	LogHuman         bool    `json:"log_human"`
}

func Default() Config {
	return Config{
		DataDir:          ".",
		ListenAddr:       ":8080",
		Storage:          "dir",
		DebounceWindow:   "1.5s",
		AutosaveInterval: "30s",
		ReadCacheTTL:     "100ms",
		DefaultTheme:     "default",
		LogLevel:         "info",
		LogHuman:         true,
	}
}

// Debounce is the parsed debounce window.
func (c Config) Debounce() time.Duration { return mustDuration(c.DebounceWindow) }

// Autosave is the parsed auto-save interval.
func (c Config) Autosave() time.Duration { return mustDuration(c.AutosaveInterval) }

// ReadTTL is the parsed read cache lifetime. Negative disables the cache.
func (c Config) ReadTTL() time.Duration { return mustDuration(c.ReadCacheTTL) }

// mustDuration parses a validated duration. Invalid input yields zero,
// which every consumer treats as "use the default".
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Path returns the config file location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

func Load(dataDir string) (Config, error) {
	cfgPath := Path(dataDir)

	f, err := os.Open(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.DataDir = dataDir
			return cfg, nil
		}
		return Config{}, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", cfgPath, err)
	}

	cfg.fillDefaults()
	if cfg.DataDir == "." {
		cfg.DataDir = dataDir
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.Storage == "" {
		c.Storage = def.Storage
	}
	if c.DebounceWindow == "" {
		c.DebounceWindow = def.DebounceWindow
	}
	if c.AutosaveInterval == "" {
		c.AutosaveInterval = def.AutosaveInterval
	}
	if c.ReadCacheTTL == "" {
		c.ReadCacheTTL = def.ReadCacheTTL
	}
	if c.DefaultTheme == "" {
		c.DefaultTheme = def.DefaultTheme
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func Save(cfg Config) error {
	if err := Validate(&cfg); err != nil {
		return err
	}
	cfgPath := Path(cfg.DataDir)

	// Create directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	tmp := cfgPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, cfgPath)
}
