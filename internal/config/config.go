package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Transport TransportConfig
	Fixtures  FixturesConfig
	Catalogue CatalogueConfig
	Workspace WorkspaceConfig
	Display   DisplayConfig
	Storage   StorageConfig
}

type TransportConfig struct {
	Mode                string `toml:"mode"`
	Endpoint            string `toml:"endpoint"`
	OrgID               string `toml:"org_id"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	MaxAttempts         int    `toml:"max_attempts"`
	BaseDelayMS         int    `toml:"base_delay_ms"`
	BypassCache         bool   `toml:"bypass_cache"`
	CacheTTLSeconds     int    `toml:"cache_ttl_seconds"`
	ViewTokenSecret     string `toml:"view_token_secret"`
	ViewTokenTTLSeconds int    `toml:"view_token_ttl_seconds"`
}

type FixturesConfig struct {
	Dir string `toml:"dir"`
}

type CatalogueConfig struct {
	Path string `toml:"path"`
}

type WorkspaceConfig struct {
	DefaultPreset   string `toml:"default_preset"`
	StrictIntegrity bool   `toml:"strict_integrity"`
}

type DisplayConfig struct {
	EventBufferSize int `toml:"event_buffer_size"`
	RefreshRateMS   int `toml:"refresh_rate_ms"`
}

type StorageConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

var knownTopLevel = map[string]bool{
	"transport": true,
	"fixtures":  true,
	"catalogue": true,
	"workspace": true,
	"display":   true,
	"storage":   true,
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "presetdeck", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads path, falling back to defaults when the file is missing.
func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return load(string(data), "config file")
}

func LoadFromString(data string) (*LoadResult, error) {
	if data == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}
	return load(data, "config")
}

func load(data, what string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", what, err)
	}
	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", what, err)
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

type tomlFile struct {
	Transport *TransportConfig `toml:"transport"`
	Fixtures  *FixturesConfig  `toml:"fixtures"`
	Catalogue *CatalogueConfig `toml:"catalogue"`
	Workspace *WorkspaceConfig `toml:"workspace"`
	Display   *DisplayConfig   `toml:"display"`
	Storage   *StorageConfig   `toml:"storage"`
}

// mergeFromRaw copies only the keys that are present in the file, so an
// explicit zero or false still overrides a non-zero default.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Transport != nil {
		if section, ok := rawSection(raw, "transport"); ok {
			if _, exists := section["mode"]; exists {
				cfg.Transport.Mode = tf.Transport.Mode
			}
			if _, exists := section["endpoint"]; exists {
				cfg.Transport.Endpoint = tf.Transport.Endpoint
			}
			if _, exists := section["org_id"]; exists {
				cfg.Transport.OrgID = tf.Transport.OrgID
			}
			if _, exists := section["timeout_seconds"]; exists {
				cfg.Transport.TimeoutSeconds = tf.Transport.TimeoutSeconds
			}
			if _, exists := section["max_attempts"]; exists {
				cfg.Transport.MaxAttempts = tf.Transport.MaxAttempts
			}
			if _, exists := section["base_delay_ms"]; exists {
				cfg.Transport.BaseDelayMS = tf.Transport.BaseDelayMS
			}
			if _, exists := section["bypass_cache"]; exists {
				cfg.Transport.BypassCache = tf.Transport.BypassCache
			}
			if _, exists := section["cache_ttl_seconds"]; exists {
				cfg.Transport.CacheTTLSeconds = tf.Transport.CacheTTLSeconds
			}
			if _, exists := section["view_token_secret"]; exists {
				cfg.Transport.ViewTokenSecret = tf.Transport.ViewTokenSecret
			}
			if _, exists := section["view_token_ttl_seconds"]; exists {
				cfg.Transport.ViewTokenTTLSeconds = tf.Transport.ViewTokenTTLSeconds
			}
		}
	}
	if tf.Fixtures != nil {
		if section, ok := rawSection(raw, "fixtures"); ok {
			if _, exists := section["dir"]; exists {
				cfg.Fixtures.Dir = tf.Fixtures.Dir
			}
		}
	}
	if tf.Catalogue != nil {
		if section, ok := rawSection(raw, "catalogue"); ok {
			if _, exists := section["path"]; exists {
				cfg.Catalogue.Path = tf.Catalogue.Path
			}
		}
	}
	if tf.Workspace != nil {
		if section, ok := rawSection(raw, "workspace"); ok {
			if _, exists := section["default_preset"]; exists {
				cfg.Workspace.DefaultPreset = tf.Workspace.DefaultPreset
			}
			if _, exists := section["strict_integrity"]; exists {
				cfg.Workspace.StrictIntegrity = tf.Workspace.StrictIntegrity
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["event_buffer_size"]; exists {
				cfg.Display.EventBufferSize = tf.Display.EventBufferSize
			}
			if _, exists := section["refresh_rate_ms"]; exists {
				cfg.Display.RefreshRateMS = tf.Display.RefreshRateMS
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.Storage.RetentionDays = tf.Storage.RetentionDays
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func validate(cfg *Config) error {
	var errs []string

	switch cfg.Transport.Mode {
	case "fixture":
	case "live":
		if cfg.Transport.Endpoint == "" {
			errs = append(errs, "transport endpoint is required in live mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("transport mode must be fixture or live, got %q", cfg.Transport.Mode))
	}
	if cfg.Transport.Endpoint != "" {
		u, err := url.Parse(cfg.Transport.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("transport endpoint must be an http(s) URL, got %q", cfg.Transport.Endpoint))
		}
	}
	if cfg.Transport.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Sprintf("timeout_seconds must be positive, got %d", cfg.Transport.TimeoutSeconds))
	}
	if cfg.Transport.MaxAttempts < 1 || cfg.Transport.MaxAttempts > 10 {
		errs = append(errs, fmt.Sprintf("max_attempts must be 1-10, got %d", cfg.Transport.MaxAttempts))
	}
	if cfg.Transport.BaseDelayMS < 0 {
		errs = append(errs, fmt.Sprintf("base_delay_ms must not be negative, got %d", cfg.Transport.BaseDelayMS))
	}
	if cfg.Transport.CacheTTLSeconds < 0 {
		errs = append(errs, fmt.Sprintf("cache_ttl_seconds must not be negative, got %d", cfg.Transport.CacheTTLSeconds))
	}
	if cfg.Transport.ViewTokenTTLSeconds < 1 {
		errs = append(errs, fmt.Sprintf("view_token_ttl_seconds must be positive, got %d", cfg.Transport.ViewTokenTTLSeconds))
	}

	if cfg.Display.EventBufferSize < 1 {
		errs = append(errs, fmt.Sprintf("event_buffer_size must be positive, got %d", cfg.Display.EventBufferSize))
	}
	if cfg.Display.RefreshRateMS < 1 {
		errs = append(errs, fmt.Sprintf("refresh_rate_ms must be positive, got %d", cfg.Display.RefreshRateMS))
	}

	if cfg.Storage.RetentionDays <= 0 {
		errs = append(errs, fmt.Sprintf("storage retention_days must be positive, got %d", cfg.Storage.RetentionDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
