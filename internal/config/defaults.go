package config

import (
	"os"
	"path/filepath"
)

func DefaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			Mode:                "fixture",
			TimeoutSeconds:      30,
			MaxAttempts:         3,
			BaseDelayMS:         250,
			CacheTTLSeconds:     300,
			ViewTokenTTLSeconds: 300,
		},
		Workspace: WorkspaceConfig{
			DefaultPreset:   "live_flow",
			StrictIntegrity: true,
		},
		Display: DisplayConfig{
			EventBufferSize: 1000,
			RefreshRateMS:   500,
		},
		Storage: StorageConfig{
			DBPath:        defaultDBPath(),
			RetentionDays: 30,
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "presetdeck", "runs.db")
}
