package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ClientConfig mirrors the daemon's config/client.toml.
type ClientConfig struct {
	ChainID        string `toml:"chain-id"`
	KeyringBackend string `toml:"keyring-backend"`
	Output         string `toml:"output"`
	Node           string `toml:"node"`
	BroadcastMode  string `toml:"broadcast-mode"`
}

// ClientConfigPath returns the location of client.toml under a daemon home.
func ClientConfigPath(home string) string {
	return filepath.Join(home, "config", "client.toml")
}

// LoadClientConfig reads the client configuration of the daemon at home.
func LoadClientConfig(home string) (ClientConfig, error) {
	path := ClientConfigPath(home)
	raw, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("failed to read client config: %w", err)
	}

	var cfg ClientConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.BroadcastMode == "" {
		cfg.BroadcastMode = "sync"
	}
	return cfg, nil
}
