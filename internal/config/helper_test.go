package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, name NetworkName) Config {
	t.Helper()
	return Config{
		Network:   DefaultNetworks()[name],
		ChainName: "Evmos",
		Keys:      KeysConfig{Home: t.TempDir()},
	}
}

func TestNewUpgradeHelper(t *testing.T) {
	cfg := testConfig(t, Testnet)
	upgradeTime := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	h := NewUpgradeHelper(cfg, "v14.0.0", "v14.0.0-rc1", upgradeTime, 60, "")

	assert.Equal(t, "evmos_9000-4", h.ChainID)
	assert.Equal(t, "proposal-Testnet-v14.0.0-rc1.json", h.ConfigFileName)
	assert.Equal(t, "proposal-Testnet-v14.0.0-rc1.md", h.ProposalFileName)
	assert.Equal(t, "proposal-Testnet-v14.0.0-rc1.sh", h.CommandFileName())
	assert.Equal(t, "Evmos Testnet v14.0.0-rc1 Upgrade", h.ProposalName)
	assert.Equal(t, Testnet, h.Network)
	assert.Equal(t, int64(12), h.VotingPeriod)
	assert.Equal(t, cfg.Keys.Home, h.Home)
}

func TestUpgradeHelperRoundTrip(t *testing.T) {
	cfg := testConfig(t, Mainnet)
	h := NewUpgradeHelper(cfg, "v15.0.0", "v16.0.0", time.Date(2023, 10, 30, 16, 0, 0, 0, time.UTC), 18_900_000, "- faster blocks")

	raw, err := h.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), h.ConfigFileName)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	read, err := LoadUpgradeHelper(path)
	require.NoError(t, err)
	assert.Equal(t, h, read)
}

func TestUpgradeHelperValidate(t *testing.T) {
	monday := time.Date(2023, 10, 30, 16, 0, 0, 0, time.UTC)
	saturday := time.Date(2023, 10, 28, 16, 0, 0, 0, time.UTC)
	networks := DefaultNetworks()

	cases := []struct {
		name     string
		network  NetworkName
		previous string
		target   string
		when     time.Time
		wantErr  string
	}{
		{name: "valid mainnet", network: Mainnet, previous: "v15.0.0", target: "v16.0.0", when: monday},
		{name: "valid testnet", network: Testnet, previous: "v15.0.0", target: "v16.0.0-rc1", when: monday},
		{name: "mainnet rc", network: Mainnet, previous: "v15.0.0", target: "v16.0.0-rc1", when: monday, wantErr: "invalid target version"},
		{name: "bad previous", network: Mainnet, previous: "15.0", target: "v16.0.0", when: monday, wantErr: "invalid previous version"},
		{name: "weekend", network: Mainnet, previous: "v15.0.0", target: "v16.0.0", when: saturday, wantErr: "weekend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := UpgradeHelper{PreviousVersion: tc.previous, TargetVersion: tc.target, UpgradeTime: tc.when}
			err := h.Validate(networks[tc.network])
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateHome(t *testing.T) {
	assert.NoError(t, UpgradeHelper{Home: t.TempDir()}.ValidateHome())
	assert.Error(t, UpgradeHelper{Home: "/tmp/does-not-exist-upgrade-helper"}.ValidateHome())
}

func TestFindHelperConfigs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	files, err := FindHelperConfigs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, files)
}
