package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// UpgradeHelper is the record of a generated proposal. generate-proposal
// writes it next to the proposal document and generate-command reads it back.
type UpgradeHelper struct {
	ChainID          string      `json:"chain_id"`
	ConfigFileName   string      `json:"config_file_name"`
	Home             string      `json:"home"`
	Network          NetworkName `json:"network"`
	PreviousVersion  string      `json:"previous_version"`
	ProposalName     string      `json:"proposal_name"`
	ProposalFileName string      `json:"proposal_file_name"`
	Summary          string      `json:"summary"`
	TargetVersion    string      `json:"target_version"`
	UpgradeHeight    int64       `json:"upgrade_height"`
	UpgradeTime      time.Time   `json:"upgrade_time"`
	// VotingPeriod is expressed in hours.
	VotingPeriod   int64  `json:"voting_period"`
	DiscussionLink string `json:"discussion_link,omitempty"`
}

// ProposalName is the on-chain title of an upgrade proposal.
func ProposalName(chainName string, network Network, targetVersion string) string {
	return fmt.Sprintf("%s %s %s Upgrade", chainName, network.DisplayName, targetVersion)
}

// NewUpgradeHelper records the outcome of a proposal run.
func NewUpgradeHelper(cfg Config, previousVersion, targetVersion string, upgradeTime time.Time, upgradeHeight int64, summary string) UpgradeHelper {
	stem := cfg.Network.FileStem(targetVersion)
	return UpgradeHelper{
		ChainID:          cfg.Network.ChainID,
		ConfigFileName:   stem + ".json",
		Home:             cfg.Keys.Home,
		Network:          cfg.Network.Name,
		PreviousVersion:  previousVersion,
		ProposalName:     ProposalName(cfg.ChainName, cfg.Network, targetVersion),
		ProposalFileName: stem + ".md",
		Summary:          summary,
		TargetVersion:    targetVersion,
		UpgradeHeight:    upgradeHeight,
		UpgradeTime:      upgradeTime.UTC(),
		VotingPeriod:     int64(cfg.Network.VotingPeriod / time.Hour),
	}
}

// CommandFileName is the name of the submission script for this proposal.
func (h UpgradeHelper) CommandFileName() string {
	return strings.TrimSuffix(h.ProposalFileName, ".md") + ".sh"
}

// Validate checks versions and upgrade time against the network rules.
func (h UpgradeHelper) Validate(network Network) error {
	if !utils.IsValidTargetVersion(h.TargetVersion, network.TargetRC) {
		return fmt.Errorf("%w: invalid target version for %s: %s", ErrInvalidConfig, network.DisplayName, h.TargetVersion)
	}
	if !utils.IsValidVersion(h.PreviousVersion) {
		return fmt.Errorf("%w: invalid previous version: %s", ErrInvalidConfig, h.PreviousVersion)
	}
	if !utils.IsValidUpgradeTime(h.UpgradeTime) {
		return fmt.Errorf("%w: invalid upgrade time: %s falls on a weekend", ErrInvalidConfig, h.UpgradeTime.Format(time.RFC3339))
	}
	return nil
}

// ValidateHome checks that the keyring home recorded in the helper exists.
func (h UpgradeHelper) ValidateHome() error {
	info, err := os.Stat(h.Home)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: home directory does not exist: %s", ErrInvalidConfig, h.Home)
	}
	return nil
}

// Marshal encodes the helper as indented JSON.
func (h UpgradeHelper) Marshal() ([]byte, error) {
	return json.MarshalIndent(h, "", "  ")
}

// LoadUpgradeHelper reads a helper written by generate-proposal.
func LoadUpgradeHelper(path string) (UpgradeHelper, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return UpgradeHelper{}, fmt.Errorf("failed to read helper config: %w", err)
	}
	var h UpgradeHelper
	if err := json.Unmarshal(raw, &h); err != nil {
		return UpgradeHelper{}, fmt.Errorf("failed to parse helper config %s: %w", path, err)
	}
	return h, nil
}

// FindHelperConfigs lists the JSON files in dir, sorted by name.
func FindHelperConfigs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
