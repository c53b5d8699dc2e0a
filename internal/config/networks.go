package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// NetworkName identifies one of the supported networks.
type NetworkName string

const (
	Mainnet NetworkName = "mainnet"
	Testnet NetworkName = "testnet"
	Local   NetworkName = "local"
)

// Network holds everything that differs between networks. All fields can be
// overridden under networks.<name> in the config file.
type Network struct {
	Name          NetworkName   `mapstructure:"-"`
	DisplayName   string        `mapstructure:"display-name"`
	ChainID       string        `mapstructure:"chain-id"`
	Denom         string        `mapstructure:"denom"`
	Fees          string        `mapstructure:"fees"`
	VotingPeriod  time.Duration `mapstructure:"voting-period"`
	GRPC          string        `mapstructure:"grpc"`
	REST          string        `mapstructure:"rest"`
	TendermintRPC string        `mapstructure:"tm-rpc"`
	// ExplorerBlockURL is a format string taking the block height.
	ExplorerBlockURL string `mapstructure:"explorer-block-url"`
	// HomeDir is the daemon home relative to the user's home directory.
	HomeDir  string       `mapstructure:"home-dir"`
	TargetRC utils.RCRule `mapstructure:"target-rc"`
}

// DefaultNetworks returns the built-in network table.
func DefaultNetworks() map[NetworkName]Network {
	return map[NetworkName]Network{
		Mainnet: {
			Name:             Mainnet,
			DisplayName:      "Mainnet",
			ChainID:          "evmos_9001-2",
			Denom:            "aevmos",
			Fees:             "10000000000aevmos",
			VotingPeriod:     120 * time.Hour,
			GRPC:             "grpc.evmos.lava.build:443",
			REST:             "https://rest.evmos.lava.build",
			TendermintRPC:    "https://tm.evmos.lava.build:26657",
			ExplorerBlockURL: "https://www.mintscan.io/evmos/blocks/%d",
			HomeDir:          ".evmosd",
			TargetRC:         utils.RCForbidden,
		},
		Testnet: {
			Name:             Testnet,
			DisplayName:      "Testnet",
			ChainID:          "evmos_9000-4",
			Denom:            "atevmos",
			Fees:             "10000000000atevmos",
			VotingPeriod:     12 * time.Hour,
			GRPC:             "grpc.evmos-testnet.lava.build:443",
			REST:             "https://rest.evmos-testnet.lava.build",
			TendermintRPC:    "https://tm.evmos-testnet.lava.build:26657",
			ExplorerBlockURL: "https://testnet.mintscan.io/evmos-testnet/blocks/%d",
			HomeDir:          ".evmosd",
			TargetRC:         utils.RCRequired,
		},
		Local: {
			Name:             Local,
			DisplayName:      "Local Node",
			ChainID:          "evmos_9000-4",
			Denom:            "aevmos",
			Fees:             "10000000000aevmos",
			VotingPeriod:     time.Hour,
			GRPC:             "localhost:9090",
			REST:             "http://localhost:1317",
			TendermintRPC:    "http://localhost:26657",
			ExplorerBlockURL: "https://www.mintscan.io/evmos/blocks/%d",
			HomeDir:          ".tmp-evmosd",
			TargetRC:         utils.RCOptional,
		},
	}
}

// ParseNetworkName accepts the canonical names as well as the display names.
func ParseNetworkName(s string) (NetworkName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "local", "localnode", "local node", "local-node":
		return Local, nil
	default:
		return "", fmt.Errorf("invalid network %q: expected one of mainnet, testnet, local", s)
	}
}

// BlockURL links a height on the network's block explorer.
func (n Network) BlockURL(height int64) string {
	return fmt.Sprintf(n.ExplorerBlockURL, height)
}

// FileStem is the common prefix of the files written for a proposal.
func (n Network) FileStem(targetVersion string) string {
	return fmt.Sprintf("proposal-%s-%s", strings.ReplaceAll(n.DisplayName, " ", ""), targetVersion)
}
