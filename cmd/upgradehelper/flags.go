package upgradehelper

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/manifest-network/upgrade-helper/internal/config"
)

// Flags shared by every subcommand.
const (
	flagConfig         = "config"
	flagEnvFile        = "env-file"
	flagLogLevel       = "log-level"
	flagMetricsFile    = "metrics-file"
	flagNetwork        = "network"
	flagTransport      = "transport"
	flagInsecure       = "insecure"
	flagMaxRetries     = "max-retries"
	flagMaxConcurrency = "max-concurrency"
	flagHome           = "home"
	flagOutputDir      = "output-dir"
	flagNoProgress     = "no-progress"
)

// generate-proposal flags.
const (
	flagModel           = "model"
	flagPreviousVersion = "previous-version"
	flagTargetVersion   = "target-version"
	flagUpgradeTime     = "upgrade-time"
	flagRoundingUnit    = "rounding-unit"
	flagSampleWindow    = "sample-window"
	flagMaxAttempts     = "max-attempts"
	flagForce           = "force"
)

// generate-command flags.
const (
	flagHelper         = "helper"
	flagFrom           = "from"
	flagDiscussionLink = "discussion-link"
	flagMinBalance     = "min-balance"
)

// persistentBindings maps persistent flags onto configuration keys.
var persistentBindings = map[string]string{
	flagNetwork:        config.KeyNetwork,
	flagTransport:      config.KeyChainTransport,
	flagInsecure:       config.KeyChainInsecure,
	flagMaxRetries:     config.KeyChainMaxRetries,
	flagMaxConcurrency: config.KeyChainMaxConcurrency,
	flagHome:           config.KeyKeysHome,
	flagOutputDir:      config.KeyProposalOutputDir,
}

var proposalBindings = map[string]string{
	flagModel:        config.KeyLLMModel,
	flagRoundingUnit: config.KeyRoundingUnit,
	flagSampleWindow: config.KeyChainSampleWindow,
	flagMaxAttempts:  config.KeyLLMMaxAttempts,
}

var commandBindings = map[string]string{
	flagMinBalance: config.KeyKeysMinBalance,
}

func addPersistentFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String(flagConfig, "", "Path to a config file (default: ./upgrade-helper.* or ~/.config/upgrade-helper/upgrade-helper.*)")
	f.String(flagEnvFile, ".env", "Dotenv file loaded before reading the environment")
	f.String(flagLogLevel, "info", "Log level (debug, info, warn, error)")
	f.String(flagMetricsFile, "", "Write run metrics in the Prometheus text format to this file")
	f.String(flagNetwork, "testnet", "Network to use (mainnet, testnet, local)")
	f.String(flagTransport, config.TransportGRPC, "Chain transport (grpc, rest)")
	f.Bool(flagInsecure, false, "Skip TLS for the gRPC endpoint")
	f.Uint(flagMaxRetries, 3, "Maximum attempts of each chain, balance and release query")
	f.Uint(flagMaxConcurrency, 8, "Maximum concurrent chain queries")
	f.String(flagHome, "", "Daemon home holding the keyring (default: the network's home under $HOME)")
	f.String(flagOutputDir, ".", "Directory for generated files")
	f.Bool(flagNoProgress, false, "Hide progress bars")
}

// bindFlags binds each named flag of fs to its configuration key so that an
// explicit flag wins over the config file and the environment.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag --%s is not defined", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}
