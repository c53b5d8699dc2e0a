package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cosmossdk.io/math"
	"github.com/spf13/viper"

	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Transports for reaching the chain.
const (
	TransportGRPC = "grpc"
	TransportREST = "rest"
)

// Viper keys. Flags bind to the same names.
const (
	KeyNetwork   = "network"
	KeyChainName = "chain-name"
	KeyDaemon    = "daemon"

	KeyChainTransport      = "chain.transport"
	KeyChainInsecure       = "chain.insecure"
	KeyChainMaxRetries     = "chain.max-retries"
	KeyChainMaxConcurrency = "chain.max-concurrency"
	KeyChainSampleWindow   = "chain.sample-window"
	KeyChainSamplePoints   = "chain.sample-points"
	KeyChainTimeout        = "chain.timeout"

	KeyReleaseAPIURL = "release.api-url"
	KeyReleaseOwner  = "release.owner"
	KeyReleaseRepo   = "release.repo"
	KeyReleaseToken  = "release.token"

	KeyLLMAPIURL         = "llm.api-url"
	KeyLLMAPIKey         = "llm.api-key"
	KeyLLMModel          = "llm.model"
	KeyLLMExtraModels    = "llm.extra-models"
	KeyLLMMaxAttempts    = "llm.max-attempts"
	KeyLLMBaseDelay      = "llm.base-delay"
	KeyLLMMaxDelay       = "llm.max-delay"
	KeyLLMMaxPromptChars = "llm.max-prompt-chars"
	KeyLLMMaxTokens      = "llm.max-tokens"
	KeyLLMTimeout        = "llm.timeout"

	KeyRoundingUnit = "estimate.rounding-unit"

	KeyKeysBinary     = "keys.binary"
	KeyKeysHome       = "keys.home"
	KeyKeysBackend    = "keys.backend"
	KeyKeysMinBalance = "keys.min-balance"

	KeyProposalAuthor           = "proposal.author"
	KeyProposalOutputDir        = "proposal.output-dir"
	KeyProposalDiscussionPrefix = "proposal.discussion-prefix"

	KeyNetworks = "networks"
)

// ChainConfig controls how blocks and balances are read from the chain.
type ChainConfig struct {
	Transport      string
	Insecure       bool
	MaxRetries     uint
	MaxConcurrency uint
	SampleWindow   int64
	SamplePoints   int
	Timeout        time.Duration
}

// RetryPolicy is used for block, balance and release queries.
func (c ChainConfig) RetryPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		MaxAttempts: c.MaxRetries,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2,
		Jitter:      0.2,
	}
}

// ReleaseConfig points at the repository whose releases are proposed.
type ReleaseConfig struct {
	APIURL string
	Owner  string
	Repo   string
	Token  string
}

// LLMConfig configures the release-notes summarization.
type LLMConfig struct {
	APIURL         string
	APIKey         string
	Model          string
	ExtraModels    []string
	MaxAttempts    uint
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	MaxPromptChars int
	MaxTokens      int
	Timeout        time.Duration
}

// RetryPolicy is used for completion calls.
func (c LLMConfig) RetryPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		MaxDelay:    c.MaxDelay,
		Multiplier:  2,
		Jitter:      0.5,
	}
}

// KeysConfig locates the local keyring. Home is always explicit.
type KeysConfig struct {
	Binary     string
	Home       string
	Backend    string
	MinBalance math.Int
}

// ProposalConfig holds presentation settings of the generated documents.
type ProposalConfig struct {
	Author           string
	OutputDir        string
	DiscussionPrefix string
}

// Config is the typed view of all settings for one invocation.
type Config struct {
	Network      Network
	ChainName    string
	Daemon       string
	Chain        ChainConfig
	Release      ReleaseConfig
	LLM          LLMConfig
	RoundingUnit int64
	Keys         KeysConfig
	Proposal     ProposalConfig
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyNetwork, string(Testnet))
	v.SetDefault(KeyChainName, "Evmos")
	v.SetDefault(KeyDaemon, "evmosd")

	v.SetDefault(KeyChainTransport, TransportGRPC)
	v.SetDefault(KeyChainInsecure, false)
	v.SetDefault(KeyChainMaxRetries, 3)
	v.SetDefault(KeyChainMaxConcurrency, 8)
	v.SetDefault(KeyChainSampleWindow, 50_000)
	v.SetDefault(KeyChainSamplePoints, 2)
	v.SetDefault(KeyChainTimeout, 30*time.Second)

	v.SetDefault(KeyReleaseAPIURL, "https://api.github.com")
	v.SetDefault(KeyReleaseOwner, "evmos")
	v.SetDefault(KeyReleaseRepo, "evmos")

	v.SetDefault(KeyLLMAPIURL, "https://api.openai.com")
	v.SetDefault(KeyLLMModel, "gpt-4o")
	v.SetDefault(KeyLLMMaxAttempts, 4)
	v.SetDefault(KeyLLMBaseDelay, time.Second)
	v.SetDefault(KeyLLMMaxDelay, 30*time.Second)
	v.SetDefault(KeyLLMMaxPromptChars, 12_000)
	v.SetDefault(KeyLLMMaxTokens, 2000)
	v.SetDefault(KeyLLMTimeout, 2*time.Minute)

	v.SetDefault(KeyRoundingUnit, 500)

	v.SetDefault(KeyKeysBackend, "os")
	v.SetDefault(KeyKeysMinBalance, "1")

	v.SetDefault(KeyProposalAuthor, "Evmos Core Team")
	v.SetDefault(KeyProposalOutputDir, ".")
	v.SetDefault(KeyProposalDiscussionPrefix, "https://commonwealth.im/evmos")
}

// BindEnv maps the credential keys to their conventional variables as well
// as to the prefixed ones.
func BindEnv(v *viper.Viper, prefix string) error {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyLLMAPIKey, prefix+"_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return err
	}
	return v.BindEnv(KeyReleaseToken, prefix+"_RELEASE_TOKEN", "GITHUB_TOKEN")
}

// LoadConfig builds a Config from v and validates it.
func LoadConfig(v *viper.Viper) (Config, error) {
	name, err := ParseNetworkName(v.GetString(KeyNetwork))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	network, err := loadNetwork(v, name)
	if err != nil {
		return Config{}, err
	}

	minBalance, ok := math.NewIntFromString(v.GetString(KeyKeysMinBalance))
	if !ok {
		return Config{}, fmt.Errorf("%w: %s must be an integer amount, got %q", ErrInvalidConfig, KeyKeysMinBalance, v.GetString(KeyKeysMinBalance))
	}

	home, err := resolveHome(v.GetString(KeyKeysHome), network.HomeDir)
	if err != nil {
		return Config{}, err
	}

	daemon := v.GetString(KeyDaemon)
	binary := v.GetString(KeyKeysBinary)
	if binary == "" {
		binary = daemon
	}

	cfg := Config{
		Network:   network,
		ChainName: v.GetString(KeyChainName),
		Daemon:    daemon,
		Chain: ChainConfig{
			Transport:      strings.ToLower(v.GetString(KeyChainTransport)),
			Insecure:       v.GetBool(KeyChainInsecure),
			MaxRetries:     v.GetUint(KeyChainMaxRetries),
			MaxConcurrency: v.GetUint(KeyChainMaxConcurrency),
			SampleWindow:   v.GetInt64(KeyChainSampleWindow),
			SamplePoints:   v.GetInt(KeyChainSamplePoints),
			Timeout:        v.GetDuration(KeyChainTimeout),
		},
		Release: ReleaseConfig{
			APIURL: v.GetString(KeyReleaseAPIURL),
			Owner:  v.GetString(KeyReleaseOwner),
			Repo:   v.GetString(KeyReleaseRepo),
			Token:  v.GetString(KeyReleaseToken),
		},
		LLM: LLMConfig{
			APIURL:         v.GetString(KeyLLMAPIURL),
			APIKey:         v.GetString(KeyLLMAPIKey),
			Model:          v.GetString(KeyLLMModel),
			ExtraModels:    v.GetStringSlice(KeyLLMExtraModels),
			MaxAttempts:    v.GetUint(KeyLLMMaxAttempts),
			BaseDelay:      v.GetDuration(KeyLLMBaseDelay),
			MaxDelay:       v.GetDuration(KeyLLMMaxDelay),
			MaxPromptChars: v.GetInt(KeyLLMMaxPromptChars),
			MaxTokens:      v.GetInt(KeyLLMMaxTokens),
			Timeout:        v.GetDuration(KeyLLMTimeout),
		},
		RoundingUnit: v.GetInt64(KeyRoundingUnit),
		Keys: KeysConfig{
			Binary:     binary,
			Home:       home,
			Backend:    v.GetString(KeyKeysBackend),
			MinBalance: minBalance,
		},
		Proposal: ProposalConfig{
			Author:           v.GetString(KeyProposalAuthor),
			OutputDir:        v.GetString(KeyProposalOutputDir),
			DiscussionPrefix: v.GetString(KeyProposalDiscussionPrefix),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadNetwork(v *viper.Viper, name NetworkName) (Network, error) {
	network := DefaultNetworks()[name]
	key := KeyNetworks + "." + string(name)
	if v.IsSet(key) {
		if err := v.UnmarshalKey(key, &network); err != nil {
			return Network{}, fmt.Errorf("%w: failed to decode %s: %w", ErrInvalidConfig, key, err)
		}
	}
	network.Name = name
	return network, nil
}

// resolveHome returns the explicit keyring home, or the network default under
// the user's home directory.
func resolveHome(explicit, networkDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve keyring home: %w", err)
	}
	return filepath.Join(userHome, networkDir), nil
}

// Validate checks the invariants every component relies on.
func (c Config) Validate() error {
	var problems []string
	if c.Chain.Transport != TransportGRPC && c.Chain.Transport != TransportREST {
		problems = append(problems, fmt.Sprintf("%s must be %q or %q", KeyChainTransport, TransportGRPC, TransportREST))
	}
	if c.Chain.SampleWindow < 1 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyChainSampleWindow))
	}
	if c.Chain.SamplePoints < 2 {
		problems = append(problems, fmt.Sprintf("%s must be at least 2", KeyChainSamplePoints))
	}
	if c.Chain.MaxConcurrency == 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyChainMaxConcurrency))
	}
	if c.RoundingUnit < 1 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyRoundingUnit))
	}
	if c.LLM.MaxAttempts < 1 {
		problems = append(problems, fmt.Sprintf("%s must be at least 1", KeyLLMMaxAttempts))
	}
	if c.LLM.MaxPromptChars < 1 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyLLMMaxPromptChars))
	}
	if c.Keys.MinBalance.IsNegative() {
		problems = append(problems, fmt.Sprintf("%s must not be negative", KeyKeysMinBalance))
	}
	if c.Release.Owner == "" || c.Release.Repo == "" {
		problems = append(problems, "release owner and repo are required")
	}
	if c.Network.Denom == "" || c.Network.ChainID == "" {
		problems = append(problems, fmt.Sprintf("network %s needs a denom and a chain id", c.Network.Name))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
