package upgradehelper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manifest-network/upgrade-helper/internal/client"
	"github.com/manifest-network/upgrade-helper/internal/command"
	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/discussion"
	"github.com/manifest-network/upgrade-helper/internal/keys"
	"github.com/manifest-network/upgrade-helper/internal/output"
	"github.com/manifest-network/upgrade-helper/internal/prompt"
	"github.com/manifest-network/upgrade-helper/internal/release"
)

const scriptHeader = "#!/usr/bin/env bash\n\n"

func (a *app) newGenerateCommandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-command",
		Short: "Generate the shell command submitting a generated proposal",
		Long: `Reads a helper file written by generate-proposal, picks a funded key from the
local keyring and writes the submit-proposal command as a shell script next to
the helper file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.finish(cmd, a.runGenerateCommand(cmd))
		},
	}

	f := cmd.Flags()
	f.String(flagHelper, "", "Helper file written by generate-proposal (default: prompt among the files in --output-dir)")
	f.String(flagFrom, "", "Only consider the keyring key with this name")
	f.String(flagDiscussionLink, "", "Link to the forum discussion, required on mainnet")
	f.String(flagMinBalance, "1", "Minimum balance, in base denom, a key needs to be eligible")
	f.Bool(flagForce, false, "Overwrite an existing script")

	if err := bindFlags(a.v, f, commandBindings); err != nil {
		panic(err)
	}
	return cmd
}

func (a *app) runGenerateCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	selector := prompt.Selector{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}

	helperPath, _ := flags.GetString(flagHelper)
	if helperPath == "" {
		var err error
		if helperPath, err = a.chooseHelper(ctx, selector); err != nil {
			return err
		}
	}
	helper, err := config.LoadUpgradeHelper(helperPath)
	if err != nil {
		return err
	}

	// The network recorded at proposal time wins over --network.
	a.v.Set(config.KeyNetwork, string(helper.Network))
	cfg, err := config.LoadConfig(a.v)
	if err != nil {
		return err
	}
	if err := helper.Validate(cfg.Network); err != nil {
		return err
	}
	if err := helper.ValidateHome(); err != nil {
		return err
	}

	link, _ := flags.GetString(flagDiscussionLink)
	if link == "" {
		link = helper.DiscussionLink
	}
	if err := checkDiscussion(ctx, cfg, link); err != nil {
		return err
	}

	clientCfg := clientConfig(cfg, helper)

	description, err := os.ReadFile(filepath.Join(filepath.Dir(helperPath), helper.ProposalFileName))
	if err != nil {
		return fmt.Errorf("failed to read proposal document: %w", err)
	}

	chain, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = chain.Close() }()

	noProgress, _ := flags.GetBool(flagNoProgress)
	from, _ := flags.GetString(flagFrom)
	gen := &command.Generator{
		Keyring:  keys.NewCLIKeyring(cfg.Keys.Binary, helper.Home, clientCfg.KeyringBackend),
		Balances: chain,
		Releases: release.NewGitHub(cfg.Release.APIURL, cfg.Release.Owner, cfg.Release.Repo, cfg.Release.Token, cfg.Chain.Timeout),
		Chooser:  selector,
		Metrics:  a.metrics,
	}
	sub, err := gen.Generate(ctx, cfg.Network, command.Config{
		Daemon:         cfg.Daemon,
		Helper:         helper,
		Description:    string(description),
		DiscussionLink: link,
		KeyringBackend: clientCfg.KeyringBackend,
		BroadcastMode:  clientCfg.BroadcastMode,
		From:           from,
		MinBalance:     cfg.Keys.MinBalance,
		Balances: keys.BalanceOptions{
			MaxConcurrency: cfg.Chain.MaxConcurrency,
			Retry:          cfg.Chain.RetryPolicy(),
			ShowProgress:   !noProgress,
		},
		Retry: cfg.Chain.RetryPolicy(),
	})
	if err != nil {
		return err
	}

	force, _ := flags.GetBool(flagForce)
	dir := filepath.Dir(helperPath)
	script := scriptHeader + sub.CommandText + "\n"
	if err := (output.FileWriter{Dir: dir, Overwrite: force}).Write(ctx, helper.CommandFileName(), []byte(script)); err != nil {
		return err
	}

	if link != helper.DiscussionLink {
		helper.DiscussionLink = link
		raw, err := helper.Marshal()
		if err != nil {
			return fmt.Errorf("failed to encode helper config: %w", err)
		}
		if err := (output.FileWriter{Dir: dir, Overwrite: true}).Write(ctx, filepath.Base(helperPath), raw); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Proposal will be submitted with key %s (%s)\n", sub.ChosenKey.Name, sub.ChosenKey.Address)
	return nil
}

// chooseHelper finds the helper files in the output directory and asks the
// user to pick one when there are several.
func (a *app) chooseHelper(ctx context.Context, selector prompt.Selector) (string, error) {
	dir := a.v.GetString(config.KeyProposalOutputDir)
	files, err := config.FindHelperConfigs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list helper files in %s: %w", dir, err)
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no helper files in %s, run generate-proposal first or pass --%s", dir, flagHelper)
	case 1:
		return files[0], nil
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	i, err := selector.Select(ctx, "Select the proposal to submit", names)
	if err != nil {
		return "", err
	}
	return files[i], nil
}

// checkDiscussion requires a reachable discussion link on mainnet and checks
// any link given elsewhere.
func checkDiscussion(ctx context.Context, cfg config.Config, link string) error {
	if link == "" {
		if cfg.Network.Name == config.Mainnet {
			return fmt.Errorf("%w: --%s is required on %s", config.ErrInvalidConfig, flagDiscussionLink, cfg.Network.DisplayName)
		}
		return nil
	}
	return discussion.NewChecker(cfg.Proposal.DiscussionPrefix, cfg.Chain.Timeout).Check(ctx, link)
}

// clientConfig reads the daemon's client.toml, falling back to the
// configured keyring backend when it cannot be read.
func clientConfig(cfg config.Config, helper config.UpgradeHelper) config.ClientConfig {
	cc, err := config.LoadClientConfig(helper.Home)
	if err != nil {
		slog.Warn("Using configured keyring backend", "backend", cfg.Keys.Backend, "error", err)
		return config.ClientConfig{KeyringBackend: cfg.Keys.Backend, BroadcastMode: "sync"}
	}
	if cc.KeyringBackend == "" {
		cc.KeyringBackend = cfg.Keys.Backend
	}
	if cc.ChainID != "" && cc.ChainID != helper.ChainID {
		slog.Warn("Client config targets another chain", "client_chain_id", cc.ChainID, "proposal_chain_id", helper.ChainID)
	}
	return cc
}
