package upgradehelper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/manifest-network/upgrade-helper/internal/client"
	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/extractor"
	"github.com/manifest-network/upgrade-helper/internal/llm"
	"github.com/manifest-network/upgrade-helper/internal/output"
	"github.com/manifest-network/upgrade-helper/internal/proposal"
	"github.com/manifest-network/upgrade-helper/internal/release"
	"github.com/manifest-network/upgrade-helper/internal/summarizer"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// Layouts accepted by --upgrade-time besides RFC 3339. They are read as UTC.
var upgradeTimeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04"}

func (a *app) newGenerateProposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-proposal",
		Short: "Generate the proposal document and helper file for an upgrade",
		Long: `Fetches the release of the target version, summarizes its notes, estimates
the block height at the upgrade time and writes the proposal markdown together
with a helper JSON file consumed by generate-command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.finish(cmd, a.runGenerateProposal(cmd))
		},
	}

	f := cmd.Flags()
	f.String(flagModel, llm.DefaultModel.String(), "Model used to summarize the release notes")
	f.String(flagPreviousVersion, "", "Version currently running on the network")
	f.String(flagTargetVersion, "", "Version to upgrade to")
	f.String(flagUpgradeTime, "", "Upgrade time, RFC 3339 or \"YYYY-MM-DD HH:MM\" in UTC (default: after the voting period)")
	f.Int64(flagRoundingUnit, 500, "Round the estimated height to a multiple of this")
	f.Int64(flagSampleWindow, 50_000, "Number of recent blocks used to measure the block time")
	f.Uint(flagMaxAttempts, 4, "Maximum summarization attempts")
	f.Bool(flagForce, false, "Overwrite existing files")
	_ = cmd.MarkFlagRequired(flagPreviousVersion)
	_ = cmd.MarkFlagRequired(flagTargetVersion)

	if err := bindFlags(a.v, f, proposalBindings); err != nil {
		panic(err)
	}
	return cmd
}

func (a *app) runGenerateProposal(cmd *cobra.Command) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	cfg, err := config.LoadConfig(a.v)
	if err != nil {
		return err
	}
	model, err := llm.ParseModel(cfg.LLM.Model, cfg.LLM.ExtraModels...)
	if err != nil {
		return err
	}

	previous, _ := flags.GetString(flagPreviousVersion)
	target, _ := flags.GetString(flagTargetVersion)
	rawTime, _ := flags.GetString(flagUpgradeTime)
	upgradeTime, err := parseUpgradeTime(rawTime, cfg.Network.VotingPeriod, a.now())
	if err != nil {
		return err
	}

	helper := config.NewUpgradeHelper(cfg, previous, target, upgradeTime, 0, "")
	if err := helper.Validate(cfg.Network); err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("%w: no API key for %s, set OPENAI_API_KEY", config.ErrInvalidConfig, cfg.LLM.APIURL)
	}

	slog.Info("Generating proposal",
		"network", cfg.Network.Name,
		"previous_version", previous,
		"target_version", target,
		"upgrade_time", helper.UpgradeTime,
		"model", model,
	)

	chain, err := client.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = chain.Close() }()

	renderer, err := proposal.NewMarkdownRenderer()
	if err != nil {
		return err
	}

	noProgress, _ := flags.GetBool(flagNoProgress)
	assembler := &proposal.Assembler{
		Releases: release.NewGitHub(cfg.Release.APIURL, cfg.Release.Owner, cfg.Release.Repo, cfg.Release.Token, cfg.Chain.Timeout),
		Blocks: &extractor.SampleFetcher{
			Source:         chain,
			Points:         cfg.Chain.SamplePoints,
			MaxConcurrency: cfg.Chain.MaxConcurrency,
			Retry:          cfg.Chain.RetryPolicy(),
			ShowProgress:   !noProgress,
		},
		Summarizer: summarizer.New(
			llm.NewClient(cfg.LLM.APIURL, cfg.LLM.APIKey, cfg.LLM.Timeout, cfg.LLM.MaxTokens),
			cfg.LLM.MaxPromptChars,
			cfg.LLM.RetryPolicy(),
			a.metrics,
		),
		Renderer: renderer,
		Retry:    cfg.Chain.RetryPolicy(),
		Metrics:  a.metrics,
	}

	doc, err := assembler.Assemble(ctx, proposal.Request{
		Network:         cfg.Network,
		ChainName:       cfg.ChainName,
		PreviousVersion: previous,
		TargetVersion:   target,
		UpgradeTime:     helper.UpgradeTime,
		Model:           model,
		MaxAttempts:     int(cfg.LLM.MaxAttempts),
		RoundingUnit:    cfg.RoundingUnit,
		SampleWindow:    cfg.Chain.SampleWindow,
		Author:          cfg.Proposal.Author,
	})
	if err != nil {
		return err
	}

	helper.UpgradeHeight = doc.UpgradeHeight
	helper.Summary = doc.Summary
	raw, err := helper.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode helper config: %w", err)
	}

	force, _ := flags.GetBool(flagForce)
	writer := &output.FileWriter{Dir: cfg.Proposal.OutputDir, Overwrite: force}
	if err := writer.Write(ctx, helper.ProposalFileName, []byte(doc.RenderedMarkdown)); err != nil {
		return err
	}
	if err := writer.Write(ctx, helper.ConfigFileName, raw); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Upgrade height %s at %s\n", utils.FormatNumber(doc.UpgradeHeight), utils.TimeString(helper.UpgradeTime))
	return nil
}

// parseUpgradeTime reads --upgrade-time, defaulting to the first valid slot
// after the voting period.
func parseUpgradeTime(raw string, votingPeriod time.Duration, now time.Time) (time.Time, error) {
	if raw == "" {
		return utils.PlannedUpgradeTime(votingPeriod, now), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range upgradeTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse upgrade time %q", config.ErrInvalidConfig, raw)
}
