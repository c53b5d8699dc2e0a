// Package command generates the shell command that submits an upgrade
// proposal on-chain.
package command

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"cosmossdk.io/math"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/keys"
	"github.com/manifest-network/upgrade-helper/internal/metrics"
	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/release"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

//go:embed templates/command.sh.tmpl
var templates embed.FS

var commandTemplate = template.Must(
	template.New("command.sh.tmpl").Option("missingkey=error").ParseFS(templates, "templates/command.sh.tmpl"),
)

const discussionFooter = "\n----\n## Discussion\nPlease follow and discuss this proposal using the official [discussion on Commonwealth](%s)."

// KeyChooser picks one key among several eligible ones.
type KeyChooser interface {
	Choose(ctx context.Context, candidates []models.SigningKey) (models.SigningKey, error)
}

// ReleaseSource fetches a release and its assets.
type ReleaseSource interface {
	Fetch(ctx context.Context, tag string) (models.ReleaseInfo, error)
	release.Downloader
}

// Config carries the proposal the command submits.
type Config struct {
	Daemon string
	Helper config.UpgradeHelper
	// Description is the proposal Markdown.
	Description    string
	DiscussionLink string
	KeyringBackend string
	BroadcastMode  string
	// From restricts the candidates to the key with this name.
	From       string
	MinBalance math.Int
	Balances   keys.BalanceOptions
	Retry      utils.RetryPolicy
}

// Generator renders submission commands.
type Generator struct {
	Keyring  keys.KeyringReader
	Balances keys.BalanceLookup
	Releases ReleaseSource
	// Chooser decides among several eligible keys. When nil the richest
	// key is taken.
	Chooser KeyChooser
	Metrics *metrics.Recorder
}

type commandData struct {
	Daemon         string
	Version        string
	Title          string
	Height         int64
	Description    string
	KeyringBackend string
	Key            string
	Fees           string
	ChainID        string
	Home           string
	Node           string
	UpgradeInfo    string
	BroadcastMode  string
}

// Generate picks a funded key and renders the command submitting the
// proposal described by cfg on net.
func (g *Generator) Generate(ctx context.Context, net config.Network, cfg Config) (models.SubmissionCommand, error) {
	key, err := g.chooseKey(ctx, net, cfg)
	if err != nil {
		return models.SubmissionCommand{}, err
	}
	slog.Info("Using signing key", "name", key.Name, "address", key.Address, "balance", key.Balance.String()+key.Denom)

	upgradeInfo, err := g.upgradeInfo(ctx, cfg)
	if err != nil {
		return models.SubmissionCommand{}, err
	}

	text, err := render(commandData{
		Daemon:         cfg.Daemon,
		Version:        cfg.Helper.TargetVersion,
		Title:          shellEscaper.Replace(cfg.Helper.ProposalName),
		Height:         cfg.Helper.UpgradeHeight,
		Description:    Description(cfg.Description, cfg.DiscussionLink),
		KeyringBackend: cfg.KeyringBackend,
		Key:            key.Name,
		Fees:           net.Fees,
		ChainID:        cfg.Helper.ChainID,
		Home:           cfg.Helper.Home,
		Node:           net.TendermintRPC,
		UpgradeInfo:    upgradeInfo,
		BroadcastMode:  broadcastMode(cfg.BroadcastMode),
	})
	if err != nil {
		return models.SubmissionCommand{}, err
	}
	return models.SubmissionCommand{CommandText: text, ChosenKey: key}, nil
}

func (g *Generator) chooseKey(ctx context.Context, net config.Network, cfg Config) (models.SigningKey, error) {
	start := time.Now()
	entries, err := g.Keyring.ListKeys(ctx)
	if err != nil {
		return models.SigningKey{}, err
	}
	if cfg.From != "" {
		entries = filterByName(entries, cfg.From)
		if len(entries) == 0 {
			return models.SigningKey{}, fmt.Errorf("%w: key %q is not in the keyring", keys.ErrNoEligibleKey, cfg.From)
		}
	}
	slog.Info("Checking key balances", "keys", len(entries), "denom", net.Denom)

	signing, err := keys.WithBalances(ctx, entries, net.Denom, g.Balances, cfg.Balances)
	if err != nil {
		return models.SigningKey{}, err
	}

	minBalance := cfg.MinBalance
	if minBalance.IsNil() {
		minBalance = math.OneInt()
	}
	candidates, err := keys.Select(signing, net, minBalance)
	g.Metrics.SetEligibleKeys(len(candidates))
	g.Metrics.ObserveStep("select_key", time.Since(start), err)
	if err != nil {
		return models.SigningKey{}, err
	}

	if len(candidates) == 1 || g.Chooser == nil {
		return candidates[0], nil
	}
	return g.Chooser.Choose(ctx, candidates)
}

func (g *Generator) upgradeInfo(ctx context.Context, cfg Config) (string, error) {
	start := time.Now()
	var info string
	_, err := utils.Retry(ctx, cfg.Retry, "upgrade info", func(ctx context.Context) error {
		rel, err := g.Releases.Fetch(ctx, cfg.Helper.TargetVersion)
		if err != nil {
			return err
		}
		info, err = release.ResolveUpgradeInfo(ctx, g.Releases, rel)
		return err
	})
	g.Metrics.ObserveStep("upgrade_info", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to resolve upgrade info for %s: %w", cfg.Helper.TargetVersion, err)
	}
	return info, nil
}

func render(data commandData) (string, error) {
	var buf bytes.Buffer
	if err := commandTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render command: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Description appends the discussion footer to the proposal text and escapes
// it for a double-quoted shell argument. Newlines become literal \n.
func Description(markdown, discussionLink string) string {
	text := strings.TrimSpace(markdown) + fmt.Sprintf(discussionFooter, discussionLink)
	return shellEscaper.Replace(text)
}

var shellEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"$", `\$`,
	"`", "\\`",
	"\n", `\n`,
)

func broadcastMode(mode string) string {
	if mode == "" {
		return "sync"
	}
	return mode
}

func filterByName(entries []keys.Entry, name string) []keys.Entry {
	for _, e := range entries {
		if e.Name == name {
			return []keys.Entry{e}
		}
	}
	return nil
}
