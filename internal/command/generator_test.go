package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/failure"
	"github.com/manifest-network/upgrade-helper/internal/keys"
	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

const releaseBase = "https://github.com/evmos/evmos/releases/download/v14.0.0/"

type fakeKeyring struct {
	entries []keys.Entry
	err     error
}

func (f fakeKeyring) ListKeys(context.Context) ([]keys.Entry, error) { return f.entries, f.err }

type fakeBalances map[string]int64

func (f fakeBalances) BalanceOf(_ context.Context, address, _ string) (math.Int, error) {
	amount, ok := f[address]
	if !ok {
		return math.Int{}, failure.Fatal(errors.New("account not found"))
	}
	return math.NewInt(amount), nil
}

type fakeReleases struct{}

func (fakeReleases) Fetch(_ context.Context, tag string) (models.ReleaseInfo, error) {
	return models.ReleaseInfo{
		Tag: tag,
		Assets: []models.ReleaseAsset{
			{Name: "checksums.txt", DownloadURL: releaseBase + "checksums.txt"},
			{Name: "evmos_14.0.0_Linux_amd64.tar.gz", DownloadURL: releaseBase + "evmos_14.0.0_Linux_amd64.tar.gz"},
			{Name: "evmos_14.0.0_Darwin_arm64.tar.gz", DownloadURL: releaseBase + "evmos_14.0.0_Darwin_arm64.tar.gz"},
		},
	}, nil
}

func (fakeReleases) Download(context.Context, models.ReleaseAsset) (string, error) {
	return "427c2c4a  evmos_14.0.0_Linux_amd64.tar.gz\n541d4bac  evmos_14.0.0_Darwin_arm64.tar.gz\n", nil
}

type pickLast struct{ seen []string }

func (p *pickLast) Choose(_ context.Context, candidates []models.SigningKey) (models.SigningKey, error) {
	for _, c := range candidates {
		p.seen = append(p.seen, c.Name)
	}
	return candidates[len(candidates)-1], nil
}

func testConfig(home string) Config {
	return Config{
		Daemon: "evmosd",
		Helper: config.UpgradeHelper{
			ChainID:       "evmos_9000-4",
			Home:          home,
			ProposalName:  "Evmos Testnet v14.0.0 Upgrade",
			TargetVersion: "v14.0.0",
			UpgradeHeight: 60,
		},
		Description:    "This is a test proposal.",
		KeyringBackend: "test",
		MinBalance:     math.OneInt(),
		Balances:       keys.BalanceOptions{MaxConcurrency: 2, Retry: utils.RetryPolicy{MaxAttempts: 1}},
		Retry:          utils.RetryPolicy{MaxAttempts: 1},
	}
}

func TestGenerate(t *testing.T) {
	testnet := config.DefaultNetworks()[config.Testnet]
	g := &Generator{
		Keyring:  fakeKeyring{entries: []keys.Entry{{Name: "dev0", Address: "evmos1dev0"}, {Name: "dev1", Address: "evmos1dev1"}}},
		Balances: fakeBalances{"evmos1dev0": 100, "evmos1dev1": 0},
		Releases: fakeReleases{},
	}

	cmd, err := g.Generate(context.Background(), testnet, testConfig("/root/.evmosd"))
	require.NoError(t, err)

	expected := strings.Join([]string{
		`evmosd tx gov submit-legacy-proposal software-upgrade v14.0.0 \`,
		`--title "Evmos Testnet v14.0.0 Upgrade" \`,
		`--upgrade-height 60 \`,
		`--description "This is a test proposal.\n----\n## Discussion\nPlease follow and discuss this proposal using the official [discussion on Commonwealth]()." \`,
		`--keyring-backend test \`,
		`--from dev0 \`,
		`--fees 10000000000atevmos \`,
		`--gas auto \`,
		`--chain-id evmos_9000-4 \`,
		`--home /root/.evmosd \`,
		`--node https://tm.evmos-testnet.lava.build:26657 \`,
		`--upgrade-info '{"binaries":{"darwin/arm64":"` + releaseBase + `evmos_14.0.0_Darwin_arm64.tar.gz?checksum=541d4bac","linux/amd64":"` + releaseBase + `evmos_14.0.0_Linux_amd64.tar.gz?checksum=427c2c4a"}}' \`,
		`-b sync`,
	}, "\n")
	assert.Equal(t, expected, cmd.CommandText)
	assert.Equal(t, "dev0", cmd.ChosenKey.Name)
	assert.Equal(t, int64(100), cmd.ChosenKey.Balance.Int64())
}

func TestGenerateKeyChoice(t *testing.T) {
	testnet := config.DefaultNetworks()[config.Testnet]
	entries := []keys.Entry{{Name: "dev0", Address: "a0"}, {Name: "dev1", Address: "a1"}, {Name: "dev2", Address: "a2"}}
	balances := fakeBalances{"a0": 5, "a1": 10, "a2": 10}

	cases := []struct {
		name     string
		chooser  *pickLast
		from     string
		wantKey  string
		wantSeen []string
	}{
		{name: "richest by default", wantKey: "dev1"},
		{name: "chooser gets ordered candidates", chooser: &pickLast{}, wantKey: "dev0", wantSeen: []string{"dev1", "dev2", "dev0"}},
		{name: "explicit key skips chooser", chooser: &pickLast{}, from: "dev2", wantKey: "dev2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &Generator{Keyring: fakeKeyring{entries: entries}, Balances: balances, Releases: fakeReleases{}}
			if tc.chooser != nil {
				g.Chooser = tc.chooser
			}
			cfg := testConfig(t.TempDir())
			cfg.From = tc.from

			cmd, err := g.Generate(context.Background(), testnet, cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKey, cmd.ChosenKey.Name)
			assert.Contains(t, cmd.CommandText, "--from "+tc.wantKey+" \\\n")
			if tc.chooser != nil {
				assert.Equal(t, tc.wantSeen, tc.chooser.seen)
			}
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	testnet := config.DefaultNetworks()[config.Testnet]
	entries := []keys.Entry{{Name: "dev0", Address: "a0"}}

	cases := []struct {
		name    string
		keyring fakeKeyring
		bal     fakeBalances
		from    string
		wantErr error
	}{
		{name: "keyring unreadable", keyring: fakeKeyring{err: keys.ErrKeyringUnavailable}, wantErr: keys.ErrKeyringUnavailable},
		{name: "empty keyring", keyring: fakeKeyring{}, wantErr: keys.ErrNoEligibleKey},
		{name: "no funds", keyring: fakeKeyring{entries: entries}, bal: fakeBalances{"a0": 0}, wantErr: keys.ErrNoEligibleKey},
		{name: "unknown from", keyring: fakeKeyring{entries: entries}, bal: fakeBalances{"a0": 1}, from: "validator", wantErr: keys.ErrNoEligibleKey},
		{name: "balance lookup fails", keyring: fakeKeyring{entries: entries}, bal: fakeBalances{}, wantErr: keys.ErrBalanceLookupFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &Generator{Keyring: tc.keyring, Balances: tc.bal, Releases: fakeReleases{}}
			cfg := testConfig(t.TempDir())
			cfg.From = tc.from

			_, err := g.Generate(context.Background(), testnet, cfg)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDescription(t *testing.T) {
	cases := []struct {
		name     string
		markdown string
		link     string
		want     string
	}{
		{
			name:     "footer with link",
			markdown: "# Title\n\nBody\n",
			link:     "https://commonwealth.im/evmos/discussion/14754",
			want:     `# Title\n\nBody\n----\n## Discussion\nPlease follow and discuss this proposal using the official [discussion on Commonwealth](https://commonwealth.im/evmos/discussion/14754).`,
		},
		{
			name:     "shell characters escaped",
			markdown: "Run `evmosd` with \"$HOME\" \\ done",
			want:     "Run \\`evmosd\\` with \\\"\\$HOME\\\" \\\\ done" + `\n----\n## Discussion\nPlease follow and discuss this proposal using the official [discussion on Commonwealth]().`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Description(tc.markdown, tc.link))
		})
	}
}
