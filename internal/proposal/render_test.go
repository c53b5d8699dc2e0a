package proposal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/upgrade-helper/internal/models"
)

const expectedProposal = `# Evmos Testnet v14.0.0-rc1 Upgrade

## Summary

This proposal upgrades the Evmos Testnet from [v13.0.0](https://github.com/evmos/evmos/releases/tag/v13.0.0) to [v14.0.0-rc1](https://github.com/evmos/evmos/releases/tag/v14.0.0-rc1).

## Upgrade Time

The upgrade is scheduled for block [18,560,500](https://testnet.mintscan.io/evmos-testnet/blocks/18560500), which is expected around **4PM UTC on Mon., October 23., 2023**.
The height is estimated from the average block time over the last 50,000 blocks, so the actual time can differ slightly.
The voting period lasts 12 hours.

## Features

- Faster blocks
- Lower fees

## Changes

See the [full list of changes](https://github.com/evmos/evmos/compare/v13.0.0..v14.0.0-rc1) between v13.0.0 and v14.0.0-rc1.

## Upgrade Instructions

Node operators must switch to the v14.0.0-rc1 binary once the chain halts at height 18,560,500.
Nodes running Cosmovisor pick up the binaries listed in the upgrade info automatically.

---

Author: Evmos Core Team
`

func testDocument() models.ProposalDocument {
	return models.ProposalDocument{
		Title:              "Evmos Testnet v14.0.0-rc1 Upgrade",
		Summary:            "- Faster blocks\n- Lower fees",
		UpgradeHeight:      18_560_500,
		UpgradeTime:        time.Date(2023, 10, 23, 16, 0, 0, 0, time.UTC),
		ReleaseURL:         "https://github.com/evmos/evmos/releases/tag/v14.0.0-rc1",
		Network:            "Testnet",
		ChainName:          "Evmos",
		PreviousVersion:    "v13.0.0",
		PreviousReleaseURL: "https://github.com/evmos/evmos/releases/tag/v13.0.0",
		TargetVersion:      "v14.0.0-rc1",
		Author:             "Evmos Core Team",
		DiffURL:            "https://github.com/evmos/evmos/compare/v13.0.0..v14.0.0-rc1",
		ExplorerURL:        "https://testnet.mintscan.io/evmos-testnet/blocks/18560500",
		VotingPeriod:       12 * time.Hour,
		SampleWindow:       50_000,
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r, err := NewMarkdownRenderer()
	require.NoError(t, err)

	got, err := r.Render(testDocument())
	require.NoError(t, err)
	assert.Equal(t, expectedProposal, got)
}

func TestMarkdownRendererWithoutDiff(t *testing.T) {
	r, err := NewMarkdownRenderer()
	require.NoError(t, err)

	doc := testDocument()
	doc.DiffURL = ""
	got, err := r.Render(doc)
	require.NoError(t, err)

	assert.NotContains(t, got, "## Changes")
	assert.Contains(t, got, "- Lower fees\n\n## Upgrade Instructions")
}
