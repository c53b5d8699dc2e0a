package models

import (
	"time"

	"cosmossdk.io/math"
)

// BlockPoint is a single (height, time) observation taken from the chain.
type BlockPoint struct {
	Height int64
	Time   time.Time
}

// BlockSample is an ordered set of block observations, ascending by height.
type BlockSample []BlockPoint

// First returns the oldest point of the sample. It panics on an empty sample.
func (s BlockSample) First() BlockPoint { return s[0] }

// Last returns the newest point of the sample. It panics on an empty sample.
func (s BlockSample) Last() BlockPoint { return s[len(s)-1] }

// HeightEstimate is the result of projecting a sample forward to a target time.
type HeightEstimate struct {
	PredictedHeight       int64
	RoundedHeight         int64
	BasisBlockTimeSeconds float64
}

// ReleaseAsset is a downloadable file attached to a release.
type ReleaseAsset struct {
	Name        string
	DownloadURL string
}

// ReleaseInfo describes a tagged release on the source code host.
type ReleaseInfo struct {
	Tag      string
	RawNotes string
	URL      string
	Assets   []ReleaseAsset
}

// Summary is the model-generated digest of a release's notes.
type Summary struct {
	Text    string
	ModelID string
}

// SigningKey is a keyring entry together with its balance on a network.
type SigningKey struct {
	Name    string
	Address string
	Balance math.Int
	Denom   string
}

// ProposalDocument is the assembled software-upgrade proposal.
// RenderedMarkdown is filled in last, from the remaining fields.
type ProposalDocument struct {
	Title            string
	Summary          string
	UpgradeHeight    int64
	UpgradeTime      time.Time
	ReleaseURL       string
	RenderedMarkdown string

	Network            string
	ChainName          string
	PreviousVersion    string
	PreviousReleaseURL string
	TargetVersion      string
	Author             string
	DiffURL            string
	ExplorerURL        string
	VotingPeriod       time.Duration
	SampleWindow       int64
}

// SubmissionCommand is the shell command that submits the proposal on-chain.
type SubmissionCommand struct {
	CommandText string
	ChosenKey   SigningKey
}
