// Package proposal assembles a software-upgrade proposal document from a
// release, a block height estimate and a summary of the release notes.
package proposal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/estimator"
	"github.com/manifest-network/upgrade-helper/internal/llm"
	"github.com/manifest-network/upgrade-helper/internal/metrics"
	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// Step names a stage of the assembly.
type Step string

const (
	StepFetchRelease   Step = "FetchRelease"
	StepEstimateHeight Step = "EstimateHeight"
	StepSummarize      Step = "Summarize"
	StepRender         Step = "Render"
)

// StepError reports which step of the assembly failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s failed: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

type ReleaseFetcher interface {
	Fetch(ctx context.Context, tag string) (models.ReleaseInfo, error)
}

type BlockSampleFetcher interface {
	FetchRecent(ctx context.Context, window int64) (models.BlockSample, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, notes string, model llm.Model, maxAttempts int) (models.Summary, error)
}

// Request describes the proposal to assemble.
type Request struct {
	Network         config.Network
	ChainName       string
	PreviousVersion string
	// TargetVersion is the release tag being proposed.
	TargetVersion string
	UpgradeTime   time.Time
	Model         llm.Model
	MaxAttempts   int
	RoundingUnit  int64
	SampleWindow  int64
	Author        string
}

// Assembler runs FetchRelease, then EstimateHeight and Summarize in
// parallel, then Render. Nothing is written by the assembler itself.
type Assembler struct {
	Releases   ReleaseFetcher
	Blocks     BlockSampleFetcher
	Summarizer Summarizer
	Renderer   Renderer
	// Retry applies to the release lookup.
	Retry   utils.RetryPolicy
	Metrics *metrics.Recorder
}

// Assemble produces the proposal document for req, or the error of the
// first step that failed.
func (a *Assembler) Assemble(ctx context.Context, req Request) (models.ProposalDocument, error) {
	var release models.ReleaseInfo
	err := a.step(StepFetchRelease, func() error {
		slog.Info("Fetching release", "tag", req.TargetVersion)
		_, err := utils.Retry(ctx, a.Retry, "fetch release", func(ctx context.Context) error {
			var err error
			release, err = a.Releases.Fetch(ctx, req.TargetVersion)
			return err
		})
		return err
	})
	if err != nil {
		return models.ProposalDocument{}, err
	}

	var (
		estimate models.HeightEstimate
		summary  models.Summary
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.step(StepEstimateHeight, func() error {
			var err error
			estimate, err = a.estimateHeight(gctx, req)
			return err
		})
	})
	eg.Go(func() error {
		return a.step(StepSummarize, func() error {
			slog.Info("Summarizing release notes", "model", req.Model, "max_attempts", req.MaxAttempts)
			var err error
			summary, err = a.Summarizer.Summarize(gctx, release.RawNotes, req.Model, req.MaxAttempts)
			return err
		})
	})
	if err := eg.Wait(); err != nil {
		return models.ProposalDocument{}, err
	}

	doc := newDocument(req, release, estimate, summary)
	err = a.step(StepRender, func() error {
		var err error
		doc.RenderedMarkdown, err = a.Renderer.Render(doc)
		return err
	})
	if err != nil {
		return models.ProposalDocument{}, err
	}
	return doc, nil
}

func (a *Assembler) estimateHeight(ctx context.Context, req Request) (models.HeightEstimate, error) {
	slog.Info("Estimating upgrade height", "window", req.SampleWindow, "upgrade_time", req.UpgradeTime.UTC())
	sample, err := a.Blocks.FetchRecent(ctx, req.SampleWindow)
	if err != nil {
		return models.HeightEstimate{}, fmt.Errorf("failed to sample blocks: %w", err)
	}

	est, err := estimator.Estimate(sample, req.UpgradeTime, req.RoundingUnit)
	if err != nil {
		return models.HeightEstimate{}, err
	}
	a.Metrics.SetEstimate(string(req.Network.Name), est.PredictedHeight, est.RoundedHeight, est.BasisBlockTimeSeconds)
	slog.Info("Estimated upgrade height",
		"predicted", est.PredictedHeight,
		"rounded", est.RoundedHeight,
		"block_time", fmt.Sprintf("%.3fs", est.BasisBlockTimeSeconds))
	return est, nil
}

// step runs fn, records its duration and tags its error with s.
func (a *Assembler) step(s Step, fn func() error) error {
	start := time.Now()
	err := fn()
	a.Metrics.ObserveStep(string(s), time.Since(start), err)
	if err != nil {
		return &StepError{Step: s, Err: err}
	}
	return nil
}

func newDocument(req Request, release models.ReleaseInfo, est models.HeightEstimate, summary models.Summary) models.ProposalDocument {
	doc := models.ProposalDocument{
		Title:           config.ProposalName(req.ChainName, req.Network, req.TargetVersion),
		Summary:         summary.Text,
		UpgradeHeight:   est.RoundedHeight,
		UpgradeTime:     req.UpgradeTime.UTC(),
		ReleaseURL:      release.URL,
		Network:         req.Network.DisplayName,
		ChainName:       req.ChainName,
		PreviousVersion: req.PreviousVersion,
		TargetVersion:   req.TargetVersion,
		Author:          req.Author,
		ExplorerURL:     req.Network.BlockURL(est.RoundedHeight),
		VotingPeriod:    req.Network.VotingPeriod,
		SampleWindow:    req.SampleWindow,
	}
	if repo, _, ok := strings.Cut(release.URL, "/releases/"); ok {
		doc.PreviousReleaseURL = repo + "/releases/tag/" + req.PreviousVersion
		doc.DiffURL = repo + "/compare/" + req.PreviousVersion + ".." + req.TargetVersion
	}
	return doc
}
