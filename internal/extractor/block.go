package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// ErrWindowTooShort is returned when the node serves fewer than two blocks of the window.
var ErrWindowTooShort = errors.New("block window too short")

// SampleFetcher builds block samples from a chain.
type SampleFetcher struct {
	Source         utils.BlockSource
	Points         int
	MaxConcurrency uint
	Retry          utils.RetryPolicy
	ShowProgress   bool
}

// FetchRecent samples the last window blocks: the latest block, the block
// window heights below it (or the earliest one a pruned node still serves),
// and Points-2 evenly spaced heights in between.
func (f *SampleFetcher) FetchRecent(ctx context.Context, window int64) (models.BlockSample, error) {
	latest, err := utils.GetLatestBlockWithRetry(ctx, f.Source, f.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}

	start := max(latest.Height-window, 1)
	start, err = utils.GetEarliestBlockHeight(ctx, f.Source, start, f.Retry)
	if err != nil {
		return nil, err
	}
	if start >= latest.Height {
		return nil, fmt.Errorf("%w: node serves [%d, %d]", ErrWindowTooShort, start, latest.Height)
	}
	if got := latest.Height - start; got < window {
		slog.Warn("Node does not serve the full block window", "requested", window, "available", got)
	}

	heights := sampleHeights(start, latest.Height, f.Points)
	slog.Info("Extracting block sample", "range", fmt.Sprintf("[%d, %d]", start, latest.Height), "points", len(heights))

	points, err := f.extractBlocks(ctx, heights[:len(heights)-1])
	if err != nil {
		return nil, err
	}
	sample := append(models.BlockSample(points), latest)
	sort.Slice(sample, func(i, j int) bool { return sample[i].Height < sample[j].Height })
	return sample, nil
}

// extractBlocks fetches the given heights in parallel, bounded by MaxConcurrency.
func (f *SampleFetcher) extractBlocks(ctx context.Context, heights []int64) ([]models.BlockPoint, error) {
	var bar *progressbar.ProgressBar
	if f.ShowProgress && len(heights) > 1 {
		bar = progressbar.NewOptions(
			len(heights),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Sampling blocks..."),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	concurrency := f.MaxConcurrency
	if concurrency == 0 {
		concurrency = 1
	}

	points := make([]models.BlockPoint, len(heights))
	eg, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)

	for i, height := range heights {
		if gctx.Err() != nil {
			break
		}
		sem <- struct{}{}

		eg.Go(func() error {
			defer func() { <-sem }()

			point, err := utils.GetBlockWithRetry(gctx, f.Source, height, f.Retry)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("Block sampling error", "height", height, "error", err)
				}
				return fmt.Errorf("failed to sample block %d: %w", height, err)
			}
			points[i] = point

			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("error while sampling blocks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bar != nil {
		if err := bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}
	return points, nil
}

// sampleHeights spreads n heights evenly over [start, stop], both ends included.
func sampleHeights(start, stop int64, n int) []int64 {
	if n < 2 {
		n = 2
	}
	span := stop - start
	if int64(n-1) > span {
		n = int(span) + 1
	}
	heights := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		heights = append(heights, start+span*int64(i)/int64(n-1))
	}
	return heights
}
