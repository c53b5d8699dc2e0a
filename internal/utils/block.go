package utils

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/manifest-network/upgrade-helper/internal/models"
)

var lowestHeightPattern = regexp.MustCompile(`lowest height is (\d+)`)

// BlockSource is the subset of chain queries needed to locate block bounds.
type BlockSource interface {
	LatestBlock(ctx context.Context) (models.BlockPoint, error)
	BlockAt(ctx context.Context, height int64) (models.BlockPoint, error)
}

// GetLatestBlockWithRetry gets the newest block the node knows about.
func GetLatestBlockWithRetry(ctx context.Context, src BlockSource, policy RetryPolicy) (models.BlockPoint, error) {
	var latest models.BlockPoint
	_, err := Retry(ctx, policy, "latest block", func(ctx context.Context) error {
		var err error
		latest, err = src.LatestBlock(ctx)
		return err
	})
	if err != nil {
		return models.BlockPoint{}, errors.WithMessage(err, "error getting latest block")
	}
	return latest, nil
}

// GetBlockWithRetry gets the block at the given height.
func GetBlockWithRetry(ctx context.Context, src BlockSource, height int64, policy RetryPolicy) (models.BlockPoint, error) {
	var point models.BlockPoint
	_, err := Retry(ctx, policy, "block by height", func(ctx context.Context) error {
		var err error
		point, err = src.BlockAt(ctx, height)
		return err
	})
	if err != nil {
		return models.BlockPoint{}, errors.WithMessagef(err, "error getting block %d", height)
	}
	return point, nil
}

// GetEarliestBlockHeight returns the lowest height >= wanted that the node
// serves. Archive nodes return wanted itself; pruned nodes report their lowest
// height in the error message, which is parsed instead.
func GetEarliestBlockHeight(ctx context.Context, src BlockSource, wanted int64, policy RetryPolicy) (int64, error) {
	_, err := src.BlockAt(ctx, wanted)
	if err == nil {
		return wanted, nil
	}

	// Extract lowest height from error: "height 1 is not available, lowest height is 28566001"
	if lowest := parseLowestHeightFromError(err.Error()); lowest > wanted {
		return lowest, nil
	}

	// Retry with full retries if error was transient
	if _, err = GetBlockWithRetry(ctx, src, wanted, policy); err == nil {
		return wanted, nil
	}

	return 0, fmt.Errorf("failed to determine earliest block height: %w", err)
}

// parseLowestHeightFromError extracts lowest height from pruned node errors
func parseLowestHeightFromError(errMsg string) int64 {
	matches := lowestHeightPattern.FindStringSubmatch(strings.ToLower(errMsg))

	if len(matches) >= 2 {
		height, err := strconv.ParseInt(matches[1], 10, 64)
		if err == nil {
			return height
		}
	}

	return 0
}
