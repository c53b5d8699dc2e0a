package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cosmossdk.io/math"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// BalanceLookup returns the amount of denom held by an address.
type BalanceLookup interface {
	BalanceOf(ctx context.Context, address, denom string) (math.Int, error)
}

// BalanceOptions bounds the parallel balance lookups.
type BalanceOptions struct {
	MaxConcurrency uint
	Retry          utils.RetryPolicy
	ShowProgress   bool
}

// WithBalances looks up the denom balance of every entry in parallel.
func WithBalances(ctx context.Context, entries []Entry, denom string, lookup BalanceLookup, opts BalanceOptions) ([]models.SigningKey, error) {
	var bar *progressbar.ProgressBar
	if opts.ShowProgress && len(entries) > 1 {
		bar = progressbar.NewOptions(
			len(entries),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Checking balances..."),
			progressbar.OptionShowCount(),
		)
	}

	concurrency := max(opts.MaxConcurrency, 1)
	signing := make([]models.SigningKey, len(entries))
	eg, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)

	for i, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		sem <- struct{}{}

		eg.Go(func() error {
			defer func() { <-sem }()

			var balance math.Int
			_, err := utils.Retry(gctx, opts.Retry, "balance", func(ctx context.Context) error {
				var err error
				balance, err = lookup.BalanceOf(ctx, entry.Address, denom)
				return err
			})
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("Balance lookup error", "key", entry.Name, "address", entry.Address, "error", err)
				}
				return fmt.Errorf("%w: key %s: %w", ErrBalanceLookupFailed, entry.Name, err)
			}
			signing[i] = models.SigningKey{Name: entry.Name, Address: entry.Address, Balance: balance, Denom: denom}

			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBalanceLookupFailed, err)
	}
	return signing, nil
}
