// Package estimator projects a block sample forward to find the height a chain
// will reach at a given time.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/manifest-network/upgrade-helper/internal/models"
)

var (
	ErrInsufficientData     = errors.New("insufficient block data")
	ErrNonPositiveBlockTime = errors.New("non-positive block time")
	ErrTargetInPast         = errors.New("target time is in the past")
	ErrCorruptSample        = errors.New("corrupt block sample")
	ErrInvalidRoundingUnit  = errors.New("invalid rounding unit")
)

// Estimate returns the height the chain reaches at target, assuming it keeps
// the average block time observed between the first and last sample points.
// The average is plain: no weighting and no outlier filtering.
func Estimate(sample models.BlockSample, target time.Time, roundingUnit int64) (models.HeightEstimate, error) {
	if roundingUnit <= 0 {
		return models.HeightEstimate{}, fmt.Errorf("%w: %d", ErrInvalidRoundingUnit, roundingUnit)
	}
	if len(sample) < 2 {
		return models.HeightEstimate{}, fmt.Errorf("%w: need 2 blocks, got %d", ErrInsufficientData, len(sample))
	}
	if err := validate(sample); err != nil {
		return models.HeightEstimate{}, err
	}

	first, last := sample.First(), sample.Last()
	basis := last.Time.Sub(first.Time).Seconds() / float64(last.Height-first.Height)
	if basis <= 0 {
		return models.HeightEstimate{}, fmt.Errorf("%w: %.3fs between blocks %d and %d",
			ErrNonPositiveBlockTime, basis, first.Height, last.Height)
	}

	ahead := target.Sub(last.Time)
	if ahead < 0 {
		return models.HeightEstimate{}, fmt.Errorf("%w: %s is before block %d at %s",
			ErrTargetInPast, target.UTC().Format(time.RFC3339), last.Height, last.Time.UTC().Format(time.RFC3339))
	}

	predicted := last.Height + int64(math.Floor(ahead.Seconds()/basis+0.5))
	return models.HeightEstimate{
		PredictedHeight:       predicted,
		RoundedHeight:         RoundHalfUp(predicted, roundingUnit),
		BasisBlockTimeSeconds: basis,
	}, nil
}

// RoundHalfUp rounds height to the nearest multiple of unit, ties going up.
func RoundHalfUp(height, unit int64) int64 {
	q, r := height/unit, height%unit
	if r < 0 {
		q, r = q-1, r+unit
	}
	if 2*r >= unit {
		q++
	}
	return q * unit
}

func validate(sample models.BlockSample) error {
	for i := 1; i < len(sample); i++ {
		prev, cur := sample[i-1], sample[i]
		if cur.Height <= prev.Height {
			return fmt.Errorf("%w: height %d follows %d", ErrCorruptSample, cur.Height, prev.Height)
		}
		if cur.Time.Before(prev.Time) {
			return fmt.Errorf("%w: block %d is older than block %d", ErrCorruptSample, cur.Height, prev.Height)
		}
	}
	if sample[0].Height < 0 {
		return fmt.Errorf("%w: negative height %d", ErrCorruptSample, sample[0].Height)
	}
	return nil
}
