package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/upgrade-helper/internal/failure"
	"github.com/manifest-network/upgrade-helper/internal/models"
)

type fakeBlockSource struct {
	latest   models.BlockPoint
	lowest   int64
	failures int
	calls    int
}

func (f *fakeBlockSource) LatestBlock(context.Context) (models.BlockPoint, error) {
	f.calls++
	if f.calls <= f.failures {
		return models.BlockPoint{}, failure.Transient(errors.New("unavailable"))
	}
	return f.latest, nil
}

func (f *fakeBlockSource) BlockAt(_ context.Context, height int64) (models.BlockPoint, error) {
	f.calls++
	if height < f.lowest {
		return models.BlockPoint{}, fmt.Errorf("rpc error: code = InvalidArgument desc = height %d is not available, lowest height is %d", height, f.lowest)
	}
	return models.BlockPoint{Height: height, Time: time.Unix(height, 0)}, nil
}

var fastPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestParseLowestHeightFromError(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want int64
	}{
		{name: "pruned node", msg: "height 1 is not available, lowest height is 28566001", want: 28566001},
		{name: "mixed case", msg: "Height 1 is not available, Lowest Height is 42", want: 42},
		{name: "unrelated", msg: "connection refused", want: 0},
		{name: "empty", msg: "", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseLowestHeightFromError(tc.msg))
		})
	}
}

func TestGetEarliestBlockHeight(t *testing.T) {
	ctx := context.Background()

	archive := &fakeBlockSource{lowest: 1}
	h, err := GetEarliestBlockHeight(ctx, archive, 100, fastPolicy)
	require.NoError(t, err)
	assert.Equal(t, int64(100), h)

	pruned := &fakeBlockSource{lowest: 5000}
	h, err = GetEarliestBlockHeight(ctx, pruned, 100, fastPolicy)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), h)
}

func TestGetLatestBlockWithRetry(t *testing.T) {
	src := &fakeBlockSource{latest: models.BlockPoint{Height: 10}, failures: 2}
	point, err := GetLatestBlockWithRetry(context.Background(), src, fastPolicy)
	require.NoError(t, err)
	assert.Equal(t, int64(10), point.Height)
	assert.Equal(t, 3, src.calls)

	src = &fakeBlockSource{latest: models.BlockPoint{Height: 10}, failures: 5}
	_, err = GetLatestBlockWithRetry(context.Background(), src, fastPolicy)
	assert.ErrorIs(t, err, failure.ErrTransient)
	assert.Equal(t, 3, src.calls)
}
