package keys

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/models"
)

func key(name string, balance int64, denom string) models.SigningKey {
	return models.SigningKey{Name: name, Address: "evmos1" + name, Balance: math.NewInt(balance), Denom: denom}
}

func names(keys []models.SigningKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Name)
	}
	return out
}

func TestSelect(t *testing.T) {
	mainnet := config.DefaultNetworks()[config.Mainnet]

	cases := []struct {
		name       string
		keys       []models.SigningKey
		minBalance int64
		want       []string
	}{
		{
			name:       "balance desc then name asc",
			keys:       []models.SigningKey{key("A", 5, "aevmos"), key("C", 10, "aevmos"), key("B", 10, "aevmos")},
			minBalance: 1,
			want:       []string{"B", "C", "A"},
		},
		{
			name:       "below minimum dropped",
			keys:       []models.SigningKey{key("A", 5, "aevmos"), key("B", 4, "aevmos"), key("C", 0, "aevmos")},
			minBalance: 5,
			want:       []string{"A"},
		},
		{
			name:       "other denom dropped",
			keys:       []models.SigningKey{key("A", 5, "atevmos"), key("B", 1, "aevmos")},
			minBalance: 1,
			want:       []string{"B"},
		},
		{
			name:       "zero minimum keeps empty accounts",
			keys:       []models.SigningKey{key("dev1", 0, "aevmos"), key("dev0", 0, "aevmos")},
			minBalance: 0,
			want:       []string{"dev0", "dev1"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Select(tc.keys, mainnet, math.NewInt(tc.minBalance))
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(got))
		})
	}
}

func TestSelectLargeBalances(t *testing.T) {
	big, ok := math.NewIntFromString("1000000000000000000000000")
	require.True(t, ok)
	keys := []models.SigningKey{
		key("small", 1, "aevmos"),
		{Name: "whale", Balance: big, Denom: "aevmos"},
	}

	got, err := Select(keys, config.DefaultNetworks()[config.Mainnet], math.OneInt())
	require.NoError(t, err)
	assert.Equal(t, []string{"whale", "small"}, names(got))
}

func TestSelectNoEligibleKey(t *testing.T) {
	mainnet := config.DefaultNetworks()[config.Mainnet]

	_, err := Select(nil, mainnet, math.OneInt())
	assert.ErrorIs(t, err, ErrNoEligibleKey)

	_, err = Select([]models.SigningKey{key("A", 0, "aevmos"), {Name: "unknown", Denom: "aevmos"}}, mainnet, math.OneInt())
	assert.ErrorIs(t, err, ErrNoEligibleKey)
}
