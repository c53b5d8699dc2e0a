// Package keys finds local signing keys able to pay for a proposal.
package keys

import (
	"errors"
	"fmt"
	"sort"

	"cosmossdk.io/math"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/models"
)

var (
	ErrNoEligibleKey       = errors.New("no eligible signing key")
	ErrKeyringUnavailable  = errors.New("keyring unavailable")
	ErrBalanceLookupFailed = errors.New("balance lookup failed")
)

// Select returns the keys holding at least minBalance of the network denom,
// richest first and by name among equal balances. It never prompts: choosing
// among several candidates is up to the caller.
func Select(keys []models.SigningKey, net config.Network, minBalance math.Int) ([]models.SigningKey, error) {
	candidates := make([]models.SigningKey, 0, len(keys))
	for _, k := range keys {
		if k.Denom != net.Denom || k.Balance.IsNil() {
			continue
		}
		if k.Balance.GTE(minBalance) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: none of %d keys holds %s%s on %s",
			ErrNoEligibleKey, len(keys), minBalance, net.Denom, net.DisplayName)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if c := candidates[i].Balance.BigInt().Cmp(candidates[j].Balance.BigInt()); c != 0 {
			return c > 0
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates, nil
}
