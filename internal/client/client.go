// Package client reads blocks and balances from a Cosmos SDK node over gRPC
// or the REST gateway.
package client

import (
	"context"
	"fmt"

	"cosmossdk.io/math"

	"github.com/manifest-network/upgrade-helper/internal/config"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

const (
	latestBlockPath = "/cosmos/base/tendermint/v1beta1/blocks/latest"
	blockPath       = "/cosmos/base/tendermint/v1beta1/blocks/{height}"
	balancePath     = "/cosmos/bank/v1beta1/balances/{address}/by_denom"
)

// Chain is what the tool needs from a node, whatever the transport.
type Chain interface {
	utils.BlockSource
	// BalanceOf returns the amount of denom held by address, zero when absent.
	BalanceOf(ctx context.Context, address, denom string) (math.Int, error)
	Close() error
}

// New connects to the network configured in cfg.
func New(cfg config.Config) (Chain, error) {
	switch cfg.Chain.Transport {
	case config.TransportGRPC:
		return NewGRPCClient(cfg.Network.GRPC, cfg.Chain.Insecure)
	case config.TransportREST:
		return NewRESTClient(cfg.Network.REST, cfg.Chain.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported chain transport %q", cfg.Chain.Transport)
	}
}

func parseAmount(amount string) (math.Int, error) {
	if amount == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(amount)
	if !ok {
		return math.Int{}, fmt.Errorf("invalid balance amount %q", amount)
	}
	return v, nil
}
