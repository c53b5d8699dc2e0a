package client

import (
	"context"
	"crypto/tls"
	"fmt"

	bankv1beta1 "cosmossdk.io/api/cosmos/bank/v1beta1"
	tmservice "cosmossdk.io/api/cosmos/base/tendermint/v1beta1"
	"cosmossdk.io/math"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/manifest-network/upgrade-helper/internal/failure"
	"github.com/manifest-network/upgrade-helper/internal/models"
)

// GRPCClient queries a node through its gRPC query services.
type GRPCClient struct {
	Conn *grpc.ClientConn

	tendermint tmservice.ServiceClient
	bank       bankv1beta1.QueryClient
}

// NewGRPCClient dials address, with TLS unless insecureConn is set.
func NewGRPCClient(address string, insecureConn bool) (*GRPCClient, error) {
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if insecureConn {
		creds = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return NewGRPCClientFromConn(conn), nil
}

// NewGRPCClientFromConn wraps an existing connection.
func NewGRPCClientFromConn(conn *grpc.ClientConn) *GRPCClient {
	return &GRPCClient{
		Conn:       conn,
		tendermint: tmservice.NewServiceClient(conn),
		bank:       bankv1beta1.NewQueryClient(conn),
	}
}

func (c *GRPCClient) LatestBlock(ctx context.Context) (models.BlockPoint, error) {
	resp, err := c.tendermint.GetLatestBlock(ctx, &tmservice.GetLatestBlockRequest{})
	if err != nil {
		return models.BlockPoint{}, classifyGRPC(fmt.Errorf("failed to get latest block: %w", err))
	}
	if h := resp.GetSdkBlock().GetHeader(); h.GetHeight() != 0 {
		return pointFromHeader(h)
	}
	return pointFromHeader(resp.GetBlock().GetHeader())
}

func (c *GRPCClient) BlockAt(ctx context.Context, height int64) (models.BlockPoint, error) {
	resp, err := c.tendermint.GetBlockByHeight(ctx, &tmservice.GetBlockByHeightRequest{Height: height})
	if err != nil {
		return models.BlockPoint{}, classifyGRPC(fmt.Errorf("failed to get block %d: %w", height, err))
	}
	if h := resp.GetSdkBlock().GetHeader(); h.GetHeight() != 0 {
		return pointFromHeader(h)
	}
	return pointFromHeader(resp.GetBlock().GetHeader())
}

func (c *GRPCClient) BalanceOf(ctx context.Context, address, denom string) (math.Int, error) {
	resp, err := c.bank.Balance(ctx, &bankv1beta1.QueryBalanceRequest{Address: address, Denom: denom})
	if err != nil {
		return math.Int{}, classifyGRPC(fmt.Errorf("failed to get balance of %s: %w", address, err))
	}
	return parseAmount(resp.GetBalance().GetAmount())
}

func (c *GRPCClient) Close() error {
	return c.Conn.Close()
}

type blockHeader interface {
	GetHeight() int64
	GetTime() *timestamppb.Timestamp
}

func pointFromHeader(h blockHeader) (models.BlockPoint, error) {
	ts := h.GetTime()
	if h.GetHeight() == 0 || ts == nil {
		return models.BlockPoint{}, fmt.Errorf("block response carries no header")
	}
	return models.BlockPoint{Height: h.GetHeight(), Time: ts.AsTime()}, nil
}

// classifyGRPC marks errors with retryable status codes as transient.
// status.Code looks through wrapped errors.
func classifyGRPC(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return failure.Transient(err)
	case codes.Canceled:
		return err
	default:
		return failure.Fatal(err)
	}
}
