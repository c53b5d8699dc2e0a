package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cosmossdk.io/math"
	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/upgrade-helper/internal/failure"
	"github.com/manifest-network/upgrade-helper/internal/models"
)

type restHeader struct {
	Height string `json:"height"`
	Time   string `json:"time"`
}

type restBlock struct {
	Header restHeader `json:"header"`
}

type blockResponse struct {
	Block    restBlock  `json:"block"`
	SdkBlock *restBlock `json:"sdk_block"`
}

type balanceResponse struct {
	Balance struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"balance"`
}

// RESTClient queries a node through its REST gateway.
type RESTClient struct {
	http *resty.Client
}

// NewRESTClient creates a client for the gateway at baseURL.
func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *RESTClient) LatestBlock(ctx context.Context) (models.BlockPoint, error) {
	var body blockResponse
	if err := c.get(ctx, latestBlockPath, nil, nil, &body); err != nil {
		return models.BlockPoint{}, fmt.Errorf("failed to get latest block: %w", err)
	}
	return body.point()
}

func (c *RESTClient) BlockAt(ctx context.Context, height int64) (models.BlockPoint, error) {
	var body blockResponse
	params := map[string]string{"height": strconv.FormatInt(height, 10)}
	if err := c.get(ctx, blockPath, params, nil, &body); err != nil {
		return models.BlockPoint{}, fmt.Errorf("failed to get block %d: %w", height, err)
	}
	return body.point()
}

func (c *RESTClient) BalanceOf(ctx context.Context, address, denom string) (math.Int, error) {
	var body balanceResponse
	params := map[string]string{"address": address}
	query := map[string]string{"denom": denom}
	if err := c.get(ctx, balancePath, params, query, &body); err != nil {
		return math.Int{}, fmt.Errorf("failed to get balance of %s: %w", address, err)
	}
	return parseAmount(body.Balance.Amount)
}

func (c *RESTClient) Close() error { return nil }

func (c *RESTClient) get(ctx context.Context, path string, params, query map[string]string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetQueryParams(query).
		SetResult(out).
		Get(path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return failure.Transient(err)
	}
	if resp.IsError() {
		return failure.FromHTTPStatus(resp.StatusCode(), fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	return nil
}

func (b blockResponse) point() (models.BlockPoint, error) {
	header := b.Block.Header
	if b.SdkBlock != nil && b.SdkBlock.Header.Height != "" {
		header = b.SdkBlock.Header
	}

	height, err := strconv.ParseInt(header.Height, 10, 64)
	if err != nil {
		return models.BlockPoint{}, fmt.Errorf("failed to parse block height %q: %w", header.Height, err)
	}
	t, err := time.Parse(time.RFC3339Nano, header.Time)
	if err != nil {
		return models.BlockPoint{}, fmt.Errorf("failed to parse block time %q: %w", header.Time, err)
	}
	return models.BlockPoint{Height: height, Time: t.UTC()}, nil
}
