package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/types"
	"github.com/goran-ethernal/GridIndexor/pkg/config"
	pkgrpc "github.com/goran-ethernal/GridIndexor/pkg/rpc"
)

const (
	methodBlockNumber      = "eth_blockNumber"
	methodGetBlockByNumber = "eth_getBlockByNumber"
	methodGetLogs          = "eth_getLogs"
)

// Compile-time check to ensure Client implements pkgrpc.EthClient interface.
var _ pkgrpc.EthClient = (*Client)(nil)

// Client wraps the go-ethereum client. Every call carries its own timeout,
// is optionally retried and is recorded in the RPC metrics.
type Client struct {
	eth         *ethclient.Client
	callTimeout time.Duration
	retry       *config.RetryConfig
	finality    types.HeadFinality
	log         *logger.Logger
}

// NewClient creates a new RPC client connected to the endpoint in cfg.
func NewClient(ctx context.Context, cfg config.RPCConfig, log *logger.Logger) (*Client, error) {
	finality, err := types.ParseHeadFinality(cfg.HeadFinality)
	if err != nil {
		return nil, err
	}

	eth, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.URL, err)
	}

	return &Client{
		eth:         eth,
		callTimeout: cfg.CallTimeout.Duration,
		retry:       cfg.Retry,
		finality:    finality,
		log:         log,
	}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// BlockNumber returns the height of the chain head at the configured finality.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head uint64

	if c.finality == "" || c.finality == types.HeadLatest {
		err := c.call(ctx, methodBlockNumber, func(ctx context.Context) error {
			var err error
			head, err = c.eth.BlockNumber(ctx)
			return err
		})
		return head, err
	}

	err := c.call(ctx, methodGetBlockByNumber, func(ctx context.Context) error {
		header, err := c.eth.HeaderByNumber(ctx, c.finality.BlockNumberArg())
		if err != nil {
			return err
		}
		head = header.Number.Uint64()
		return nil
	})
	return head, err
}

// GetLogs retrieves logs matching the given filter query.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]ethtypes.Log, error) {
	var logs []ethtypes.Log
	err := c.call(ctx, methodGetLogs, func(ctx context.Context) error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// call wraps a single logical RPC call with metrics, timeout and retries.
func (c *Client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	RPCMethodInc(method)
	start := time.Now()

	err := retryWithBackoff(ctx, c.retry, method, c.callTimeout, fn)

	RPCMethodDuration(method, time.Since(start))

	if err != nil {
		kind := Classify(err)
		RPCMethodError(method, kind)
		if c.log != nil {
			c.log.Debugw("rpc call failed", "method", method, "kind", kind, "error", err)
		}
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}
