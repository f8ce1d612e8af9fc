package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Options tunes RPC call protection.
type Options struct {
	// RateLimit is the sustained eth_call rate per second. Zero disables limiting.
	RateLimit float64
	Burst     int
	// BreakerFailures is the number of consecutive transport failures that opens the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// MaxRetries bounds retries of transient transport failures.
	MaxRetries   int
	RetryBackoff time.Duration
}

// Client wraps go-ethereum RPC for contract reads.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	opts      Options
}

// NewClient dials rpcURL and sets up the limiter and circuit breaker.
func NewClient(ctx context.Context, rpcURL string, opts Options) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		limiter:   newLimiter(opts),
		breaker:   newBreaker(opts),
		opts:      opts,
	}, nil
}

func newLimiter(opts Options) *rate.Limiter {
	if opts.RateLimit <= 0 {
		return nil
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
}

func newBreaker(opts Options) *gobreaker.CircuitBreaker {
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "eth_call",
		Interval: 60 * time.Second,
		Timeout:  timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isNodeResponse,
	})
}

// isNodeResponse treats JSON-RPC error replies (reverts, bad params) as healthy
// transport so contract-level failures never open the breaker.
func isNodeResponse(err error) bool {
	if err == nil {
		return true
	}
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// CallContract performs a rate limited eth_call behind the circuit breaker,
// retrying transient transport failures.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var data []byte
	err := withRetry(ctx, c.opts.MaxRetries, c.opts.RetryBackoff, isTransient, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.ethClient.CallContract(ctx, msg, blockNumber)
		})
		if err != nil {
			return err
		}
		result, ok := out.([]byte)
		if !ok {
			return fmt.Errorf("unexpected call result %T", out)
		}
		data = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
