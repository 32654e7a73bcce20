// Package sol wraps the Solana RPC surface the pool client needs behind a
// rate-limited client and a round-robin endpoint pool.
package sol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// Client is a single-endpoint RPC client with a per-second request budget.
type Client struct {
	endpoint  string
	rpcClient *rpc.Client
	limiter   *rate.Limiter
}

// NewClient connects to one RPC endpoint. reqLimitPerSecond bounds the
// request rate; zero or negative means a conservative default of 10.
func NewClient(ctx context.Context, endpoint string, reqLimitPerSecond int) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	if reqLimitPerSecond <= 0 {
		reqLimitPerSecond = 10
	}
	return &Client{
		endpoint:  endpoint,
		rpcClient: rpc.New(endpoint),
		limiter:   rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond),
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// GetAccountInfo fetches one account at confirmed commitment.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
}

// GetMultipleAccountsWithOpts fetches a batch of accounts at confirmed
// commitment.
func (c *Client) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.rpcClient.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
}

// GetProgramAccountsWithFilters scans a program's accounts with the given
// server-side filters.
func (c *Client) GetProgramAccountsWithFilters(ctx context.Context, program solana.PublicKey, filters []rpc.RPCFilter) (rpc.GetProgramAccountsResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.rpcClient.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
		Filters:    filters,
	})
}
