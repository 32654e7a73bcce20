package cpmm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"cpamm/pkg/sol"
)

// Config record offsets used for server-side scans.
const (
	configMintXOffset = 40
	configMintYOffset = 72
)

// FindPools scans the program for every pool over the given mint pair.
// The pair is directional: (X, Y) and (Y, X) are distinct pools.
func FindPools(ctx context.Context, solClient *sol.Client, mintX, mintY solana.PublicKey) ([]*Pool, error) {
	filters := []rpc.RPCFilter{
		{DataSize: ConfigDataSize},
		{Memcmp: &rpc.RPCFilterMemcmp{Offset: configMintXOffset, Bytes: solana.Base58(mintX.Bytes())}},
		{Memcmp: &rpc.RPCFilterMemcmp{Offset: configMintYOffset, Bytes: solana.Base58(mintY.Bytes())}},
	}
	results, err := solClient.GetProgramAccountsWithFilters(ctx, PoolProgramID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pool accounts: %w", err)
	}

	pools := make([]*Pool, 0, len(results))
	for _, keyed := range results {
		pool := &Pool{PoolId: keyed.Pubkey}
		if err := pool.Decode(keyed.Account.Data.GetBinary()); err != nil {
			// Skip anything that does not parse as a config record.
			continue
		}
		if err := pool.RefreshReserves(ctx, solClient); err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	return pools, nil
}
