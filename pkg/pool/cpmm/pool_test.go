package cpmm

import (
	"context"
	"encoding/binary"
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"cpamm/pkg/amm"
	"cpamm/pkg/custody"
)

func testPool(t *testing.T) (*Pool, []byte) {
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()
	configAddr, configBump, err := DerivePoolAddress(5, mintX, mintY)
	require.NoError(t, err)

	cfg := amm.Config{
		Seed:       5,
		Authority:  solana.NewWallet().PublicKey(),
		MintX:      mintX,
		MintY:      mintY,
		FeeBps:     30,
		State:      amm.StateInitialized,
		ConfigBump: configBump,
		LPBump:     254,
	}
	data := make([]byte, amm.ConfigLen)
	require.NoError(t, cfg.Store(data))

	pool := &Pool{
		PoolId:   configAddr,
		ReserveX: cosmath.ZeroInt(),
		ReserveY: cosmath.ZeroInt(),
		LPSupply: cosmath.ZeroInt(),
	}
	require.NoError(t, pool.Decode(data))
	return pool, data
}

func TestPoolDecode(t *testing.T) {
	pool, _ := testPool(t)

	require.Equal(t, uint64(5), pool.Config.Seed)
	require.Equal(t, uint16(30), pool.Config.FeeBps)
	require.Equal(t, amm.StateInitialized, pool.Config.State)

	// Derived addresses are pinned to the config address.
	expectedLP, _, err := custody.DeriveLPMintAddress(PoolProgramID, pool.PoolId)
	require.NoError(t, err)
	require.Equal(t, expectedLP, pool.MintLP)

	expectedVaultX, err := FindVaultAddress(pool.PoolId, pool.Config.MintX)
	require.NoError(t, err)
	require.Equal(t, expectedVaultX, pool.VaultX)

	require.ErrorContains(t, pool.Decode(make([]byte, 10)), "expected 109 bytes")
}

func TestPoolUpdateFromAccountData(t *testing.T) {
	pool, configData := testPool(t)

	vaultData := make([]byte, TokenAccountDataSize)
	binary.LittleEndian.PutUint64(vaultData[TokenAmountOffset:], 1_000)
	require.NoError(t, pool.UpdateFromAccountData(pool.VaultX.String(), vaultData))
	require.Equal(t, cosmath.NewInt(1_000), pool.ReserveX)

	binary.LittleEndian.PutUint64(vaultData[TokenAmountOffset:], 500)
	require.NoError(t, pool.UpdateFromAccountData(pool.VaultY.String(), vaultData))
	require.Equal(t, cosmath.NewInt(500), pool.ReserveY)

	mintData := make([]byte, 82)
	binary.LittleEndian.PutUint64(mintData[MintSupplyOffset:], 200)
	require.NoError(t, pool.UpdateFromAccountData(pool.MintLP.String(), mintData))
	require.Equal(t, cosmath.NewInt(200), pool.LPSupply)

	// A config push re-decodes the record.
	configData[106] = byte(amm.StateWithdrawOnly)
	require.NoError(t, pool.UpdateFromAccountData(pool.PoolId.String(), configData))
	require.Equal(t, amm.StateWithdrawOnly, pool.Config.State)

	err := pool.UpdateFromAccountData(solana.NewWallet().PublicKey().String(), vaultData)
	require.ErrorContains(t, err, "unknown account")
}

func TestPoolQuoteOffline(t *testing.T) {
	pool, _ := testPool(t)
	pool.ReserveX = cosmath.NewInt(1_000)
	pool.ReserveY = cosmath.NewInt(1_000)
	pool.LPSupply = cosmath.NewInt(200)

	out, err := pool.Quote(context.Background(), nil, pool.Config.MintX.String(), cosmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, cosmath.NewInt(91), out)

	// The reverse direction prices against the opposite reserves.
	out, err = pool.Quote(context.Background(), nil, pool.Config.MintY.String(), cosmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, cosmath.NewInt(91), out)

	_, err = pool.Quote(context.Background(), nil, solana.NewWallet().PublicKey().String(), cosmath.NewInt(100))
	require.ErrorContains(t, err, "not in pool")
}

func TestPoolQuoteLiquidity(t *testing.T) {
	pool, _ := testPool(t)
	pool.ReserveX = cosmath.NewInt(1_000)
	pool.ReserveY = cosmath.NewInt(500)
	pool.LPSupply = cosmath.NewInt(200)

	x, y, err := pool.QuoteDeposit(100)
	require.NoError(t, err)
	require.Equal(t, uint64(500), x)
	require.Equal(t, uint64(250), y)

	x, y, err = pool.QuoteWithdraw(200)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), x)
	require.Equal(t, uint64(500), y)

	empty, _ := testPool(t)
	_, _, err = empty.QuoteDeposit(100)
	require.ErrorContains(t, err, "no liquidity")
}
