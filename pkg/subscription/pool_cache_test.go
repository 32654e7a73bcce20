package subscription

import (
	"encoding/binary"
	"testing"
	"time"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cpamm/pkg/amm"
	"cpamm/pkg/pool/cpmm"
)

func cachedPool(t *testing.T) *cpmm.Pool {
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()
	configAddr, configBump, err := cpmm.DerivePoolAddress(1, mintX, mintY)
	require.NoError(t, err)

	cfg := amm.Config{
		Seed:       1,
		MintX:      mintX,
		MintY:      mintY,
		FeeBps:     30,
		State:      amm.StateInitialized,
		ConfigBump: configBump,
	}
	data := make([]byte, amm.ConfigLen)
	require.NoError(t, cfg.Store(data))

	pool := &cpmm.Pool{
		PoolId:   configAddr,
		ReserveX: cosmath.ZeroInt(),
		ReserveY: cosmath.ZeroInt(),
		LPSupply: cosmath.ZeroInt(),
	}
	require.NoError(t, pool.Decode(data))
	return pool
}

func TestPoolCacheSetGet(t *testing.T) {
	cache := NewPoolCache(zap.NewNop())
	pool := cachedPool(t)

	cache.SetPool(pool.GetID(), pool)
	require.Equal(t, 1, cache.Size())

	got, ok := cache.GetPool(pool.GetID())
	require.True(t, ok)
	require.Same(t, pool, got)

	_, ok = cache.GetPool("missing")
	require.False(t, ok)

	cache.RemovePool(pool.GetID())
	require.Equal(t, 0, cache.Size())
}

func TestPoolCacheUpdateMutatesPoolInPlace(t *testing.T) {
	cache := NewPoolCache(zap.NewNop())
	pool := cachedPool(t)
	cache.SetPool(pool.GetID(), pool)

	vaultData := make([]byte, cpmm.TokenAccountDataSize)
	binary.LittleEndian.PutUint64(vaultData[cpmm.TokenAmountOffset:], 777)
	require.NoError(t, cache.UpdatePoolAccount(pool.GetID(), pool.VaultX.String(), vaultData, 42))

	require.Equal(t, cosmath.NewInt(777), pool.ReserveX)

	entry, ok := cache.GetPoolEntry(pool.GetID())
	require.True(t, ok)
	require.Equal(t, uint64(42), entry.LastSlot)
	require.Equal(t, vaultData, entry.AccountData[pool.VaultX.String()])

	err := cache.UpdatePoolAccount("missing", pool.VaultX.String(), vaultData, 1)
	require.ErrorContains(t, err, "not found in cache")
}

func TestPoolCacheStaleness(t *testing.T) {
	cache := NewPoolCache(zap.NewNop())
	pool := cachedPool(t)
	cache.SetPool(pool.GetID(), pool)

	require.Empty(t, cache.GetStalePoolIDs(time.Minute))

	time.Sleep(5 * time.Millisecond)
	stale := cache.GetStalePoolIDs(time.Millisecond)
	require.Equal(t, []string{pool.GetID()}, stale)
}
