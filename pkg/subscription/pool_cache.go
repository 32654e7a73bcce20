package subscription

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cpamm/pkg/pool/cpmm"
)

// PoolCacheEntry holds a cached pool together with freshness metadata
// and the last raw data seen for each of its accounts.
type PoolCacheEntry struct {
	Pool        *cpmm.Pool
	LastUpdate  time.Time
	LastSlot    uint64
	AccountData map[string][]byte
}

// PoolCache keeps live pool state, updated in place as account
// notifications arrive.
type PoolCache struct {
	pools  map[string]*PoolCacheEntry
	logger *zap.Logger
	mu     sync.RWMutex
}

func NewPoolCache(logger *zap.Logger) *PoolCache {
	return &PoolCache{
		pools:  make(map[string]*PoolCacheEntry),
		logger: logger,
	}
}

// SetPool adds or replaces a pool in the cache.
func (pc *PoolCache) SetPool(poolID string, pool *cpmm.Pool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if entry, exists := pc.pools[poolID]; exists {
		entry.Pool = pool
		entry.LastUpdate = time.Now()
	} else {
		pc.pools[poolID] = &PoolCacheEntry{
			Pool:        pool,
			LastUpdate:  time.Now(),
			AccountData: make(map[string][]byte),
		}
	}
}

// GetPool retrieves a pool from the cache.
func (pc *PoolCache) GetPool(poolID string) (*cpmm.Pool, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if entry, exists := pc.pools[poolID]; exists {
		return entry.Pool, true
	}
	return nil, false
}

// GetAllPools returns every cached pool.
func (pc *PoolCache) GetAllPools() []*cpmm.Pool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	pools := make([]*cpmm.Pool, 0, len(pc.pools))
	for _, entry := range pc.pools {
		pools = append(pools, entry.Pool)
	}
	return pools
}

// RemovePool drops a pool from the cache.
func (pc *PoolCache) RemovePool(poolID string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.pools, poolID)
}

// UpdatePoolAccount applies fresh account data to a cached pool. The
// account may be the config record, either vault, or the claim mint.
func (pc *PoolCache) UpdatePoolAccount(poolID, accountID string, data []byte, slot uint64) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, exists := pc.pools[poolID]
	if !exists {
		return fmt.Errorf("pool %s not found in cache", poolID)
	}

	entry.AccountData[accountID] = data
	entry.LastUpdate = time.Now()
	entry.LastSlot = slot

	if err := entry.Pool.UpdateFromAccountData(accountID, data); err != nil {
		pc.logger.Warn("failed to update pool state",
			zap.String("pool", poolID),
			zap.String("account", accountID),
			zap.Error(err))
		return err
	}
	pc.logger.Debug("pool updated",
		zap.String("pool", poolID),
		zap.String("account", accountID),
		zap.Uint64("slot", slot))

	return nil
}

// GetPoolEntry returns the full cache entry for a pool.
func (pc *PoolCache) GetPoolEntry(poolID string) (*PoolCacheEntry, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	entry, exists := pc.pools[poolID]
	return entry, exists
}

// Size returns the number of cached pools.
func (pc *PoolCache) Size() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return len(pc.pools)
}

// Clear drops every cached pool.
func (pc *PoolCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.pools = make(map[string]*PoolCacheEntry)
}

// GetStalePoolIDs returns pools that have not seen an update within
// maxAge, candidates for an RPC refresh.
func (pc *PoolCache) GetStalePoolIDs(maxAge time.Duration) []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	now := time.Now()
	stale := make([]string, 0)

	for poolID, entry := range pc.pools {
		if now.Sub(entry.LastUpdate) > maxAge {
			stale = append(stale, poolID)
		}
	}

	return stale
}
