package subscription

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cpamm/pkg/pool/cpmm"
)

// PoolUpdateHandler is invoked after a pool's cached state changes.
type PoolUpdateHandler func(poolID string, data []byte, slot uint64)

// Manager subscribes to every account that feeds a pool's state (config
// record, both vaults, claim mint) and keeps the pool cache current.
type Manager struct {
	wsClient  *WebSocketClient
	poolCache *PoolCache
	logger    *zap.Logger
	// account address -> local subscription ID
	subscriptions map[string]uint64
	// pool ID -> account addresses subscribed for it
	poolAccounts map[string][]string
	handlers     map[string]PoolUpdateHandler
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewManager dials the WebSocket endpoint and returns a manager with an
// empty cache.
func NewManager(ctx context.Context, wsURL string, logger *zap.Logger) (*Manager, error) {
	managerCtx, cancel := context.WithCancel(ctx)

	wsClient, err := NewWebSocketClient(managerCtx, wsURL, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create WebSocket client: %w", err)
	}

	return &Manager{
		wsClient:      wsClient,
		poolCache:     NewPoolCache(logger),
		logger:        logger,
		subscriptions: make(map[string]uint64),
		poolAccounts:  make(map[string][]string),
		handlers:      make(map[string]PoolUpdateHandler),
		ctx:           managerCtx,
		cancel:        cancel,
	}, nil
}

// SubscribePool registers the pool in the cache and subscribes to its
// config record, vaults, and claim mint.
func (m *Manager) SubscribePool(pool *cpmm.Pool) error {
	poolID := pool.GetID()

	m.mu.Lock()
	if _, exists := m.poolAccounts[poolID]; exists {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	accounts := poolAccounts(pool)
	m.logger.Info("subscribing pool",
		zap.String("pool", poolID),
		zap.Int("accounts", len(accounts)))

	for _, account := range accounts {
		handler := func(accountID string, data []byte, slot uint64) {
			m.handleAccountUpdate(poolID, accountID, data, slot)
		}

		subID, err := m.wsClient.SubscribeAccount(account, handler)
		if err != nil {
			m.logger.Warn("account subscribe failed",
				zap.String("pool", poolID),
				zap.String("account", account),
				zap.Error(err))
			continue
		}

		m.mu.Lock()
		m.subscriptions[account] = subID
		m.poolAccounts[poolID] = append(m.poolAccounts[poolID], account)
		m.mu.Unlock()
	}

	m.poolCache.SetPool(poolID, pool)

	return nil
}

// UnsubscribePool tears down the pool's subscriptions and evicts it
// from the cache.
func (m *Manager) UnsubscribePool(poolID string) error {
	m.mu.Lock()
	accounts := m.poolAccounts[poolID]
	delete(m.poolAccounts, poolID)

	for _, account := range accounts {
		if subID, ok := m.subscriptions[account]; ok {
			if err := m.wsClient.Unsubscribe(subID); err != nil {
				m.logger.Warn("unsubscribe failed",
					zap.String("account", account),
					zap.Error(err))
			}
			delete(m.subscriptions, account)
		}
	}
	m.mu.Unlock()

	m.poolCache.RemovePool(poolID)

	return nil
}

func (m *Manager) handleAccountUpdate(poolID, accountID string, base64Data []byte, slot uint64) {
	data, err := base64.StdEncoding.DecodeString(string(base64Data))
	if err != nil {
		m.logger.Warn("failed to decode account data",
			zap.String("account", accountID),
			zap.Error(err))
		return
	}

	if err := m.poolCache.UpdatePoolAccount(poolID, accountID, data, slot); err != nil {
		return
	}

	m.mu.RLock()
	handler, exists := m.handlers[poolID]
	m.mu.RUnlock()
	if exists {
		handler(poolID, data, slot)
	}
}

// RegisterHandler attaches a callback fired after each update to the
// given pool.
func (m *Manager) RegisterHandler(poolID string, handler PoolUpdateHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[poolID] = handler
}

// GetPool returns a pool from the cache.
func (m *Manager) GetPool(poolID string) (*cpmm.Pool, bool) {
	return m.poolCache.GetPool(poolID)
}

// GetAllPools returns all cached pools.
func (m *Manager) GetAllPools() []*cpmm.Pool {
	return m.poolCache.GetAllPools()
}

// Cache exposes the underlying pool cache.
func (m *Manager) Cache() *PoolCache {
	return m.poolCache
}

// IsConnected reports whether the WebSocket connection is up.
func (m *Manager) IsConnected() bool {
	return m.wsClient.IsConnected()
}

// Close unsubscribes every pool and shuts the connection down.
func (m *Manager) Close() error {
	m.cancel()

	m.mu.RLock()
	poolIDs := make([]string, 0, len(m.poolAccounts))
	for poolID := range m.poolAccounts {
		poolIDs = append(poolIDs, poolID)
	}
	m.mu.RUnlock()

	for _, poolID := range poolIDs {
		m.UnsubscribePool(poolID)
	}

	return m.wsClient.Close()
}

// Stats returns subscription statistics for health reporting.
func (m *Manager) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"subscriptions": len(m.subscriptions),
		"pools":         len(m.poolAccounts),
		"cachedPools":   m.poolCache.Size(),
		"connected":     m.wsClient.IsConnected(),
		"timestamp":     time.Now().Format(time.RFC3339),
	}
}

// poolAccounts lists every account whose data feeds the pool's state.
func poolAccounts(pool *cpmm.Pool) []string {
	return []string{
		pool.GetID(),
		pool.GetBaseVault(),
		pool.GetQuoteVault(),
		pool.MintLP.String(),
	}
}
