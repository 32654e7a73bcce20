package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cpamm/pkg/pool/cpmm"
	"cpamm/pkg/sol"
	"cpamm/pkg/subscription"
)

// PoolService tracks a set of pools, keeps their reserves fresh over
// WebSocket when available and RPC polling otherwise, and answers
// quote requests against the cached state.
type PoolService struct {
	solClient       *sol.Client
	rpcPool         *sol.RPCPool
	subMgr          *subscription.Manager
	logger          *zap.Logger
	refreshInterval time.Duration
	slippageBps     int

	mu         sync.RWMutex
	pools      map[string]*cpmm.Pool
	lastUpdate time.Time

	ctx context.Context
}

// httpToWsURL converts an HTTP(S) RPC URL to its WebSocket form.
func httpToWsURL(httpURL string) string {
	wsURL := strings.Replace(httpURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return wsURL
}

func NewPoolService(ctx context.Context, endpoints []string, wsURL string, rateLimit int, refreshInterval time.Duration, slippageBps int, logger *zap.Logger) (*PoolService, error) {
	var rpcPool *sol.RPCPool
	var solClient *sol.Client
	var err error

	if len(endpoints) > 1 {
		rpcPool, err = sol.NewRPCPool(ctx, endpoints, rateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create RPC pool: %w", err)
		}
		solClient = rpcPool.GetClient()
		logger.Info("initialized RPC pool", zap.Int("endpoints", rpcPool.Size()))
	} else {
		solClient, err = sol.NewClient(ctx, endpoints[0], rateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create Solana client: %w", err)
		}
	}

	if wsURL == "" {
		wsURL = httpToWsURL(endpoints[0])
	}
	subMgr, err := subscription.NewManager(ctx, wsURL, logger)
	if err != nil {
		logger.Warn("websocket unavailable, falling back to RPC polling", zap.Error(err))
		subMgr = nil
	}

	return &PoolService{
		solClient:       solClient,
		rpcPool:         rpcPool,
		subMgr:          subMgr,
		logger:          logger,
		refreshInterval: refreshInterval,
		slippageBps:     slippageBps,
		pools:           make(map[string]*cpmm.Pool),
		ctx:             ctx,
	}, nil
}

// client returns an RPC client, rotating through the pool when one is
// configured.
func (s *PoolService) client() *sol.Client {
	if s.rpcPool != nil {
		return s.rpcPool.GetClient()
	}
	return s.solClient
}

// LoadPools fetches the given config addresses and starts tracking them.
func (s *PoolService) LoadPools(ctx context.Context, configAddrs []string) error {
	for _, addr := range configAddrs {
		configAddr, err := solana.PublicKeyFromBase58(strings.TrimSpace(addr))
		if err != nil {
			return fmt.Errorf("invalid pool address %q: %w", addr, err)
		}
		pool, err := cpmm.FetchPool(ctx, s.client(), configAddr)
		if err != nil {
			return fmt.Errorf("failed to load pool %s: %w", addr, err)
		}
		s.track(pool)
	}
	return nil
}

// DiscoverPools scans the program for pools over a mint pair and starts
// tracking every hit.
func (s *PoolService) DiscoverPools(ctx context.Context, mintX, mintY solana.PublicKey) (int, error) {
	pools, err := cpmm.FindPools(ctx, s.client(), mintX, mintY)
	if err != nil {
		return 0, err
	}
	for _, pool := range pools {
		s.track(pool)
	}
	return len(pools), nil
}

func (s *PoolService) track(pool *cpmm.Pool) {
	poolID := pool.GetID()

	s.mu.Lock()
	s.pools[poolID] = pool
	s.lastUpdate = time.Now()
	s.mu.Unlock()

	s.logger.Info("tracking pool",
		zap.String("pool", poolID),
		zap.String("mintX", pool.Config.MintX.String()),
		zap.String("mintY", pool.Config.MintY.String()),
		zap.Uint16("feeBps", pool.Config.FeeBps))

	if s.subMgr != nil {
		if err := s.subMgr.SubscribePool(pool); err != nil {
			s.logger.Warn("pool subscribe failed", zap.String("pool", poolID), zap.Error(err))
		}
	}
}

// StartPeriodicRefresh polls reserves for every tracked pool. With a
// live WebSocket it only touches pools whose push updates went stale.
func (s *PoolService) StartPeriodicRefresh(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshPools(ctx)
		}
	}
}

func (s *PoolService) refreshPools(ctx context.Context) {
	var targets []*cpmm.Pool

	if s.subMgr != nil && s.subMgr.IsConnected() {
		staleIDs := s.subMgr.Cache().GetStalePoolIDs(2 * s.refreshInterval)
		s.mu.RLock()
		for _, id := range staleIDs {
			if pool, ok := s.pools[id]; ok {
				targets = append(targets, pool)
			}
		}
		s.mu.RUnlock()
	} else {
		s.mu.RLock()
		for _, pool := range s.pools {
			targets = append(targets, pool)
		}
		s.mu.RUnlock()
	}

	for _, pool := range targets {
		if err := pool.RefreshReserves(ctx, s.client()); err != nil {
			s.logger.Warn("reserve refresh failed",
				zap.String("pool", pool.GetID()),
				zap.Error(err))
			continue
		}
	}

	if len(targets) > 0 {
		s.mu.Lock()
		s.lastUpdate = time.Now()
		s.mu.Unlock()
		s.logger.Debug("refreshed pools", zap.Int("count", len(targets)))
	}
}

// GetPool returns a tracked pool by its config address.
func (s *PoolService) GetPool(poolID string) (*cpmm.Pool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[poolID]
	return pool, ok
}

// FindPoolForPair returns the first tracked pool trading the given
// mint pair, in either direction.
func (s *PoolService) FindPoolForPair(inputMint, outputMint string) (*cpmm.Pool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pool := range s.pools {
		x, y := pool.GetTokens()
		if (x == inputMint && y == outputMint) || (y == inputMint && x == outputMint) {
			return pool, true
		}
	}
	return nil, false
}

// Views renders every tracked pool for the listing endpoint.
func (s *PoolService) Views() []PoolView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]PoolView, 0, len(s.pools))
	for _, pool := range s.pools {
		views = append(views, poolView(pool, s.lastUpdate))
	}
	return views
}

// LastUpdate returns when pool state last changed.
func (s *PoolService) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// PoolCount returns how many pools are tracked.
func (s *PoolService) PoolCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pools)
}

// Subscribed reports whether push updates are flowing.
func (s *PoolService) Subscribed() bool {
	return s.subMgr != nil && s.subMgr.IsConnected()
}

// Quote computes the swap output for amount of inputMint against the
// given pool, or any tracked pool trading the pair when poolID is empty.
func (s *PoolService) Quote(ctx context.Context, poolID, inputMint, outputMint, amount string, slippageBps int) (*QuoteResponse, error) {
	start := time.Now()

	inAmount, ok := cosmath.NewIntFromString(amount)
	if !ok || !inAmount.IsPositive() {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}

	var pool *cpmm.Pool
	if poolID != "" {
		pool, ok = s.GetPool(poolID)
		if !ok {
			return nil, fmt.Errorf("pool %s not tracked", poolID)
		}
	} else {
		pool, ok = s.FindPoolForPair(inputMint, outputMint)
		if !ok {
			return nil, fmt.Errorf("no tracked pool for %s -> %s", inputMint, outputMint)
		}
	}

	outAmount, err := pool.Quote(ctx, s.client(), inputMint, inAmount)
	if err != nil {
		return nil, err
	}

	if slippageBps <= 0 {
		slippageBps = s.slippageBps
	}
	minOut := outAmount.Mul(cosmath.NewInt(int64(cpmm.FeeDenominator - slippageBps))).Quo(cosmath.NewInt(cpmm.FeeDenominator))

	x, y := pool.GetTokens()
	resolvedOut := y
	if inputMint == y {
		resolvedOut = x
	}

	return &QuoteResponse{
		Pool:                 pool.GetID(),
		InputMint:            inputMint,
		OutputMint:           resolvedOut,
		InAmount:             inAmount.String(),
		OutAmount:            outAmount.String(),
		FeeBps:               pool.Config.FeeBps,
		SlippageBps:          slippageBps,
		OtherAmountThreshold: minOut.String(),
		LastUpdate:           s.LastUpdate(),
		TimeTaken:            time.Since(start).String(),
	}, nil
}

// QuoteDeposit sizes the two-sided deposit for a claim amount.
func (s *PoolService) QuoteDeposit(poolID string, lpAmount uint64) (*DepositQuoteResponse, error) {
	pool, ok := s.GetPool(poolID)
	if !ok {
		return nil, fmt.Errorf("pool %s not tracked", poolID)
	}

	if pool.LPSupply.IsZero() {
		return &DepositQuoteResponse{
			Pool:      poolID,
			LPAmount:  fmt.Sprintf("%d", lpAmount),
			FirstTime: true,
		}, nil
	}

	x, y, err := pool.QuoteDeposit(lpAmount)
	if err != nil {
		return nil, err
	}
	return &DepositQuoteResponse{
		Pool:     poolID,
		LPAmount: fmt.Sprintf("%d", lpAmount),
		MaxX:     fmt.Sprintf("%d", x),
		MaxY:     fmt.Sprintf("%d", y),
	}, nil
}

// QuoteWithdraw sizes the two-sided withdrawal for a claim amount.
func (s *PoolService) QuoteWithdraw(poolID string, lpAmount uint64) (*WithdrawQuoteResponse, error) {
	pool, ok := s.GetPool(poolID)
	if !ok {
		return nil, fmt.Errorf("pool %s not tracked", poolID)
	}

	x, y, err := pool.QuoteWithdraw(lpAmount)
	if err != nil {
		return nil, err
	}
	return &WithdrawQuoteResponse{
		Pool:     poolID,
		LPAmount: fmt.Sprintf("%d", lpAmount),
		MinX:     fmt.Sprintf("%d", x),
		MinY:     fmt.Sprintf("%d", y),
	}, nil
}

// Close shuts the subscription manager down.
func (s *PoolService) Close() error {
	if s.subMgr != nil {
		return s.subMgr.Close()
	}
	return nil
}

func poolView(pool *cpmm.Pool, updatedAt time.Time) PoolView {
	view := PoolView{
		Address:   pool.GetID(),
		MintX:     pool.Config.MintX.String(),
		MintY:     pool.Config.MintY.String(),
		VaultX:    pool.GetBaseVault(),
		VaultY:    pool.GetQuoteVault(),
		MintLP:    pool.MintLP.String(),
		ReserveX:  pool.ReserveX.String(),
		ReserveY:  pool.ReserveY.String(),
		LPSupply:  pool.LPSupply.String(),
		FeeBps:    pool.Config.FeeBps,
		State:     pool.Config.State.String(),
		UpdatedAt: updatedAt,
	}
	if pool.ReserveX.IsPositive() {
		rx := decimal.NewFromBigInt(pool.ReserveX.BigInt(), 0)
		ry := decimal.NewFromBigInt(pool.ReserveY.BigInt(), 0)
		view.Price = ry.Div(rx).StringFixed(9)
	}
	return view
}
