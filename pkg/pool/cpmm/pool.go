package cpmm

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"

	"cpamm/pkg/amm"
	"cpamm/pkg/curve"
	"cpamm/pkg/custody"
	"cpamm/pkg/sol"
)

// Pool is the client-side view of one deployed pool: the decoded config
// record plus the derived addresses and last-seen reserve balances.
type Pool struct {
	Config amm.Config

	PoolId solana.PublicKey
	MintLP solana.PublicKey
	VaultX solana.PublicKey
	VaultY solana.PublicKey

	ReserveX cosmath.Int
	ReserveY cosmath.Int
	LPSupply cosmath.Int

	// Cache tracking for WebSocket updates
	lastCacheUpdate time.Time
	cacheDataFresh  bool
}

func (p *Pool) GetProgramID() solana.PublicKey {
	return PoolProgramID
}

func (p *Pool) GetID() string {
	return p.PoolId.String()
}

func (p *Pool) GetTokens() (string, string) {
	return p.Config.MintX.String(), p.Config.MintY.String()
}

// GetBaseVault returns the X-side vault address.
func (p *Pool) GetBaseVault() string {
	return p.VaultX.String()
}

// GetQuoteVault returns the Y-side vault address.
func (p *Pool) GetQuoteVault() string {
	return p.VaultY.String()
}

// Decode parses the config account data and re-derives the pool's claim
// mint and vault addresses. PoolId must be set before calling.
func (p *Pool) Decode(data []byte) error {
	if len(data) != ConfigDataSize {
		return fmt.Errorf("data too short for pool config: expected %d bytes, got %d", ConfigDataSize, len(data))
	}
	cfg, err := amm.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("failed to decode pool config: %w", err)
	}
	p.Config = *cfg

	mintLP, _, err := custody.DeriveLPMintAddress(PoolProgramID, p.PoolId)
	if err != nil {
		return fmt.Errorf("failed to derive lp mint: %w", err)
	}
	p.MintLP = mintLP

	if p.VaultX, err = FindVaultAddress(p.PoolId, cfg.MintX); err != nil {
		return fmt.Errorf("failed to derive vault x: %w", err)
	}
	if p.VaultY, err = FindVaultAddress(p.PoolId, cfg.MintY); err != nil {
		return fmt.Errorf("failed to derive vault y: %w", err)
	}
	return nil
}

// UpdateFromAccountData applies a pushed account update to the cached view.
func (p *Pool) UpdateFromAccountData(accountID string, data []byte) error {
	switch accountID {
	case p.VaultX.String(), p.VaultY.String():
		if len(data) < TokenAmountOffset+8 {
			return fmt.Errorf("insufficient data for token account: %d bytes", len(data))
		}
		amount := cosmath.NewIntFromUint64(binary.LittleEndian.Uint64(data[TokenAmountOffset : TokenAmountOffset+8]))
		if accountID == p.VaultX.String() {
			p.ReserveX = amount
		} else {
			p.ReserveY = amount
		}
	case p.MintLP.String():
		if len(data) < MintSupplyOffset+8 {
			return fmt.Errorf("insufficient data for mint account: %d bytes", len(data))
		}
		p.LPSupply = cosmath.NewIntFromUint64(binary.LittleEndian.Uint64(data[MintSupplyOffset : MintSupplyOffset+8]))
	case p.PoolId.String():
		if err := p.Decode(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown account ID for pool update: %s", accountID)
	}

	p.lastCacheUpdate = time.Now()
	p.cacheDataFresh = true
	return nil
}

// FetchPool loads a pool and its reserve balances from the chain.
func FetchPool(ctx context.Context, solClient *sol.Client, configAddr solana.PublicKey) (*Pool, error) {
	account, err := solClient.GetAccountInfo(ctx, configAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool config %s: %w", configAddr, err)
	}

	pool := &Pool{
		PoolId:   configAddr,
		ReserveX: cosmath.ZeroInt(),
		ReserveY: cosmath.ZeroInt(),
		LPSupply: cosmath.ZeroInt(),
	}
	if err := pool.Decode(account.Value.Data.GetBinary()); err != nil {
		return nil, err
	}
	if err := pool.RefreshReserves(ctx, solClient); err != nil {
		return nil, err
	}
	return pool, nil
}

// RefreshReserves re-reads both vault balances and the claim supply.
func (p *Pool) RefreshReserves(ctx context.Context, solClient *sol.Client) error {
	accounts := []solana.PublicKey{p.VaultX, p.VaultY, p.MintLP}
	results, err := solClient.GetMultipleAccountsWithOpts(ctx, accounts)
	if err != nil {
		return fmt.Errorf("failed to fetch vault balances: %w", err)
	}

	for i, result := range results.Value {
		if result == nil {
			return fmt.Errorf("account %s not found", accounts[i])
		}
		data := result.Data.GetBinary()
		switch accounts[i] {
		case p.VaultX, p.VaultY:
			if len(data) < TokenAmountOffset+8 {
				return fmt.Errorf("insufficient data for vault %s", accounts[i])
			}
			amount := cosmath.NewIntFromUint64(binary.LittleEndian.Uint64(data[TokenAmountOffset : TokenAmountOffset+8]))
			if accounts[i] == p.VaultX {
				p.ReserveX = amount
			} else {
				p.ReserveY = amount
			}
		case p.MintLP:
			if len(data) < 44 {
				return fmt.Errorf("insufficient data for lp mint %s", accounts[i])
			}
			p.LPSupply = cosmath.NewIntFromUint64(binary.LittleEndian.Uint64(data[MintSupplyOffset : MintSupplyOffset+8]))
		}
	}

	p.lastCacheUpdate = time.Now()
	p.cacheDataFresh = true
	return nil
}

// Quote prices a swap of amount of inputMint against the cached reserves,
// with the exact integer semantics the program applies on-chain.
func (p *Pool) Quote(ctx context.Context, solClient *sol.Client, inputMint string, amount cosmath.Int) (cosmath.Int, error) {
	if solClient != nil {
		if err := p.RefreshReserves(ctx, solClient); err != nil {
			return cosmath.ZeroInt(), err
		}
	}
	if amount.IsZero() || !amount.IsUint64() {
		return cosmath.ZeroInt(), fmt.Errorf("amount out of range: %s", amount)
	}

	var reserveIn, reserveOut uint64
	switch inputMint {
	case p.Config.MintX.String():
		reserveIn, reserveOut = p.ReserveX.Uint64(), p.ReserveY.Uint64()
	case p.Config.MintY.String():
		reserveIn, reserveOut = p.ReserveY.Uint64(), p.ReserveX.Uint64()
	default:
		return cosmath.ZeroInt(), fmt.Errorf("mint %s not in pool %s", inputMint, p.PoolId)
	}

	result, err := curve.SwapAmounts(amount.Uint64(), reserveIn, reserveOut, p.Config.FeeBps)
	if err != nil {
		return cosmath.ZeroInt(), fmt.Errorf("swap quote failed: %w", err)
	}
	return cosmath.NewIntFromUint64(result.Withdraw), nil
}

// QuoteDeposit returns the reserve contributions a deposit of lpAmount claim
// tokens would require against the cached reserves.
func (p *Pool) QuoteDeposit(lpAmount uint64) (uint64, uint64, error) {
	if p.LPSupply.IsZero() {
		return 0, 0, fmt.Errorf("pool %s has no liquidity; first deposit sets the price", p.PoolId)
	}
	return curve.DepositAmounts(lpAmount, p.ReserveX.Uint64(), p.ReserveY.Uint64(), p.LPSupply.Uint64())
}

// QuoteWithdraw returns the reserve payouts burning lpAmount claim tokens
// would yield against the cached reserves.
func (p *Pool) QuoteWithdraw(lpAmount uint64) (uint64, uint64, error) {
	if p.LPSupply.IsZero() {
		return 0, 0, fmt.Errorf("pool %s has no liquidity", p.PoolId)
	}
	return curve.WithdrawAmounts(lpAmount, p.ReserveX.Uint64(), p.ReserveY.Uint64(), p.LPSupply.Uint64())
}
