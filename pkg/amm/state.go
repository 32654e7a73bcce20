package amm

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// PoolState is the lifecycle gate stored in the config record. Initialize is
// the only way into Initialized; the admin operation moves between
// Initialized, Disabled and WithdrawOnly and never back to Uninitialized.
type PoolState uint8

const (
	StateUninitialized PoolState = iota
	StateInitialized
	StateDisabled
	StateWithdrawOnly
)

func (s PoolState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateDisabled:
		return "disabled"
	case StateWithdrawOnly:
		return "withdraw-only"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// CanDeposit reports whether deposits are legal in this state.
func (s PoolState) CanDeposit() bool {
	return s == StateInitialized
}

// CanSwap reports whether swaps are legal in this state.
func (s PoolState) CanSwap() bool {
	return s == StateInitialized
}

// CanWithdraw reports whether withdrawals are legal in this state. Liquidity
// can always be exited while the pool is merely frozen for trading.
func (s PoolState) CanWithdraw() bool {
	return s == StateInitialized || s == StateWithdrawOnly
}

// ConfigLen is the byte size of the persisted config record:
// seed(8) | authority(32) | mint_x(32) | mint_y(32) | fee_bps(2) |
// state(1) | config_bump(1) | lp_bump(1).
const ConfigLen = 109

// Fixed offsets of the config record.
const (
	cfgSeedOffset      = 0
	cfgAuthorityOffset = 8
	cfgMintXOffset     = 40
	cfgMintYOffset     = 72
	cfgFeeOffset       = 104
	cfgStateOffset     = 106
	cfgBumpOffset      = 107
	cfgLPBumpOffset    = 108
)

// Config is the per-pool record. Everything except State is written once at
// initialization and never changed. The custody address is always recomputed
// from these fields, never stored alongside them.
type Config struct {
	Seed       uint64
	Authority  solana.PublicKey // zero means permanently permissionless
	MintX      solana.PublicKey
	MintY      solana.PublicKey
	FeeBps     uint16
	State      PoolState
	ConfigBump uint8
	LPBump     uint8
}

// HasAuthority reports whether an admin principal was configured.
func (c *Config) HasAuthority() bool {
	return !c.Authority.IsZero()
}

// DecodeConfig parses a config record from its fixed-offset layout. Only an
// exact-length buffer is accepted.
func DecodeConfig(data []byte) (*Config, error) {
	if len(data) != ConfigLen {
		return nil, ErrInvalidConfig
	}
	c := &Config{
		Seed:       binary.LittleEndian.Uint64(data[cfgSeedOffset : cfgSeedOffset+8]),
		Authority:  solana.PublicKeyFromBytes(data[cfgAuthorityOffset : cfgAuthorityOffset+32]),
		MintX:      solana.PublicKeyFromBytes(data[cfgMintXOffset : cfgMintXOffset+32]),
		MintY:      solana.PublicKeyFromBytes(data[cfgMintYOffset : cfgMintYOffset+32]),
		FeeBps:     binary.LittleEndian.Uint16(data[cfgFeeOffset : cfgFeeOffset+2]),
		State:      PoolState(data[cfgStateOffset]),
		ConfigBump: data[cfgBumpOffset],
		LPBump:     data[cfgLPBumpOffset],
	}
	return c, nil
}

// Store writes the record back to its account buffer.
func (c *Config) Store(data []byte) error {
	if len(data) != ConfigLen {
		return ErrInvalidConfig
	}
	binary.LittleEndian.PutUint64(data[cfgSeedOffset:], c.Seed)
	copy(data[cfgAuthorityOffset:], c.Authority.Bytes())
	copy(data[cfgMintXOffset:], c.MintX.Bytes())
	copy(data[cfgMintYOffset:], c.MintY.Bytes())
	binary.LittleEndian.PutUint16(data[cfgFeeOffset:], c.FeeBps)
	data[cfgStateOffset] = byte(c.State)
	data[cfgBumpOffset] = c.ConfigBump
	data[cfgLPBumpOffset] = c.LPBump
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{seed=%d,authority=%s,mint_x=%s,mint_y=%s,fee_bps=%d,state=%s}",
		c.Seed,
		base58.Encode(c.Authority.Bytes()),
		base58.Encode(c.MintX.Bytes()),
		base58.Encode(c.MintY.Bytes()),
		c.FeeBps,
		c.State,
	)
}
