// Package token implements the settlement primitives the pool engine invokes
// for its balance legs: transfer, mint and burn over SPL-token-shaped
// accounts stored on the ledger substrate. Outgoing legs from pool-owned
// accounts are authorized by a custody capability instead of a signer.
package token

import (
	"encoding/binary"
	"errors"

	"github.com/gagliardetto/solana-go"
)

const (
	// AccountLen is the byte size of a token holding account.
	AccountLen = 165
	// MintLen is the byte size of a mint account.
	MintLen = 82
)

var (
	ErrInvalidAccountData = errors.New("malformed token account data")
	ErrUninitialized      = errors.New("token account not initialized")
	ErrFrozen             = errors.New("token account frozen")
	ErrMintMismatch       = errors.New("token account mint mismatch")
	ErrOwnerMismatch      = errors.New("token account owner mismatch")
	ErrInsufficientFunds  = errors.New("insufficient token balance")
	ErrUnauthorized       = errors.New("missing authority over token account")
	ErrSupplyOverflow     = errors.New("token supply overflow")
)

// AccountState is the explicit lifecycle tag of a holding account. A closed
// account is re-tagged Uninitialized rather than being recognized by any
// byte convention.
type AccountState uint8

const (
	AccountUninitialized AccountState = 0
	AccountInitialized   AccountState = 1
	AccountFrozen        AccountState = 2
)

// Fixed offsets of the holding-account layout.
const (
	accMintOffset   = 0
	accOwnerOffset  = 32
	accAmountOffset = 64
	accStateOffset  = 108
)

// Fixed offsets of the mint layout.
const (
	mintAuthorityOptionOffset = 0
	mintAuthorityOffset       = 4
	mintSupplyOffset          = 36
	mintDecimalsOffset        = 44
	mintInitializedOffset     = 45
)

// Account is the decoded form of a token holding account.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	State  AccountState
}

// DecodeAccount parses a holding account from its fixed-offset layout.
// Anything but an exact-length buffer is rejected.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) != AccountLen {
		return nil, ErrInvalidAccountData
	}
	acc := &Account{
		Mint:   solana.PublicKeyFromBytes(data[accMintOffset : accMintOffset+32]),
		Owner:  solana.PublicKeyFromBytes(data[accOwnerOffset : accOwnerOffset+32]),
		Amount: binary.LittleEndian.Uint64(data[accAmountOffset : accAmountOffset+8]),
		State:  AccountState(data[accStateOffset]),
	}
	return acc, nil
}

func writeAccount(data []byte, acc *Account) {
	copy(data[accMintOffset:], acc.Mint.Bytes())
	copy(data[accOwnerOffset:], acc.Owner.Bytes())
	binary.LittleEndian.PutUint64(data[accAmountOffset:], acc.Amount)
	data[accStateOffset] = byte(acc.State)
}

func writeAccountAmount(data []byte, amount uint64) {
	binary.LittleEndian.PutUint64(data[accAmountOffset:], amount)
}

// Mint is the decoded form of a mint account.
type Mint struct {
	Authority   solana.PublicKey
	HasAuth     bool
	Supply      uint64
	Decimals    uint8
	Initialized bool
}

// DecodeMint parses a mint from its fixed-offset layout.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != MintLen {
		return nil, ErrInvalidAccountData
	}
	m := &Mint{
		HasAuth:     binary.LittleEndian.Uint32(data[mintAuthorityOptionOffset:mintAuthorityOffset]) == 1,
		Authority:   solana.PublicKeyFromBytes(data[mintAuthorityOffset : mintAuthorityOffset+32]),
		Supply:      binary.LittleEndian.Uint64(data[mintSupplyOffset : mintSupplyOffset+8]),
		Decimals:    data[mintDecimalsOffset],
		Initialized: data[mintInitializedOffset] == 1,
	}
	return m, nil
}

func writeMint(data []byte, m *Mint) {
	if m.HasAuth {
		binary.LittleEndian.PutUint32(data[mintAuthorityOptionOffset:], 1)
	} else {
		binary.LittleEndian.PutUint32(data[mintAuthorityOptionOffset:], 0)
	}
	copy(data[mintAuthorityOffset:], m.Authority.Bytes())
	binary.LittleEndian.PutUint64(data[mintSupplyOffset:], m.Supply)
	data[mintDecimalsOffset] = m.Decimals
	if m.Initialized {
		data[mintInitializedOffset] = 1
	} else {
		data[mintInitializedOffset] = 0
	}
}

func writeMintSupply(data []byte, supply uint64) {
	binary.LittleEndian.PutUint64(data[mintSupplyOffset:], supply)
}
