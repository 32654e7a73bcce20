package token

import (
	"github.com/gagliardetto/solana-go"

	"cpamm/pkg/config"
	"cpamm/pkg/custody"
	"cpamm/pkg/ledger"
)

// ProgramID is the owner tag of every account these primitives operate on.
var ProgramID = config.TokenProgramID

// InitializeAccount writes a fresh holding account for mint, held by owner.
// The backing ledger account must already be allocated to the token program
// at the exact layout size.
func InitializeAccount(info *ledger.AccountInfo, mint, owner solana.PublicKey) error {
	if err := checkProgramAccount(info); err != nil {
		return err
	}
	acc, err := DecodeAccount(info.Account.Data)
	if err != nil {
		return err
	}
	if acc.State != AccountUninitialized {
		return ledger.ErrAccountExists
	}
	writeAccount(info.Account.Data, &Account{
		Mint:   mint,
		Owner:  owner,
		Amount: 0,
		State:  AccountInitialized,
	})
	return nil
}

// InitializeMint writes a fresh mint with the given authority and decimals.
func InitializeMint(info *ledger.AccountInfo, authority solana.PublicKey, decimals uint8) error {
	if info.Account.Owner != ProgramID || len(info.Account.Data) != MintLen {
		return ErrInvalidAccountData
	}
	m, err := DecodeMint(info.Account.Data)
	if err != nil {
		return err
	}
	if m.Initialized {
		return ledger.ErrAccountExists
	}
	writeMint(info.Account.Data, &Mint{
		HasAuth:     true,
		Authority:   authority,
		Decimals:    decimals,
		Initialized: true,
	})
	return nil
}

// Transfer moves amount from one holding account to another, authorized by
// the source owner's signature.
func Transfer(from, to, authority *ledger.AccountInfo, amount uint64) error {
	src, dst, err := loadTransferPair(from, to)
	if err != nil {
		return err
	}
	if !authority.IsSigner || !authority.Key.Equals(src.Owner) {
		return ErrUnauthorized
	}
	return move(from, to, src, dst, amount)
}

// TransferSigned moves amount out of a pool-owned holding account. The
// custody capability must speak for the source owner; that is the only way
// to authorize an outgoing leg from a derived address.
func TransferSigned(from, to *ledger.AccountInfo, cap custody.Capability, amount uint64) error {
	src, dst, err := loadTransferPair(from, to)
	if err != nil {
		return err
	}
	if !cap.Address().Equals(src.Owner) {
		return ErrUnauthorized
	}
	return move(from, to, src, dst, amount)
}

// MintTo mints amount to a destination holding account, authorized by the
// mint authority's signature.
func MintTo(mint, to, authority *ledger.AccountInfo, amount uint64) error {
	m, dst, err := loadMintDest(mint, to)
	if err != nil {
		return err
	}
	if !m.HasAuth || !authority.IsSigner || !authority.Key.Equals(m.Authority) {
		return ErrUnauthorized
	}
	return credit(mint, to, m, dst, amount)
}

// MintToSigned mints amount of a capability-controlled mint to a destination
// holding account.
func MintToSigned(mint, to *ledger.AccountInfo, cap custody.Capability, amount uint64) error {
	m, dst, err := loadMintDest(mint, to)
	if err != nil {
		return err
	}
	if !m.HasAuth || !cap.Address().Equals(m.Authority) {
		return ErrUnauthorized
	}
	return credit(mint, to, m, dst, amount)
}

func loadMintDest(mint, to *ledger.AccountInfo) (*Mint, *Account, error) {
	if err := checkProgramAccount(to); err != nil {
		return nil, nil, err
	}
	if mint.Account.Owner != ProgramID {
		return nil, nil, ErrInvalidAccountData
	}
	m, err := DecodeMint(mint.Account.Data)
	if err != nil {
		return nil, nil, err
	}
	if !m.Initialized {
		return nil, nil, ErrUninitialized
	}
	dst, err := loadInitialized(to)
	if err != nil {
		return nil, nil, err
	}
	if !dst.Mint.Equals(mint.Key) {
		return nil, nil, ErrMintMismatch
	}
	return m, dst, nil
}

func credit(mint, to *ledger.AccountInfo, m *Mint, dst *Account, amount uint64) error {
	supply := m.Supply + amount
	if supply < m.Supply {
		return ErrSupplyOverflow
	}
	balance := dst.Amount + amount
	if balance < dst.Amount {
		return ErrSupplyOverflow
	}
	writeMintSupply(mint.Account.Data, supply)
	writeAccountAmount(to.Account.Data, balance)
	return nil
}

// Burn destroys amount of the mint held in from, authorized by the holding
// account's owner.
func Burn(mint, from, authority *ledger.AccountInfo, amount uint64) error {
	if err := checkProgramAccount(from); err != nil {
		return err
	}
	if mint.Account.Owner != ProgramID {
		return ErrInvalidAccountData
	}
	m, err := DecodeMint(mint.Account.Data)
	if err != nil {
		return err
	}
	if !m.Initialized {
		return ErrUninitialized
	}
	src, err := loadInitialized(from)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(mint.Key) {
		return ErrMintMismatch
	}
	if !authority.IsSigner || !authority.Key.Equals(src.Owner) {
		return ErrUnauthorized
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if m.Supply < amount {
		return ErrInsufficientFunds
	}
	writeMintSupply(mint.Account.Data, m.Supply-amount)
	writeAccountAmount(from.Account.Data, src.Amount-amount)
	return nil
}

func checkProgramAccount(info *ledger.AccountInfo) error {
	if info.Account.Owner != ProgramID || len(info.Account.Data) != AccountLen {
		return ErrInvalidAccountData
	}
	return nil
}

func loadInitialized(info *ledger.AccountInfo) (*Account, error) {
	acc, err := DecodeAccount(info.Account.Data)
	if err != nil {
		return nil, err
	}
	switch acc.State {
	case AccountInitialized:
		return acc, nil
	case AccountFrozen:
		return nil, ErrFrozen
	default:
		return nil, ErrUninitialized
	}
}

func loadTransferPair(from, to *ledger.AccountInfo) (*Account, *Account, error) {
	if err := checkProgramAccount(from); err != nil {
		return nil, nil, err
	}
	if err := checkProgramAccount(to); err != nil {
		return nil, nil, err
	}
	src, err := loadInitialized(from)
	if err != nil {
		return nil, nil, err
	}
	dst, err := loadInitialized(to)
	if err != nil {
		return nil, nil, err
	}
	if !src.Mint.Equals(dst.Mint) {
		return nil, nil, ErrMintMismatch
	}
	return src, dst, nil
}

func move(from, to *ledger.AccountInfo, src, dst *Account, amount uint64) error {
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if from.Key.Equals(to.Key) {
		// Self-transfer leaves the balance untouched.
		return nil
	}
	balance := dst.Amount + amount
	if balance < dst.Amount {
		return ErrSupplyOverflow
	}
	writeAccountAmount(from.Account.Data, src.Amount-amount)
	writeAccountAmount(to.Account.Data, balance)
	return nil
}
