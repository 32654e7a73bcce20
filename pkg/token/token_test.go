package token

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"cpamm/pkg/custody"
	"cpamm/pkg/ledger"
)

type fixture struct {
	t   *testing.T
	led *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, led: ledger.New(ledger.NewManualClock(0))}
}

func (f *fixture) newMint(authority solana.PublicKey, decimals uint8) *ledger.AccountInfo {
	info := f.led.View(solana.NewWallet().PublicKey(), false, true)
	require.NoError(f.t, ledger.Create(info, ProgramID, MintLen))
	require.NoError(f.t, InitializeMint(info, authority, decimals))
	return info
}

func (f *fixture) newAccount(mint *ledger.AccountInfo, owner solana.PublicKey) *ledger.AccountInfo {
	info := f.led.View(solana.NewWallet().PublicKey(), false, true)
	require.NoError(f.t, ledger.Create(info, ProgramID, AccountLen))
	require.NoError(f.t, InitializeAccount(info, mint.Key, owner))
	return info
}

func (f *fixture) signer(key solana.PublicKey) *ledger.AccountInfo {
	return f.led.View(key, true, false)
}

func (f *fixture) mintInto(mint, to *ledger.AccountInfo, authority solana.PublicKey, amount uint64) {
	require.NoError(f.t, MintTo(mint, to, f.signer(authority), amount))
}

func balance(t *testing.T, info *ledger.AccountInfo) uint64 {
	acc, err := DecodeAccount(info.Account.Data)
	require.NoError(t, err)
	return acc.Amount
}

func supply(t *testing.T, info *ledger.AccountInfo) uint64 {
	m, err := DecodeMint(info.Account.Data)
	require.NoError(t, err)
	return m.Supply
}

func TestInitializeAccount(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	acc := f.newAccount(mint, owner)

	decoded, err := DecodeAccount(acc.Account.Data)
	require.NoError(t, err)
	require.Equal(t, mint.Key, decoded.Mint)
	require.Equal(t, owner, decoded.Owner)
	require.Equal(t, uint64(0), decoded.Amount)
	require.Equal(t, AccountInitialized, decoded.State)

	// Double initialization is rejected.
	require.ErrorIs(t, InitializeAccount(acc, mint.Key, owner), ledger.ErrAccountExists)
}

func TestInitializeMint(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 9)

	m, err := DecodeMint(mint.Account.Data)
	require.NoError(t, err)
	require.True(t, m.Initialized)
	require.True(t, m.HasAuth)
	require.Equal(t, authority, m.Authority)
	require.Equal(t, uint8(9), m.Decimals)
	require.Equal(t, uint64(0), m.Supply)

	require.ErrorIs(t, InitializeMint(mint, authority, 9), ledger.ErrAccountExists)
}

func TestMintToRequiresAuthoritySignature(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	acc := f.newAccount(mint, solana.NewWallet().PublicKey())

	// Unsigned authority view.
	err := MintTo(mint, acc, f.led.View(authority, false, false), 100)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Signed but wrong key.
	err = MintTo(mint, acc, f.signer(solana.NewWallet().PublicKey()), 100)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, MintTo(mint, acc, f.signer(authority), 100))
	require.Equal(t, uint64(100), balance(t, acc))
	require.Equal(t, uint64(100), supply(t, mint))
}

func TestMintToRejectsWrongMint(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	mintA := f.newMint(authority, 6)
	mintB := f.newMint(authority, 6)
	acc := f.newAccount(mintB, solana.NewWallet().PublicKey())

	err := MintTo(mintA, acc, f.signer(authority), 100)
	require.ErrorIs(t, err, ErrMintMismatch)
}

func TestMintToSignedRequiresMatchingCapability(t *testing.T) {
	f := newFixture(t)
	program := solana.NewWallet().PublicKey()
	config := solana.NewWallet().PublicKey()

	// A mint controlled by a derived address, like a pool's claim mint.
	_, bump, err := custody.DeriveLPMintAddress(program, config)
	require.NoError(t, err)
	cap, err := custody.LPMintCapability(program, config, bump)
	require.NoError(t, err)

	mint := f.newMint(cap.Address(), 6)
	acc := f.newAccount(mint, solana.NewWallet().PublicKey())

	require.NoError(t, MintToSigned(mint, acc, cap, 42))
	require.Equal(t, uint64(42), balance(t, acc))

	// A capability for a different config speaks for a different address.
	otherCap, err := custody.LPMintCapability(program, solana.NewWallet().PublicKey(), bump)
	if err == nil {
		require.ErrorIs(t, MintToSigned(mint, acc, otherCap, 1), ErrUnauthorized)
	}
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	from := f.newAccount(mint, alice)
	to := f.newAccount(mint, bob)
	f.mintInto(mint, from, authority, 1_000)

	require.NoError(t, Transfer(from, to, f.signer(alice), 400))
	require.Equal(t, uint64(600), balance(t, from))
	require.Equal(t, uint64(400), balance(t, to))
}

func TestTransferAuthorization(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	from := f.newAccount(mint, alice)
	to := f.newAccount(mint, solana.NewWallet().PublicKey())
	f.mintInto(mint, from, authority, 100)

	// Not a signer.
	err := Transfer(from, to, f.led.View(alice, false, false), 10)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Signer, but not the owner.
	err = Transfer(from, to, f.signer(solana.NewWallet().PublicKey()), 10)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	from := f.newAccount(mint, alice)
	to := f.newAccount(mint, solana.NewWallet().PublicKey())
	f.mintInto(mint, from, authority, 5)

	err := Transfer(from, to, f.signer(alice), 6)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTransferMintMismatch(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	mintA := f.newMint(authority, 6)
	mintB := f.newMint(authority, 6)
	from := f.newAccount(mintA, alice)
	to := f.newAccount(mintB, solana.NewWallet().PublicKey())
	f.mintInto(mintA, from, authority, 100)

	err := Transfer(from, to, f.signer(alice), 10)
	require.ErrorIs(t, err, ErrMintMismatch)
}

func TestTransferToSelfKeepsBalance(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	acc := f.newAccount(mint, alice)
	f.mintInto(mint, acc, authority, 77)

	require.NoError(t, Transfer(acc, acc, f.signer(alice), 50))
	require.Equal(t, uint64(77), balance(t, acc))
}

func TestTransferSigned(t *testing.T) {
	f := newFixture(t)
	program := solana.NewWallet().PublicKey()
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	_, bump, err := custody.DeriveConfigAddress(program, 1, mintX, mintY)
	require.NoError(t, err)
	cap, err := custody.ConfigCapability(program, 1, mintX, mintY, bump)
	require.NoError(t, err)

	mint := f.newMint(authority, 6)
	vault := f.newAccount(mint, cap.Address())
	user := f.newAccount(mint, solana.NewWallet().PublicKey())
	f.mintInto(mint, vault, authority, 500)

	require.NoError(t, TransferSigned(vault, user, cap, 200))
	require.Equal(t, uint64(300), balance(t, vault))
	require.Equal(t, uint64(200), balance(t, user))

	// The capability only speaks for accounts it owns.
	require.ErrorIs(t, TransferSigned(user, vault, cap, 1), ErrUnauthorized)
}

func TestBurn(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	alice := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	acc := f.newAccount(mint, alice)
	f.mintInto(mint, acc, authority, 1_000)

	require.NoError(t, Burn(mint, acc, f.signer(alice), 300))
	require.Equal(t, uint64(700), balance(t, acc))
	require.Equal(t, uint64(700), supply(t, mint))

	require.ErrorIs(t, Burn(mint, acc, f.signer(alice), 701), ErrInsufficientFunds)

	err := Burn(mint, acc, f.signer(solana.NewWallet().PublicKey()), 1)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestOperationsRejectForeignAccounts(t *testing.T) {
	f := newFixture(t)
	authority := solana.NewWallet().PublicKey()
	mint := f.newMint(authority, 6)
	acc := f.newAccount(mint, solana.NewWallet().PublicKey())

	// An account owned by some other program is never a token account.
	foreign := f.led.View(solana.NewWallet().PublicKey(), false, true)
	require.NoError(t, ledger.Create(foreign, solana.NewWallet().PublicKey(), AccountLen))

	err := Transfer(foreign, acc, f.signer(authority), 1)
	require.ErrorIs(t, err, ErrInvalidAccountData)

	err = MintTo(mint, foreign, f.signer(authority), 1)
	require.ErrorIs(t, err, ErrInvalidAccountData)
}
