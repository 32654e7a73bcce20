package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestViewMaterializesEmptyAccount(t *testing.T) {
	l := New(nil)
	key := solana.NewWallet().PublicKey()

	info := l.View(key, false, false)
	require.Equal(t, key, info.Key)
	require.False(t, info.Account.Exists())

	// Repeated views share the backing account.
	info2 := l.View(key, true, true)
	require.Same(t, info.Account, info2.Account)
	require.True(t, info2.IsSigner)
	require.True(t, info2.IsWritable)
}

func TestCreateAllocates(t *testing.T) {
	l := New(nil)
	owner := solana.NewWallet().PublicKey()
	info := l.View(solana.NewWallet().PublicKey(), false, true)

	require.NoError(t, Create(info, owner, 165))
	require.True(t, info.Account.Exists())
	require.Equal(t, owner, info.Account.Owner)
	require.Len(t, info.Account.Data, 165)
	require.Equal(t, MinimumBalance(165), info.Account.Lamports)

	require.ErrorIs(t, Create(info, owner, 165), ErrAccountExists)
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	l := New(nil)
	info := l.View(solana.NewWallet().PublicKey(), false, true)

	err := l.Execute(func() error {
		return Create(info, solana.NewWallet().PublicKey(), 8)
	})
	require.NoError(t, err)
	require.True(t, info.Account.Exists())
}

func TestExecuteRollsBackOnError(t *testing.T) {
	l := New(nil)
	owner := solana.NewWallet().PublicKey()
	existing := l.View(solana.NewWallet().PublicKey(), false, true)
	require.NoError(t, Create(existing, owner, 4))
	copy(existing.Account.Data, []byte{1, 2, 3, 4})

	fresh := l.View(solana.NewWallet().PublicKey(), false, true)

	boom := errors.New("boom")
	err := l.Execute(func() error {
		existing.Account.Data[0] = 99
		existing.Account.Lamports = 0
		if err := Create(fresh, owner, 8); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The mutated account reads exactly as before.
	require.Equal(t, []byte{1, 2, 3, 4}, existing.Account.Data)
	require.Equal(t, MinimumBalance(4), existing.Account.Lamports)

	// The account created mid-execution reads as untouched, through the
	// old view and through a fresh one.
	require.False(t, fresh.Account.Exists())
	require.False(t, l.View(fresh.Key, false, false).Account.Exists())
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(1_000)
	require.Equal(t, int64(1_000), c.Unix())

	c.Advance(90 * time.Second)
	require.Equal(t, int64(1_090), c.Unix())

	c.Set(500)
	require.Equal(t, int64(500), c.Unix())
}

func TestLedgerDefaultsToSystemClock(t *testing.T) {
	l := New(nil)
	now := time.Now().Unix()
	got := l.Clock().Unix()
	require.InDelta(t, now, got, 5)
}
