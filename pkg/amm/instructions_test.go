package amm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestDecodeInitializeArgs(t *testing.T) {
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	short := encodeInitialize(7, 100, mintX, mintY, 254, 253, nil)[1:]
	require.Len(t, short, InitializeArgsLen)
	args, err := decodeInitializeArgs(short)
	require.NoError(t, err)
	require.Equal(t, uint64(7), args.Seed)
	require.Equal(t, uint16(100), args.FeeBps)
	require.Equal(t, mintX, args.MintX)
	require.Equal(t, mintY, args.MintY)
	require.Equal(t, uint8(254), args.ConfigBump)
	require.Equal(t, uint8(253), args.LPBump)
	require.True(t, args.Authority.IsZero())

	long := encodeInitialize(7, 100, mintX, mintY, 254, 253, &authority)[1:]
	require.Len(t, long, InitializeArgsLenWithAuth)
	args, err = decodeInitializeArgs(long)
	require.NoError(t, err)
	require.Equal(t, authority, args.Authority)

	// Any other length is rejected.
	_, err = decodeInitializeArgs(long[:InitializeArgsLen+1])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = decodeInitializeArgs(nil)
	require.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestDecodeDepositArgs(t *testing.T) {
	data := encodeDeposit(10, 20, 30, -1)[1:]
	require.Len(t, data, DepositArgsLen)
	args, err := decodeDepositArgs(data)
	require.NoError(t, err)
	require.Equal(t, uint64(10), args.Amount)
	require.Equal(t, uint64(20), args.MaxX)
	require.Equal(t, uint64(30), args.MaxY)
	require.Equal(t, int64(-1), args.Expiration)

	_, err = decodeDepositArgs(data[:31])
	require.ErrorIs(t, err, ErrInvalidInstructionData)

	// Zero amount and zero caps are all rejected.
	_, err = decodeDepositArgs(encodeDeposit(0, 20, 30, 0)[1:])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = decodeDepositArgs(encodeDeposit(10, 0, 30, 0)[1:])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = decodeDepositArgs(encodeDeposit(10, 20, 0, 0)[1:])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestDecodeWithdrawArgs(t *testing.T) {
	data := encodeWithdraw(10, 0, 0, 99)[1:]
	require.Len(t, data, WithdrawArgsLen)
	args, err := decodeWithdrawArgs(data)
	require.NoError(t, err)
	require.Equal(t, uint64(10), args.Amount)
	// Zero minimums are legal: they just mean no slippage protection.
	require.Equal(t, uint64(0), args.MinX)
	require.Equal(t, uint64(0), args.MinY)

	_, err = decodeWithdrawArgs(encodeWithdraw(0, 1, 1, 0)[1:])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestDecodeSwapArgs(t *testing.T) {
	data := encodeSwap(true, 100, 90, 1234)[1:]
	require.Len(t, data, SwapArgsLen)
	args, err := decodeSwapArgs(data)
	require.NoError(t, err)
	require.True(t, args.XInput)
	require.Equal(t, uint64(100), args.Amount)
	require.Equal(t, uint64(90), args.MinOut)
	require.Equal(t, int64(1234), args.Expiration)

	args, err = decodeSwapArgs(encodeSwap(false, 100, 90, 0)[1:])
	require.NoError(t, err)
	require.False(t, args.XInput)

	// The side flag is strictly 0 or 1.
	bad := encodeSwap(false, 100, 90, 0)[1:]
	bad[0] = 2
	_, err = decodeSwapArgs(bad)
	require.ErrorIs(t, err, ErrInvalidInstructionData)

	_, err = decodeSwapArgs(encodeSwap(true, 0, 90, 0)[1:])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = decodeSwapArgs(encodeSwap(true, 100, 0, 0)[1:])
	require.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestDecodeSetStateArgs(t *testing.T) {
	args, err := decodeSetStateArgs([]byte{byte(StateWithdrawOnly)})
	require.NoError(t, err)
	require.Equal(t, StateWithdrawOnly, args.State)

	_, err = decodeSetStateArgs(nil)
	require.ErrorIs(t, err, ErrInvalidInstructionData)
	_, err = decodeSetStateArgs([]byte{0, 0})
	require.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestConfigStoreDecodeRoundTrip(t *testing.T) {
	cfg := &Config{
		Seed:       42,
		Authority:  solana.NewWallet().PublicKey(),
		MintX:      solana.NewWallet().PublicKey(),
		MintY:      solana.NewWallet().PublicKey(),
		FeeBps:     125,
		State:      StateWithdrawOnly,
		ConfigBump: 255,
		LPBump:     251,
	}
	data := make([]byte, ConfigLen)
	require.NoError(t, cfg.Store(data))

	decoded, err := DecodeConfig(data)
	require.NoError(t, err)
	require.Equal(t, cfg, decoded)

	_, err = DecodeConfig(data[:ConfigLen-1])
	require.ErrorIs(t, err, ErrInvalidConfig)
}
