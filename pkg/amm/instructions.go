package amm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Instruction discriminators, the first byte of every payload.
const (
	InstructionInitialize uint8 = iota
	InstructionDeposit
	InstructionWithdraw
	InstructionSwap
	InstructionSetState
)

// Argument layouts are fixed-width little-endian with no padding; the sizes
// below exclude the discriminator byte. Initialize comes in two lengths, the
// longer one carrying an optional admin authority.
const (
	InitializeArgsLen         = 76
	InitializeArgsLenWithAuth = InitializeArgsLen + 32
	DepositArgsLen            = 32
	WithdrawArgsLen           = 32
	SwapArgsLen               = 25
	SetStateArgsLen           = 1
)

type InitializeArgs struct {
	Seed       uint64
	FeeBps     uint16
	MintX      solana.PublicKey
	MintY      solana.PublicKey
	ConfigBump uint8
	LPBump     uint8
	Authority  solana.PublicKey // zero when omitted
}

func decodeInitializeArgs(data []byte) (*InitializeArgs, error) {
	if len(data) != InitializeArgsLen && len(data) != InitializeArgsLenWithAuth {
		return nil, ErrInvalidInstructionData
	}
	args := &InitializeArgs{
		Seed:       binary.LittleEndian.Uint64(data[0:8]),
		FeeBps:     binary.LittleEndian.Uint16(data[8:10]),
		MintX:      solana.PublicKeyFromBytes(data[10:42]),
		MintY:      solana.PublicKeyFromBytes(data[42:74]),
		ConfigBump: data[74],
		LPBump:     data[75],
	}
	if len(data) == InitializeArgsLenWithAuth {
		args.Authority = solana.PublicKeyFromBytes(data[76:108])
	}
	return args, nil
}

type DepositArgs struct {
	Amount     uint64
	MaxX       uint64
	MaxY       uint64
	Expiration int64
}

func decodeDepositArgs(data []byte) (*DepositArgs, error) {
	if len(data) != DepositArgsLen {
		return nil, ErrInvalidInstructionData
	}
	args := &DepositArgs{
		Amount:     binary.LittleEndian.Uint64(data[0:8]),
		MaxX:       binary.LittleEndian.Uint64(data[8:16]),
		MaxY:       binary.LittleEndian.Uint64(data[16:24]),
		Expiration: int64(binary.LittleEndian.Uint64(data[24:32])),
	}
	if args.Amount == 0 || args.MaxX == 0 || args.MaxY == 0 {
		return nil, ErrInvalidInstructionData
	}
	return args, nil
}

type WithdrawArgs struct {
	Amount     uint64
	MinX       uint64
	MinY       uint64
	Expiration int64
}

func decodeWithdrawArgs(data []byte) (*WithdrawArgs, error) {
	if len(data) != WithdrawArgsLen {
		return nil, ErrInvalidInstructionData
	}
	args := &WithdrawArgs{
		Amount:     binary.LittleEndian.Uint64(data[0:8]),
		MinX:       binary.LittleEndian.Uint64(data[8:16]),
		MinY:       binary.LittleEndian.Uint64(data[16:24]),
		Expiration: int64(binary.LittleEndian.Uint64(data[24:32])),
	}
	if args.Amount == 0 {
		return nil, ErrInvalidInstructionData
	}
	return args, nil
}

type SwapArgs struct {
	XInput     bool
	Amount     uint64
	MinOut     uint64
	Expiration int64
}

func decodeSwapArgs(data []byte) (*SwapArgs, error) {
	if len(data) != SwapArgsLen {
		return nil, ErrInvalidInstructionData
	}
	if data[0] > 1 {
		return nil, ErrInvalidInstructionData
	}
	args := &SwapArgs{
		XInput:     data[0] == 1,
		Amount:     binary.LittleEndian.Uint64(data[1:9]),
		MinOut:     binary.LittleEndian.Uint64(data[9:17]),
		Expiration: int64(binary.LittleEndian.Uint64(data[17:25])),
	}
	if args.Amount == 0 || args.MinOut == 0 {
		return nil, ErrInvalidInstructionData
	}
	return args, nil
}

type SetStateArgs struct {
	State PoolState
}

func decodeSetStateArgs(data []byte) (*SetStateArgs, error) {
	if len(data) != SetStateArgsLen {
		return nil, ErrInvalidInstructionData
	}
	return &SetStateArgs{State: PoolState(data[0])}, nil
}
