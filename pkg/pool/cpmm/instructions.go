package cpmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"cpamm/pkg/amm"
	"cpamm/pkg/custody"
)

// DerivePoolAddress returns the config address and bump for a pool keyed by
// (seed, mintX, mintY).
func DerivePoolAddress(seed uint64, mintX, mintY solana.PublicKey) (solana.PublicKey, uint8, error) {
	return custody.DeriveConfigAddress(PoolProgramID, seed, mintX, mintY)
}

// poolAddresses bundles every derived address an instruction needs.
type poolAddresses struct {
	config solana.PublicKey
	mintLP solana.PublicKey
	vaultX solana.PublicKey
	vaultY solana.PublicKey
}

func deriveAddresses(config, mintX, mintY solana.PublicKey) (*poolAddresses, error) {
	mintLP, _, err := custody.DeriveLPMintAddress(PoolProgramID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to derive lp mint: %w", err)
	}
	vaultX, err := FindVaultAddress(config, mintX)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault x: %w", err)
	}
	vaultY, err := FindVaultAddress(config, mintY)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault y: %w", err)
	}
	return &poolAddresses{config: config, mintLP: mintLP, vaultX: vaultX, vaultY: vaultY}, nil
}

func userTokenAccounts(user, mintX, mintY, mintLP solana.PublicKey) (x, y, lp solana.PublicKey, err error) {
	if x, _, err = solana.FindAssociatedTokenAddress(user, mintX); err != nil {
		return
	}
	if y, _, err = solana.FindAssociatedTokenAddress(user, mintY); err != nil {
		return
	}
	lp, _, err = solana.FindAssociatedTokenAddress(user, mintLP)
	return
}

// InitializeInstruction creates a pool config and its claim-token mint.
type InitializeInstruction struct {
	bin.BaseVariant
	Seed       uint64
	FeeBps     uint16
	MintX      solana.PublicKey
	MintY      solana.PublicKey
	ConfigBump uint8
	LPBump     uint8
	Authority  *solana.PublicKey

	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

// NewInitializeInstruction builds the initialize call. A nil authority makes
// the pool permanently permissionless. The pool address is returned so the
// caller can follow up with deposits.
func NewInitializeInstruction(
	initializer solana.PublicKey,
	seed uint64,
	feeBps uint16,
	mintX, mintY solana.PublicKey,
	authority *solana.PublicKey,
) (solana.Instruction, solana.PublicKey, error) {
	config, configBump, err := DerivePoolAddress(seed, mintX, mintY)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to derive pool address: %w", err)
	}
	mintLP, lpBump, err := custody.DeriveLPMintAddress(PoolProgramID, config)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to derive lp mint: %w", err)
	}

	inst := &InitializeInstruction{
		Seed:       seed,
		FeeBps:     feeBps,
		MintX:      mintX,
		MintY:      mintY,
		ConfigBump: configBump,
		LPBump:     lpBump,
		Authority:  authority,
	}
	inst.BaseVariant = bin.BaseVariant{Impl: inst}
	inst.AccountMetaSlice = solana.AccountMetaSlice{
		solana.NewAccountMeta(initializer, true, true),
		solana.NewAccountMeta(mintLP, true, false),
		solana.NewAccountMeta(config, true, false),
	}
	return inst, config, nil
}

func (inst *InitializeInstruction) ProgramID() solana.PublicKey {
	return PoolProgramID
}

func (inst *InitializeInstruction) Accounts() []*solana.AccountMeta {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *InitializeInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(amm.InstructionInitialize)
	if err := binary.Write(buf, binary.LittleEndian, inst.Seed); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, inst.FeeBps); err != nil {
		return nil, err
	}
	buf.Write(inst.MintX.Bytes())
	buf.Write(inst.MintY.Bytes())
	buf.WriteByte(inst.ConfigBump)
	buf.WriteByte(inst.LPBump)
	if inst.Authority != nil {
		buf.Write(inst.Authority.Bytes())
	}
	return buf.Bytes(), nil
}

// DepositInstruction adds liquidity for a claim-token amount.
type DepositInstruction struct {
	bin.BaseVariant
	Amount     uint64
	MaxX       uint64
	MaxY       uint64
	Expiration int64

	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func NewDepositInstruction(
	user, config, mintX, mintY solana.PublicKey,
	amount, maxX, maxY uint64,
	expiration int64,
) (solana.Instruction, error) {
	addrs, err := deriveAddresses(config, mintX, mintY)
	if err != nil {
		return nil, err
	}
	userX, userY, userLP, err := userTokenAccounts(user, mintX, mintY, addrs.mintLP)
	if err != nil {
		return nil, err
	}

	inst := &DepositInstruction{
		Amount:     amount,
		MaxX:       maxX,
		MaxY:       maxY,
		Expiration: expiration,
	}
	inst.BaseVariant = bin.BaseVariant{Impl: inst}
	inst.AccountMetaSlice = solana.AccountMetaSlice{
		solana.NewAccountMeta(user, true, true),
		solana.NewAccountMeta(addrs.mintLP, true, false),
		solana.NewAccountMeta(addrs.vaultX, true, false),
		solana.NewAccountMeta(addrs.vaultY, true, false),
		solana.NewAccountMeta(userX, true, false),
		solana.NewAccountMeta(userY, true, false),
		solana.NewAccountMeta(userLP, true, false),
		solana.NewAccountMeta(config, true, false),
	}
	return inst, nil
}

func (inst *DepositInstruction) ProgramID() solana.PublicKey {
	return PoolProgramID
}

func (inst *DepositInstruction) Accounts() []*solana.AccountMeta {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *DepositInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(amm.InstructionDeposit)
	for _, v := range []uint64{inst.Amount, inst.MaxX, inst.MaxY, uint64(inst.Expiration)} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// WithdrawInstruction burns claim tokens for the proportional reserves.
type WithdrawInstruction struct {
	bin.BaseVariant
	Amount     uint64
	MinX       uint64
	MinY       uint64
	Expiration int64

	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func NewWithdrawInstruction(
	user, config, mintX, mintY solana.PublicKey,
	amount, minX, minY uint64,
	expiration int64,
) (solana.Instruction, error) {
	addrs, err := deriveAddresses(config, mintX, mintY)
	if err != nil {
		return nil, err
	}
	userX, userY, userLP, err := userTokenAccounts(user, mintX, mintY, addrs.mintLP)
	if err != nil {
		return nil, err
	}

	inst := &WithdrawInstruction{
		Amount:     amount,
		MinX:       minX,
		MinY:       minY,
		Expiration: expiration,
	}
	inst.BaseVariant = bin.BaseVariant{Impl: inst}
	inst.AccountMetaSlice = solana.AccountMetaSlice{
		solana.NewAccountMeta(user, true, true),
		solana.NewAccountMeta(addrs.mintLP, true, false),
		solana.NewAccountMeta(addrs.vaultX, true, false),
		solana.NewAccountMeta(addrs.vaultY, true, false),
		solana.NewAccountMeta(userX, true, false),
		solana.NewAccountMeta(userY, true, false),
		solana.NewAccountMeta(userLP, true, false),
		solana.NewAccountMeta(config, true, false),
	}
	return inst, nil
}

func (inst *WithdrawInstruction) ProgramID() solana.PublicKey {
	return PoolProgramID
}

func (inst *WithdrawInstruction) Accounts() []*solana.AccountMeta {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *WithdrawInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(amm.InstructionWithdraw)
	for _, v := range []uint64{inst.Amount, inst.MinX, inst.MinY, uint64(inst.Expiration)} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// SwapInstruction trades one reserve for the other.
type SwapInstruction struct {
	bin.BaseVariant
	XInput     bool
	Amount     uint64
	MinOut     uint64
	Expiration int64

	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func NewSwapInstruction(
	user, config, mintX, mintY solana.PublicKey,
	xInput bool,
	amount, minOut uint64,
	expiration int64,
) (solana.Instruction, error) {
	addrs, err := deriveAddresses(config, mintX, mintY)
	if err != nil {
		return nil, err
	}
	userX, userY, _, err := userTokenAccounts(user, mintX, mintY, addrs.mintLP)
	if err != nil {
		return nil, err
	}

	inst := &SwapInstruction{
		XInput:     xInput,
		Amount:     amount,
		MinOut:     minOut,
		Expiration: expiration,
	}
	inst.BaseVariant = bin.BaseVariant{Impl: inst}
	inst.AccountMetaSlice = solana.AccountMetaSlice{
		solana.NewAccountMeta(user, true, true),
		solana.NewAccountMeta(userX, true, false),
		solana.NewAccountMeta(userY, true, false),
		solana.NewAccountMeta(addrs.vaultX, true, false),
		solana.NewAccountMeta(addrs.vaultY, true, false),
		solana.NewAccountMeta(config, true, false),
	}
	return inst, nil
}

func (inst *SwapInstruction) ProgramID() solana.PublicKey {
	return PoolProgramID
}

func (inst *SwapInstruction) Accounts() []*solana.AccountMeta {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *SwapInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(amm.InstructionSwap)
	if inst.XInput {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	for _, v := range []uint64{inst.Amount, inst.MinOut, uint64(inst.Expiration)} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// SetStateInstruction moves a pool between its administrative states.
type SetStateInstruction struct {
	bin.BaseVariant
	State uint8

	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func NewSetStateInstruction(authority, config solana.PublicKey, state amm.PoolState) (solana.Instruction, error) {
	inst := &SetStateInstruction{State: uint8(state)}
	inst.BaseVariant = bin.BaseVariant{Impl: inst}
	inst.AccountMetaSlice = solana.AccountMetaSlice{
		solana.NewAccountMeta(authority, false, true),
		solana.NewAccountMeta(config, true, false),
	}
	return inst, nil
}

func (inst *SetStateInstruction) ProgramID() solana.PublicKey {
	return PoolProgramID
}

func (inst *SetStateInstruction) Accounts() []*solana.AccountMeta {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *SetStateInstruction) Data() ([]byte, error) {
	return []byte{amm.InstructionSetState, inst.State}, nil
}
