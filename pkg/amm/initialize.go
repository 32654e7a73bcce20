package amm

import (
	"cpamm/pkg/curve"
	"cpamm/pkg/custody"
	"cpamm/pkg/ledger"
	"cpamm/pkg/token"
)

// initialize creates a pool: the config record and the claim-token mint,
// both at their derived addresses.
//
// Account order: initializer (signer), mint_lp (writable), config (writable).
func (p *Program) initialize(data []byte, accounts []*ledger.AccountInfo) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	initializer, mintLP, config := accounts[0], accounts[1], accounts[2]

	args, err := decodeInitializeArgs(data)
	if err != nil {
		return err
	}
	if !initializer.IsSigner {
		return ErrMissingSignature
	}
	if args.MintX.Equals(args.MintY) || args.MintX.IsZero() || args.MintY.IsZero() {
		return ErrInvalidInstructionData
	}
	if args.FeeBps >= curve.FeeDenominator {
		return ErrInvalidInstructionData
	}
	if config.Account.Exists() {
		return ErrAlreadyInitialized
	}

	// The supplied bumps must re-derive exactly the supplied addresses.
	configCap, err := custody.ConfigCapability(p.ID, args.Seed, args.MintX, args.MintY, args.ConfigBump)
	if err != nil {
		return err
	}
	if !configCap.Address().Equals(config.Key) {
		return custody.ErrInvalidSeeds
	}
	lpCap, err := custody.LPMintCapability(p.ID, config.Key, args.LPBump)
	if err != nil {
		return err
	}
	if !lpCap.Address().Equals(mintLP.Key) {
		return custody.ErrInvalidSeeds
	}

	if err := ledger.Create(config, p.ID, ConfigLen); err != nil {
		return ErrAlreadyInitialized
	}
	cfg := &Config{
		Seed:       args.Seed,
		Authority:  args.Authority,
		MintX:      args.MintX,
		MintY:      args.MintY,
		FeeBps:     args.FeeBps,
		State:      StateInitialized,
		ConfigBump: args.ConfigBump,
		LPBump:     args.LPBump,
	}
	if err := cfg.Store(config.Account.Data); err != nil {
		return err
	}

	// The claim-token mint is controlled by the pool's custody address.
	if err := ledger.Create(mintLP, token.ProgramID, token.MintLen); err != nil {
		return ErrAlreadyInitialized
	}
	return token.InitializeMint(mintLP, config.Key, LPDecimals)
}
