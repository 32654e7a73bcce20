// Package amm is the pool engine: the config state machine, the instruction
// argument codecs and the four pool operations, executed against the ledger
// substrate with settlement legs going through the token primitives. Pricing
// is delegated to pkg/curve and custody proofs to pkg/custody; every
// invariant is validated before the first balance mutation.
package amm

import (
	"github.com/gagliardetto/solana-go"

	"cpamm/pkg/custody"
	"cpamm/pkg/ledger"
	"cpamm/pkg/token"
)

// LPDecimals is the fixed fractional precision of the claim-token mint.
const LPDecimals = 6

// Program executes pool instructions. One value serves any number of pools;
// all pool identity lives in the accounts an instruction is submitted with.
type Program struct {
	ID solana.PublicKey
}

func NewProgram(id solana.PublicKey) *Program {
	return &Program{ID: id}
}

// Execute runs a single instruction as one atomic unit against the ledger.
// The payload starts with the one-byte discriminator; accounts follow the
// per-instruction order documented on each handler.
func (p *Program) Execute(l *ledger.Ledger, data []byte, accounts []*ledger.AccountInfo) error {
	return l.Execute(func() error {
		return p.process(l.Clock(), data, accounts)
	})
}

func (p *Program) process(clock ledger.Clock, data []byte, accounts []*ledger.AccountInfo) error {
	if len(data) == 0 {
		return ErrInvalidInstructionData
	}
	switch data[0] {
	case InstructionInitialize:
		return p.initialize(data[1:], accounts)
	case InstructionDeposit:
		return p.deposit(clock, data[1:], accounts)
	case InstructionWithdraw:
		return p.withdraw(clock, data[1:], accounts)
	case InstructionSwap:
		return p.swap(clock, data[1:], accounts)
	case InstructionSetState:
		return p.setState(data[1:], accounts)
	default:
		return ErrUnknownInstruction
	}
}

// loadConfig reads the config record out of a program-owned account.
func (p *Program) loadConfig(info *ledger.AccountInfo) (*Config, error) {
	if !info.Account.Owner.Equals(p.ID) {
		return nil, ErrAccountMismatch
	}
	return DecodeConfig(info.Account.Data)
}

// configCapability rebuilds the pool's custody capability from the stored
// seed material. All handlers authorize outgoing legs through this one path.
func (p *Program) configCapability(cfg *Config) (custody.Capability, error) {
	return custody.ConfigCapability(p.ID, cfg.Seed, cfg.MintX, cfg.MintY, cfg.ConfigBump)
}

// checkLPMint verifies the supplied claim-token mint is the one derived for
// this pool.
func (p *Program) checkLPMint(cfg *Config, config, mintLP *ledger.AccountInfo) error {
	cap, err := custody.LPMintCapability(p.ID, config.Key, cfg.LPBump)
	if err != nil {
		return err
	}
	if !cap.Address().Equals(mintLP.Key) {
		return custody.ErrInvalidSeeds
	}
	return nil
}

func checkExpiry(clock ledger.Clock, expiration int64) error {
	if clock.Unix() > expiration {
		return ErrExpired
	}
	return nil
}

// loadTokenAccount decodes a holding account and pins it to the expected
// mint and holder, rejecting forged vaults and wrong-pool accounts.
func loadTokenAccount(info *ledger.AccountInfo, mint, holder solana.PublicKey) (*token.Account, error) {
	if !info.Account.Owner.Equals(token.ProgramID) {
		return nil, ErrAccountMismatch
	}
	acc, err := token.DecodeAccount(info.Account.Data)
	if err != nil {
		return nil, err
	}
	if acc.State != token.AccountInitialized {
		return nil, token.ErrUninitialized
	}
	if !acc.Mint.Equals(mint) || !acc.Owner.Equals(holder) {
		return nil, ErrAccountMismatch
	}
	return acc, nil
}

// loadLPMint decodes the claim-token mint account.
func loadLPMint(info *ledger.AccountInfo) (*token.Mint, error) {
	if !info.Account.Owner.Equals(token.ProgramID) {
		return nil, ErrAccountMismatch
	}
	m, err := token.DecodeMint(info.Account.Data)
	if err != nil {
		return nil, err
	}
	if !m.Initialized {
		return nil, token.ErrUninitialized
	}
	return m, nil
}
