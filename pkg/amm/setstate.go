package amm

import (
	"cpamm/pkg/ledger"
)

// setState moves the pool between Initialized, Disabled and WithdrawOnly.
// Only the authority configured at initialization may do so; a pool created
// without one is permanently permissionless and its state is frozen at
// Initialized. Uninitialized is unreachable in either direction.
//
// Account order: authority (signer), config (writable).
func (p *Program) setState(data []byte, accounts []*ledger.AccountInfo) error {
	if len(accounts) < 2 {
		return ErrNotEnoughAccounts
	}
	authority, config := accounts[0], accounts[1]

	args, err := decodeSetStateArgs(data)
	if err != nil {
		return err
	}
	switch args.State {
	case StateInitialized, StateDisabled, StateWithdrawOnly:
	default:
		return ErrInvalidInstructionData
	}

	cfg, err := p.loadConfig(config)
	if err != nil {
		return err
	}
	if cfg.State == StateUninitialized {
		return ErrInvalidState
	}
	if !cfg.HasAuthority() {
		return ErrInvalidAuthority
	}
	if !authority.IsSigner || !authority.Key.Equals(cfg.Authority) {
		return ErrInvalidAuthority
	}

	cfg.State = args.State
	return cfg.Store(config.Account.Data)
}
