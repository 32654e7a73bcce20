package amm

import (
	"cpamm/pkg/curve"
	"cpamm/pkg/ledger"
	"cpamm/pkg/token"
)

type withdrawAccounts struct {
	user   *ledger.AccountInfo
	mintLP *ledger.AccountInfo
	vaultX *ledger.AccountInfo
	vaultY *ledger.AccountInfo
	userX  *ledger.AccountInfo
	userY  *ledger.AccountInfo
	userLP *ledger.AccountInfo
	config *ledger.AccountInfo
}

func withdrawAccountsFrom(accounts []*ledger.AccountInfo) (*withdrawAccounts, error) {
	if len(accounts) < 8 {
		return nil, ErrNotEnoughAccounts
	}
	return &withdrawAccounts{
		user:   accounts[0],
		mintLP: accounts[1],
		vaultX: accounts[2],
		vaultY: accounts[3],
		userX:  accounts[4],
		userY:  accounts[5],
		userLP: accounts[6],
		config: accounts[7],
	}, nil
}

// withdraw burns claim tokens and pays out the proportional reserves.
// Withdrawals stay legal in the withdraw-only state so providers can always
// exit a frozen pool. Burning the whole supply drains the vaults exactly.
//
// Account order: user (signer), mint_lp, vault_x, vault_y, user_x, user_y,
// user_lp, config.
func (p *Program) withdraw(clock ledger.Clock, data []byte, accounts []*ledger.AccountInfo) error {
	acc, err := withdrawAccountsFrom(accounts)
	if err != nil {
		return err
	}
	args, err := decodeWithdrawArgs(data)
	if err != nil {
		return err
	}
	if !acc.user.IsSigner {
		return ErrMissingSignature
	}
	if err := checkExpiry(clock, args.Expiration); err != nil {
		return err
	}

	cfg, err := p.loadConfig(acc.config)
	if err != nil {
		return err
	}
	if !cfg.State.CanWithdraw() {
		return ErrInvalidState
	}
	if err := p.checkLPMint(cfg, acc.config, acc.mintLP); err != nil {
		return err
	}

	vaultX, err := loadTokenAccount(acc.vaultX, cfg.MintX, acc.config.Key)
	if err != nil {
		return err
	}
	vaultY, err := loadTokenAccount(acc.vaultY, cfg.MintY, acc.config.Key)
	if err != nil {
		return err
	}
	if _, err := loadTokenAccount(acc.userX, cfg.MintX, acc.user.Key); err != nil {
		return err
	}
	if _, err := loadTokenAccount(acc.userY, cfg.MintY, acc.user.Key); err != nil {
		return err
	}
	userLP, err := loadTokenAccount(acc.userLP, acc.mintLP.Key, acc.user.Key)
	if err != nil {
		return err
	}
	lpMint, err := loadLPMint(acc.mintLP)
	if err != nil {
		return err
	}
	if userLP.Amount < args.Amount {
		return token.ErrInsufficientFunds
	}

	x, y, err := curve.WithdrawAmounts(args.Amount, vaultX.Amount, vaultY.Amount, lpMint.Supply)
	if err != nil {
		return err
	}
	if x < args.MinX || y < args.MinY {
		return ErrSlippageExceeded
	}

	cap, err := p.configCapability(cfg)
	if err != nil {
		return err
	}

	if err := token.Burn(acc.mintLP, acc.userLP, acc.user, args.Amount); err != nil {
		return err
	}
	if err := token.TransferSigned(acc.vaultX, acc.userX, cap, x); err != nil {
		return err
	}
	return token.TransferSigned(acc.vaultY, acc.userY, cap, y)
}
