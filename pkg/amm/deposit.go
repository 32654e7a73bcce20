package amm

import (
	"cpamm/pkg/curve"
	"cpamm/pkg/ledger"
	"cpamm/pkg/token"
)

type depositAccounts struct {
	user   *ledger.AccountInfo
	mintLP *ledger.AccountInfo
	vaultX *ledger.AccountInfo
	vaultY *ledger.AccountInfo
	userX  *ledger.AccountInfo
	userY  *ledger.AccountInfo
	userLP *ledger.AccountInfo
	config *ledger.AccountInfo
}

func depositAccountsFrom(accounts []*ledger.AccountInfo) (*depositAccounts, error) {
	if len(accounts) < 8 {
		return nil, ErrNotEnoughAccounts
	}
	return &depositAccounts{
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

// deposit adds liquidity: the caller names the claim-token amount to mint
// and the maximum reserve contributions they tolerate; the curve decides the
// exact contributions. The very first deposit seeds the reserves from the
// maximums directly and sets the initial price.
//
// Account order: user (signer), mint_lp, vault_x, vault_y, user_x, user_y,
// user_lp, config.
func (p *Program) deposit(clock ledger.Clock, data []byte, accounts []*ledger.AccountInfo) error {
	acc, err := depositAccountsFrom(accounts)
	if err != nil {
		return err
	}
	args, err := decodeDepositArgs(data)
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
	if !cfg.State.CanDeposit() {
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
	if _, err := loadTokenAccount(acc.userLP, acc.mintLP.Key, acc.user.Key); err != nil {
		return err
	}
	lpMint, err := loadLPMint(acc.mintLP)
	if err != nil {
		return err
	}

	var x, y uint64
	if lpMint.Supply == 0 && vaultX.Amount == 0 && vaultY.Amount == 0 {
		// Bootstrap: no ratio exists yet, the caller's maximums seed the
		// reserves literally.
		x, y = args.MaxX, args.MaxY
	} else {
		x, y, err = curve.DepositAmounts(args.Amount, vaultX.Amount, vaultY.Amount, lpMint.Supply)
		if err != nil {
			return err
		}
		if x > args.MaxX || y > args.MaxY {
			return ErrSlippageExceeded
		}
	}

	cap, err := p.configCapability(cfg)
	if err != nil {
		return err
	}

	if err := token.Transfer(acc.userX, acc.vaultX, acc.user, x); err != nil {
		return err
	}
	if err := token.Transfer(acc.userY, acc.vaultY, acc.user, y); err != nil {
		return err
	}
	return token.MintToSigned(acc.mintLP, acc.userLP, cap, args.Amount)
}
