package amm

import (
	"cpamm/pkg/curve"
	"cpamm/pkg/ledger"
	"cpamm/pkg/token"
)

type swapAccounts struct {
	user   *ledger.AccountInfo
	userX  *ledger.AccountInfo
	userY  *ledger.AccountInfo
	vaultX *ledger.AccountInfo
	vaultY *ledger.AccountInfo
	config *ledger.AccountInfo
}

func swapAccountsFrom(accounts []*ledger.AccountInfo) (*swapAccounts, error) {
	if len(accounts) < 6 {
		return nil, ErrNotEnoughAccounts
	}
	return &swapAccounts{
		user:   accounts[0],
		userX:  accounts[1],
		userY:  accounts[2],
		vaultX: accounts[3],
		vaultY: accounts[4],
		config: accounts[5],
	}, nil
}

// swap trades one reserve for the other at the constant-product price, fee
// deducted from the input side. The declared input side picks which vault
// receives and which pays out; both vaults are pinned to the config's mints
// so a forged vault cannot skew the price.
//
// Account order: user (signer), user_x, user_y, vault_x, vault_y, config.
func (p *Program) swap(clock ledger.Clock, data []byte, accounts []*ledger.AccountInfo) error {
	acc, err := swapAccountsFrom(accounts)
	if err != nil {
		return err
	}
	args, err := decodeSwapArgs(data)
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
	if !cfg.State.CanSwap() {
		return ErrInvalidState
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

	var reserveIn, reserveOut uint64
	if args.XInput {
		reserveIn, reserveOut = vaultX.Amount, vaultY.Amount
	} else {
		reserveIn, reserveOut = vaultY.Amount, vaultX.Amount
	}

	result, err := curve.SwapAmounts(args.Amount, reserveIn, reserveOut, cfg.FeeBps)
	if err != nil {
		return err
	}
	if result.Withdraw < args.MinOut {
		return ErrSlippageExceeded
	}

	cap, err := p.configCapability(cfg)
	if err != nil {
		return err
	}

	if args.XInput {
		if err := token.Transfer(acc.userX, acc.vaultX, acc.user, result.Deposit); err != nil {
			return err
		}
		return token.TransferSigned(acc.vaultY, acc.userY, cap, result.Withdraw)
	}
	if err := token.Transfer(acc.userY, acc.vaultY, acc.user, result.Deposit); err != nil {
		return err
	}
	return token.TransferSigned(acc.vaultX, acc.userX, cap, result.Withdraw)
}
