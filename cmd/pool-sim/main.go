package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gagliardetto/solana-go"

	"cpamm/pkg/amm"
	"cpamm/pkg/custody"
	"cpamm/pkg/ledger"
	"cpamm/pkg/pool/cpmm"
	"cpamm/pkg/token"
)

var (
	feeBps     = flag.Int("fee", 30, "Swap fee in basis points")
	seed       = flag.Uint64("seed", 1, "Pool seed")
	depositX   = flag.Uint64("x", 1_000_000_000, "Bootstrap deposit of token X")
	depositY   = flag.Uint64("y", 500_000_000, "Bootstrap deposit of token Y")
	bootstrap  = flag.Uint64("lp", 200_000_000, "Claim tokens minted by the bootstrap deposit")
	swapIn     = flag.Uint64("swap", 100_000_000, "Swap input amount")
	swapYInput = flag.Bool("yinput", false, "Swap token Y for token X instead of X for Y")
	withdrawLP = flag.Uint64("withdraw", 0, "Claim tokens to burn at the end (0 = all)")
	pause      = flag.Bool("pause", false, "Move the pool to withdraw-only before the final withdrawal")
)

// sim drives a pool program against an in-memory ledger.
type sim struct {
	led     *ledger.Ledger
	clock   *ledger.ManualClock
	program *amm.Program

	mintX  solana.PublicKey
	mintY  solana.PublicKey
	mintLP solana.PublicKey
	config solana.PublicKey
	vaultX solana.PublicKey
	vaultY solana.PublicKey

	alice solana.PublicKey // liquidity provider and pool authority
	bob   solana.PublicKey // trader
}

func main() {
	flag.Parse()

	s, err := setup()
	if err != nil {
		log.Fatalf("setup failed: %v", err)
	}

	if err := s.run(); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
}

func setup() (*sim, error) {
	clock := ledger.NewManualClock(1_700_000_000)
	s := &sim{
		led:     ledger.New(clock),
		clock:   clock,
		program: amm.NewProgram(cpmm.PoolProgramID),
		mintX:   solana.NewWallet().PublicKey(),
		mintY:   solana.NewWallet().PublicKey(),
		alice:   solana.NewWallet().PublicKey(),
		bob:     solana.NewWallet().PublicKey(),
	}

	// Both reserve mints are controlled by alice so the sim can seed
	// balances.
	for _, mint := range []solana.PublicKey{s.mintX, s.mintY} {
		info := s.led.View(mint, false, true)
		if err := ledger.Create(info, token.ProgramID, token.MintLen); err != nil {
			return nil, err
		}
		if err := token.InitializeMint(info, s.alice, 6); err != nil {
			return nil, err
		}
	}

	// Holding accounts for both parties, seeded from the mints.
	if err := s.fund(s.alice, s.mintX, *depositX); err != nil {
		return nil, err
	}
	if err := s.fund(s.alice, s.mintY, *depositY); err != nil {
		return nil, err
	}
	inMint, outMint := s.mintX, s.mintY
	if *swapYInput {
		inMint, outMint = s.mintY, s.mintX
	}
	if err := s.fund(s.bob, inMint, *swapIn); err != nil {
		return nil, err
	}
	if err := s.fund(s.bob, outMint, 0); err != nil {
		return nil, err
	}

	return s, nil
}

// fund creates the holder's associated account for mint and mints amount
// into it.
func (s *sim) fund(holder, mint solana.PublicKey, amount uint64) error {
	addr, _, err := solana.FindAssociatedTokenAddress(holder, mint)
	if err != nil {
		return err
	}
	info := s.led.View(addr, false, true)
	if err := ledger.Create(info, token.ProgramID, token.AccountLen); err != nil {
		return err
	}
	if err := token.InitializeAccount(info, mint, holder); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	mintInfo := s.led.View(mint, false, true)
	authority := s.led.View(s.alice, true, false)
	return token.MintTo(mintInfo, info, authority, amount)
}

// execute routes a built instruction into the program, resolving each
// account meta against the ledger.
func (s *sim) execute(inst solana.Instruction) error {
	data, err := inst.Data()
	if err != nil {
		return err
	}
	metas := inst.Accounts()
	infos := make([]*ledger.AccountInfo, len(metas))
	for i, meta := range metas {
		infos[i] = s.led.View(meta.PublicKey, meta.IsSigner, meta.IsWritable)
	}
	return s.program.Execute(s.led, data, infos)
}

func (s *sim) run() error {
	expiration := s.clock.Unix() + 60

	// Create the pool.
	initInst, config, err := cpmm.NewInitializeInstruction(s.alice, *seed, uint16(*feeBps), s.mintX, s.mintY, &s.alice)
	if err != nil {
		return err
	}
	s.config = config
	if err := s.execute(initInst); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	log.Printf("pool initialized at %s (fee %d bps)", config, *feeBps)

	if err := s.createVaults(); err != nil {
		return err
	}

	// Claim accounts for both parties.
	for _, holder := range []solana.PublicKey{s.alice, s.bob} {
		if err := s.createClaimAccount(holder); err != nil {
			return err
		}
	}

	// Bootstrap deposit by alice.
	depInst, err := cpmm.NewDepositInstruction(s.alice, s.config, s.mintX, s.mintY, *bootstrap, *depositX, *depositY, expiration)
	if err != nil {
		return err
	}
	if err := s.execute(depInst); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	log.Printf("bootstrap deposit: %d claims for %d X + %d Y", *bootstrap, *depositX, *depositY)
	s.printBalances("after deposit")

	// Swap by bob.
	swapInst, err := cpmm.NewSwapInstruction(s.bob, s.config, s.mintX, s.mintY, !*swapYInput, *swapIn, 1, expiration)
	if err != nil {
		return err
	}
	if err := s.execute(swapInst); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	log.Printf("swap: %d in", *swapIn)
	s.printBalances("after swap")

	if *pause {
		stateInst, err := cpmm.NewSetStateInstruction(s.alice, s.config, amm.StateWithdrawOnly)
		if err != nil {
			return err
		}
		if err := s.execute(stateInst); err != nil {
			return fmt.Errorf("set state: %w", err)
		}
		log.Printf("pool moved to withdraw-only")

		retry, err := cpmm.NewSwapInstruction(s.bob, s.config, s.mintX, s.mintY, !*swapYInput, 1, 1, expiration)
		if err != nil {
			return err
		}
		if err := s.execute(retry); errors.Is(err, amm.ErrInvalidState) {
			log.Printf("swap rejected while withdraw-only, as expected")
		} else if err != nil {
			return fmt.Errorf("swap while paused: %w", err)
		} else {
			return fmt.Errorf("swap unexpectedly succeeded while withdraw-only")
		}
	}

	// Withdraw by alice.
	burn := *withdrawLP
	if burn == 0 {
		burn = s.claimBalance(s.alice)
	}
	wdInst, err := cpmm.NewWithdrawInstruction(s.alice, s.config, s.mintX, s.mintY, burn, 0, 0, expiration)
	if err != nil {
		return err
	}
	if err := s.execute(wdInst); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	log.Printf("withdraw: %d claims burned", burn)
	s.printBalances("after withdraw")

	return nil
}

// createVaults allocates the pool's reserve accounts, held by the config
// address.
func (s *sim) createVaults() error {
	var err error
	if s.vaultX, err = cpmm.FindVaultAddress(s.config, s.mintX); err != nil {
		return err
	}
	if s.vaultY, err = cpmm.FindVaultAddress(s.config, s.mintY); err != nil {
		return err
	}
	for _, pair := range []struct {
		vault solana.PublicKey
		mint  solana.PublicKey
	}{{s.vaultX, s.mintX}, {s.vaultY, s.mintY}} {
		info := s.led.View(pair.vault, false, true)
		if err := ledger.Create(info, token.ProgramID, token.AccountLen); err != nil {
			return err
		}
		if err := token.InitializeAccount(info, pair.mint, s.config); err != nil {
			return err
		}
	}

	mintLP, _, err := custody.DeriveLPMintAddress(cpmm.PoolProgramID, s.config)
	if err != nil {
		return err
	}
	s.mintLP = mintLP
	return nil
}

func (s *sim) createClaimAccount(holder solana.PublicKey) error {
	addr, _, err := solana.FindAssociatedTokenAddress(holder, s.mintLP)
	if err != nil {
		return err
	}
	info := s.led.View(addr, false, true)
	if err := ledger.Create(info, token.ProgramID, token.AccountLen); err != nil {
		return err
	}
	return token.InitializeAccount(info, s.mintLP, holder)
}

func (s *sim) balance(holder, mint solana.PublicKey) uint64 {
	addr, _, err := solana.FindAssociatedTokenAddress(holder, mint)
	if err != nil {
		return 0
	}
	info := s.led.View(addr, false, false)
	acc, err := token.DecodeAccount(info.Account.Data)
	if err != nil {
		return 0
	}
	return acc.Amount
}

func (s *sim) claimBalance(holder solana.PublicKey) uint64 {
	return s.balance(holder, s.mintLP)
}

func (s *sim) vaultBalance(vault solana.PublicKey) uint64 {
	info := s.led.View(vault, false, false)
	acc, err := token.DecodeAccount(info.Account.Data)
	if err != nil {
		return 0
	}
	return acc.Amount
}

func (s *sim) printBalances(label string) {
	w := os.Stdout
	fmt.Fprintf(w, "--- %s ---\n", label)
	fmt.Fprintf(w, "%-8s %14s %14s %14s\n", "", "X", "Y", "claims")
	fmt.Fprintf(w, "%-8s %14d %14d %14d\n", "vaults", s.vaultBalance(s.vaultX), s.vaultBalance(s.vaultY), 0)
	fmt.Fprintf(w, "%-8s %14d %14d %14d\n", "alice", s.balance(s.alice, s.mintX), s.balance(s.alice, s.mintY), s.claimBalance(s.alice))
	fmt.Fprintf(w, "%-8s %14d %14d %14d\n", "bob", s.balance(s.bob, s.mintX), s.balance(s.bob, s.mintY), s.claimBalance(s.bob))
}
