// Package ledger provides the account substrate the pool engine runs
// against: a mapping from address to (owner, lamports, byte buffer) with
// all-or-nothing execution. Handlers mutate account buffers in place; if a
// handler returns an error the ledger restores every touched account, so no
// operation can partially apply.
package ledger

import (
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// Rent parameters for the minimum balance of a freshly created account,
// matching the substrate's 2-year exemption threshold.
const (
	lamportsPerByteYear = 3_480
	rentExemptionYears  = 2
	accountOverhead     = 128
)

// Account is the stored state behind an address.
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Exists reports whether the address has been allocated. An account with no
// balance and no data is indistinguishable from one never seen.
func (a *Account) Exists() bool {
	return a.Lamports != 0 || len(a.Data) != 0
}

// AccountInfo is a per-invocation view of an account: the stored state plus
// the signer/writable flags the caller presented it with.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	Account    *Account
}

// Ledger is an in-memory substrate. A single mutex serializes executions;
// the engine itself holds no locks.
type Ledger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*Account
	clock    Clock
}

func New(clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Ledger{
		accounts: make(map[solana.PublicKey]*Account),
		clock:    clock,
	}
}

func (l *Ledger) Clock() Clock {
	return l.clock
}

// View returns an invocation view of the account at key, materializing an
// empty account if the address has never been touched. The returned view
// aliases ledger state and is only valid inside an Execute callback or
// single-threaded test code.
func (l *Ledger) View(key solana.PublicKey, signer, writable bool) *AccountInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &AccountInfo{
		Key:        key,
		IsSigner:   signer,
		IsWritable: writable,
		Account:    l.account(key),
	}
}

func (l *Ledger) account(key solana.PublicKey) *Account {
	acct, ok := l.accounts[key]
	if !ok {
		acct = &Account{}
		l.accounts[key] = acct
	}
	return acct
}

// MinimumBalance returns the lamports a new account of the given size is
// funded with.
func MinimumBalance(space int) uint64 {
	return uint64(accountOverhead+space) * lamportsPerByteYear * rentExemptionYears
}

// Create allocates the account behind info: assigns the owner, sizes the
// data buffer and funds the minimum balance. Fails if the address is
// already occupied.
func Create(info *AccountInfo, owner solana.PublicKey, space int) error {
	if info.Account.Exists() {
		return ErrAccountExists
	}
	info.Account.Owner = owner
	info.Account.Data = make([]byte, space)
	info.Account.Lamports = MinimumBalance(space)
	return nil
}

// Execute runs fn as one atomic unit. Executions are serialized; if fn
// returns an error every account is restored to its pre-execution state and
// the error is returned unchanged.
func (l *Ledger) Execute(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[solana.PublicKey]Account, len(l.accounts))
	for key, acct := range l.accounts {
		saved := *acct
		saved.Data = append([]byte(nil), acct.Data...)
		snapshot[key] = saved
	}

	err := fn()
	if err == nil {
		return nil
	}

	for key, acct := range l.accounts {
		if saved, ok := snapshot[key]; ok {
			*acct = saved
		} else {
			// Materialized during the failed execution; views keep
			// working but the address reads as untouched again.
			*acct = Account{}
			delete(l.accounts, key)
		}
	}
	return err
}
