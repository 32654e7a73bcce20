package amm

import "errors"

// Every failure class the handlers can report. All of them are raised before
// any balance or config mutation, so a failed operation moves no funds.
var (
	// State-conflict: the operation is not legal in the pool's lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current pool state")

	// Argument-invalid.
	ErrInvalidInstructionData = errors.New("malformed instruction data")
	ErrUnknownInstruction     = errors.New("unknown instruction discriminator")
	ErrExpired                = errors.New("instruction deadline has passed")

	// Slippage: computed amounts violate the caller's declared bounds.
	ErrSlippageExceeded = errors.New("computed amounts violate slippage bounds")

	// Authorization.
	ErrMissingSignature = errors.New("required signer missing")
	ErrInvalidAuthority = errors.New("authority signer missing or mismatched")

	// Data-mismatch: a supplied account does not belong to this pool.
	ErrNotEnoughAccounts  = errors.New("not enough accounts supplied")
	ErrAccountMismatch    = errors.New("account does not match pool configuration")
	ErrAlreadyInitialized = errors.New("pool config already initialized")
	ErrInvalidConfig      = errors.New("malformed pool config account")
)
