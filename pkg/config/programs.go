package config

import (
	"os"

	"github.com/gagliardetto/solana-go"
)

// Well-known companion program addresses, kept in one place so a deployment
// can swap them without hunting literals across packages.
var (
	// SystemProgramID is the account-allocation program.
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

	// TokenProgramID is the settlement program behind every transfer, mint
	// and burn leg.
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenProgramID derives per-holder token accounts.
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// DefaultPoolProgramID is the pool program address assumed when the
// environment does not name one. Raw bytes rather than base58 so a fork can
// patch the deployment id in one line.
var DefaultPoolProgramID = solana.PublicKeyFromBytes([]byte{
	0x0b, 0x52, 0x9e, 0x41, 0xd6, 0x07, 0x6a, 0x2f,
	0x13, 0xc8, 0x55, 0xe0, 0x3b, 0x74, 0x8d, 0x96,
	0xaa, 0x21, 0xfe, 0x4c, 0x60, 0xb3, 0x17, 0xd9,
	0x82, 0x5d, 0x38, 0xef, 0x04, 0xc6, 0x71, 0x2b,
})

// GetPoolProgramID returns the pool program address for this deployment,
// honoring a POOL_PROGRAM_ID override.
func GetPoolProgramID() solana.PublicKey {
	if v := os.Getenv("POOL_PROGRAM_ID"); v != "" {
		if pk, err := solana.PublicKeyFromBase58(v); err == nil {
			return pk
		}
	}
	return DefaultPoolProgramID
}
