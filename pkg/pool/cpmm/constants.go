package cpmm

import (
	"cpamm/pkg/config"

	"github.com/gagliardetto/solana-go"
)

// ProtocolName identifies this pool flavor to callers juggling several.
const ProtocolName = "cpmm"

// PoolProgramID is the deployed pool program this client targets.
var PoolProgramID = config.GetPoolProgramID()

const (
	// ConfigDataSize is the byte size of the on-chain config record.
	ConfigDataSize = 109

	// TokenAccountDataSize is the byte size of a vault account.
	TokenAccountDataSize = 165

	// TokenAmountOffset is where a vault's balance sits in its account data.
	TokenAmountOffset = 64

	// MintSupplyOffset is where a mint's supply sits in its account data.
	MintSupplyOffset = 36

	// LPDecimals is the fixed precision of the claim-token mint.
	LPDecimals = 6

	// FeeDenominator is the basis-point scale of the config's fee field.
	FeeDenominator = 10_000
)

// FindVaultAddress derives a pool's reserve vault for a mint: the config
// address's associated token account.
func FindVaultAddress(configAddr, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(configAddr, mint)
	return addr, err
}
