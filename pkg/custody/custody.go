// Package custody derives the program addresses a pool owns its vaults and
// claim-token mint through, and models the authority over them as an explicit
// capability value. A Capability can only be obtained by re-deriving the
// address from the public seed material, so the settlement primitives can
// demand one instead of a private-key signature.
package custody

import (
	"encoding/binary"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidSeeds = errors.New("derived address mismatch")

// Seed prefixes for the two pool-owned addresses.
const (
	ConfigSeedPrefix = "config"
	LPMintSeedPrefix = "mint_lp"
)

// Capability is proof of authority over accounts owned by a derived address.
// It is only constructible through the derivation functions below; handlers
// pass it to the token primitives to authorize outgoing legs from the pool.
type Capability struct {
	address solana.PublicKey
}

// Address returns the derived address this capability speaks for.
func (c Capability) Address() solana.PublicKey {
	return c.address
}

// ConfigSeeds returns the seed tuple for a pool's config address, bump
// excluded. Every derivation goes through here so the tuple cannot drift
// between call sites.
func ConfigSeeds(seed uint64, mintX, mintY solana.PublicKey) [][]byte {
	seedLE := make([]byte, 8)
	binary.LittleEndian.PutUint64(seedLE, seed)
	return [][]byte{
		[]byte(ConfigSeedPrefix),
		seedLE,
		mintX.Bytes(),
		mintY.Bytes(),
	}
}

// DeriveConfigAddress finds the canonical config address and bump for the
// given pool parameters.
func DeriveConfigAddress(programID solana.PublicKey, seed uint64, mintX, mintY solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(ConfigSeeds(seed, mintX, mintY), programID)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	return addr, bump, nil
}

// ConfigCapability reconstructs the config capability from stored seed
// material. The single-byte bump must be the canonical one recorded at
// initialization; anything else fails to produce a valid derived address.
func ConfigCapability(programID solana.PublicKey, seed uint64, mintX, mintY solana.PublicKey, bump uint8) (Capability, error) {
	seeds := append(ConfigSeeds(seed, mintX, mintY), []byte{bump})
	addr, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return Capability{}, ErrInvalidSeeds
	}
	return Capability{address: addr}, nil
}

// LPMintSeeds returns the seed tuple for a pool's claim-token mint, bump
// excluded. The mint is keyed off the config address so each pool gets
// exactly one.
func LPMintSeeds(config solana.PublicKey) [][]byte {
	return [][]byte{
		[]byte(LPMintSeedPrefix),
		config.Bytes(),
	}
}

// DeriveLPMintAddress finds the canonical claim-token mint address and bump
// for a config address.
func DeriveLPMintAddress(programID, config solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(LPMintSeeds(config), programID)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	return addr, bump, nil
}

// LPMintCapability reconstructs the claim-token mint capability from the
// config address and the recorded bump.
func LPMintCapability(programID, config solana.PublicKey, bump uint8) (Capability, error) {
	seeds := append(LPMintSeeds(config), []byte{bump})
	addr, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return Capability{}, ErrInvalidSeeds
	}
	return Capability{address: addr}, nil
}
