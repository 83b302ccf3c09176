package amm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Seed prefixes used for address derivation.
var (
	ConfigSeedPrefix = []byte("config")
	LPSeedPrefix     = []byte("lp")
)

// Addresses holds every account derived for one pool.
type Addresses struct {
	Config     solana.PublicKey `json:"config"`
	ConfigBump uint8            `json:"config_bump"`
	LPMint     solana.PublicKey `json:"lp_mint"`
	LPMintBump uint8            `json:"lp_mint_bump"`
	VaultX     solana.PublicKey `json:"vault_x"`
	VaultY     solana.PublicKey `json:"vault_y"`
}

// SeedBytes encodes a pool seed the way it is fed into derivation.
func SeedBytes(seed uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, seed)
	return buf
}

// Derive maps (program, seed, asset pair) to the pool, share-mint and vault
// addresses. It has no side effects and returns the same result for the same
// inputs. The pool address does not depend on which mint is called X, so
// a reversed pair derives the same pool; the vaults still follow the
// caller's labels.
func Derive(programID solana.PublicKey, seed uint64, mintX, mintY solana.PublicKey) (Addresses, error) {
	lo, hi := canonicalPair(mintX, mintY)
	config, configBump, err := solana.FindProgramAddress(
		[][]byte{ConfigSeedPrefix, SeedBytes(seed), lo.Bytes(), hi.Bytes()},
		programID,
	)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive config: %w", err)
	}

	lpMint, lpBump, err := solana.FindProgramAddress([][]byte{LPSeedPrefix, config.Bytes()}, programID)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive lp mint: %w", err)
	}

	vaultX, _, err := solana.FindAssociatedTokenAddress(config, mintX)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive vault x: %w", err)
	}
	vaultY, _, err := solana.FindAssociatedTokenAddress(config, mintY)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive vault y: %w", err)
	}

	return Addresses{
		Config:     config,
		ConfigBump: configBump,
		LPMint:     lpMint,
		LPMintBump: lpBump,
		VaultX:     vaultX,
		VaultY:     vaultY,
	}, nil
}

// canonicalPair orders two mints by their raw bytes.
func canonicalPair(a, b solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}
