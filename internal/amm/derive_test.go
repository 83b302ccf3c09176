package amm

import (
	"bytes"
	"testing"
)

func TestSeedBytes(t *testing.T) {
	got := SeedBytes(1111)
	want := []byte{0x57, 0x04, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("seed bytes mismatch: %x != %x", got, want)
	}
}

func TestDeriveDeterministic(t *testing.T) {
	a, err := Derive(testProgram, 1111, testMintX, testMintY)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := Derive(testProgram, 1111, testMintX, testMintY)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a != b {
		t.Fatalf("derivation is not deterministic: %+v != %+v", a, b)
	}

	distinct := map[string]bool{
		a.Config.String(): true,
		a.LPMint.String(): true,
		a.VaultX.String(): true,
		a.VaultY.String(): true,
	}
	if len(distinct) != 4 {
		t.Fatalf("derived addresses collide: %+v", a)
	}
}

func TestDeriveKeysOnSeedAndPair(t *testing.T) {
	base, err := Derive(testProgram, 1111, testMintX, testMintY)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	otherSeed, err := Derive(testProgram, 1112, testMintX, testMintY)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if otherSeed.Config.Equals(base.Config) {
		t.Fatalf("different seeds share a config address")
	}

	swapped, err := Derive(testProgram, 1111, testMintY, testMintX)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !swapped.Config.Equals(base.Config) || !swapped.LPMint.Equals(base.LPMint) {
		t.Fatalf("reversed pair derives a different pool: %s vs %s", swapped.Config, base.Config)
	}
	if !swapped.VaultX.Equals(base.VaultY) || !swapped.VaultY.Equals(base.VaultX) {
		t.Fatalf("reversed pair vaults do not follow the mint labels")
	}

	otherProgram, err := Derive(testAdmin, 1111, testMintX, testMintY)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if otherProgram.Config.Equals(base.Config) {
		t.Fatalf("different programs share a config address")
	}
}
