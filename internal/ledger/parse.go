package ledger

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParseKey converts a base58 string into a public key.
func ParseKey(input string) (solana.PublicKey, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return solana.PublicKey{}, fmt.Errorf("empty public key")
	}
	key, err := solana.PublicKeyFromBase58(input)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid public key %s: %w", input, err)
	}
	return key, nil
}

// ParseOptionalKey is ParseKey that maps an empty input to nil.
func ParseOptionalKey(input string) (*solana.PublicKey, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	key, err := ParseKey(input)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
