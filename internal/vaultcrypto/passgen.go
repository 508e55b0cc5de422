package vaultcrypto

import (
	"crypto/rand"
	"math/big"
)

// secretAlphabet is the 64-character alphanumeric-plus-"-_" set spec.md §6
// names for generate_secret.
const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// GenerateSecret returns a cryptographically secure random string of the
// given length drawn uniformly from secretAlphabet via rejection sampling
// (crypto/rand.Int already rejection-samples internally, so callers get a
// uniform distribution with no modulo bias).
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	alphabetSize := big.NewInt(int64(len(secretAlphabet)))
	out := make([]byte, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		out[i] = secretAlphabet[idx.Int64()]
	}
	return string(out), nil
}
