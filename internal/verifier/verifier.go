// Package verifier implements the Password Verifier (spec.md §4.2): a way
// to confirm a candidate master password is correct without ever storing
// the password itself, and without the stored bytes being a usable
// wrapping key.
package verifier

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"keyvault/internal/vaultcrypto"
	"keyvault/internal/vaulterrors"
)

// verifierLabel separates the verifier tag from any key used to wrap
// entries, so that a leaked verifier cannot be repurposed as a decryption
// key (spec.md §4.2 rationale).
const verifierLabel = "keyvault:verifier:v1"

// tagSize is the SHA3-256 output size used for the stored tag.
const tagSize = 32

// Stored layout: salt(16) || iterations(4, big-endian) || tag(32).
// Recording the iteration count inline (rather than assuming the build
// constant) makes verification parameter-agnostic across a future raise of
// vaultcrypto.KDFIterations, per spec.md §4.1.
const (
	saltOffset       = 0
	iterationsOffset = saltOffset + vaultcrypto.SaltSize
	tagOffset        = iterationsOffset + 4
	storedSize       = tagOffset + tagSize
)

// Install derives a fresh salt and verification tag for password and
// returns the bytes to persist as Vault.Verifier. Called exactly once, at
// initialize().
func Install(password []byte) ([]byte, error) {
	salt, err := vaultcrypto.NewSalt()
	if err != nil {
		return nil, err
	}
	return installWithSalt(password, salt, vaultcrypto.KDFIterations)
}

func installWithSalt(password, salt []byte, iterations int) ([]byte, error) {
	tag, err := deriveTag(password, salt, iterations)
	if err != nil {
		return nil, err
	}
	defer vaultcrypto.Zeroize(tag)

	out := make([]byte, storedSize)
	copy(out[saltOffset:], salt)
	binary.BigEndian.PutUint32(out[iterationsOffset:], uint32(iterations))
	copy(out[tagOffset:], tag)
	return out, nil
}

// Verify checks password against previously installed verifier bytes,
// using constant-time comparison throughout.
func Verify(stored, password []byte) (bool, error) {
	salt, iterations, wantTag, err := parse(stored)
	if err != nil {
		return false, err
	}
	gotTag, err := deriveTag(password, salt, iterations)
	if err != nil {
		return false, err
	}
	defer vaultcrypto.Zeroize(gotTag)

	return vaultcrypto.CtEq(wantTag, gotTag), nil
}

// Salt returns the salt embedded in stored verifier bytes, so the Entry
// Codec (or a bulk rekey operation) can reuse it for amortized per-entry
// key derivation (spec.md §4.3).
func Salt(stored []byte) ([]byte, error) {
	salt, _, _, err := parse(stored)
	return salt, err
}

// Iterations returns the iteration count embedded in stored verifier bytes.
func Iterations(stored []byte) (int, error) {
	_, iterations, _, err := parse(stored)
	return iterations, err
}

func parse(stored []byte) (salt []byte, iterations int, tag []byte, err error) {
	if len(stored) != storedSize {
		return nil, 0, nil, vaulterrors.ErrInvalidEnvelope
	}
	salt = stored[saltOffset:iterationsOffset]
	iterations = int(binary.BigEndian.Uint32(stored[iterationsOffset:tagOffset]))
	tag = stored[tagOffset:]
	return salt, iterations, tag, nil
}

func deriveTag(password, salt []byte, iterations int) ([]byte, error) {
	baseKey, err := vaultcrypto.DeriveKey(password, salt, iterations)
	if err != nil {
		return nil, err
	}
	defer vaultcrypto.Zeroize(baseKey)

	h := sha3.New256()
	h.Write(baseKey)
	h.Write([]byte(verifierLabel))
	return h.Sum(nil), nil
}
