// Package vaultcrypto provides the cryptographic primitives the keyvault
// engine is built on: password-based key derivation, AEAD seal/open, random
// nonce/salt generation, constant-time comparison, and secure zeroization.
//
// This is audit-critical code: changes here directly affect confidentiality
// and integrity of every stored secret.
package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"

	"keyvault/internal/vaulterrors"
)

// KDF parameters. The iteration count is a build-time constant: future
// revisions MAY raise it but MUST NOT lower it, and the value actually used
// is always recorded alongside the derived material (see verifier.Verifier)
// so that verification remains parameter-agnostic across a raise.
const (
	KDFIterations = 100_000
	SaltSize      = 16
	KeySize       = 32 // 256-bit key
	NonceSize     = 12 // AES-GCM standard nonce
)

// DeriveKey runs PBKDF2-HMAC-SHA-256 over password and salt, producing a
// KeySize-byte key. iterations must be positive; passing a value that would
// yield a nonsensical derivation is rejected as ErrKdfOverflow.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if iterations <= 0 || iterations > 1<<30 {
		return nil, vaulterrors.ErrKdfOverflow
	}
	if len(salt) == 0 {
		return nil, vaulterrors.ErrKdfOverflow
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha3.New256), nil
}

// RandomBytes generates n cryptographically secure random bytes via
// crypto/rand, with a sanity check that the result is not all zeros (which
// would indicate a broken system RNG rather than legitimate randomness).
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, vaulterrors.Wrap(err, "crypto/rand read failed")
	}
	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero && n > 0 {
		return nil, vaulterrors.Wrap(vaulterrors.ErrKdfOverflow, "crypto/rand produced all-zero output")
	}
	return b, nil
}

// NewSalt generates a fresh SaltSize-byte salt.
func NewSalt() ([]byte, error) { return RandomBytes(SaltSize) }

// NewNonce generates a fresh NonceSize-byte AEAD nonce.
func NewNonce() ([]byte, error) { return RandomBytes(NonceSize) }

// Seal encrypts plaintext under key with a freshly generated nonce using
// AES-256-GCM, returning nonce||ciphertext||tag. aad is bound into the tag
// but not encrypted.
func Seal(key, plaintext, aad []byte) (nonceAndCiphertext []byte, err error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, aad)
	out := make([]byte, 0, len(nonce)+len(ct))
	out = append(out, nonce...)
	out = append(out, ct...)
	return out, nil
}

// Open decrypts a nonce||ciphertext||tag blob produced by Seal. A tag
// mismatch returns ErrAuthFailure; a too-short blob returns
// ErrInvalidEnvelope — these are distinguished per spec so callers never
// conflate "wrong password" with "corrupt data" by observing only one
// signal.
func Open(key, nonceAndCiphertext, aad []byte) ([]byte, error) {
	if len(nonceAndCiphertext) < NonceSize {
		return nil, vaulterrors.ErrInvalidEnvelope
	}
	nonce := nonceAndCiphertext[:NonceSize]
	ct := nonceAndCiphertext[NonceSize:]

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, vaulterrors.ErrAuthFailure
	}
	return pt, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, vaulterrors.ErrKdfOverflow
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "aes.NewCipher")
	}
	return cipher.NewGCM(block)
}

// CtEq compares two byte slices in constant time. An early return on length
// mismatch is permitted by spec.md §4.1 since the comparison still reveals
// nothing about byte content.
func CtEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize overwrites b with zeros in place. Any buffer that has held a
// derived key or plaintext secret must be zeroized before its owner
// releases it; plaintext handed off to a caller becomes the caller's
// responsibility the instant it is returned.
func Zeroize(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zeros)
}
