// Package entrycodec implements the Entry Codec (spec.md §4.3): encrypting
// and decrypting a single secret string to and from a portable envelope
// byte string.
//
// Envelope layout (all big-endian):
//
//	magic(2) | version(1) | salt(16) | nonce(12) | ciphertext_and_tag(n+16)
//
// This is audit-critical code: the layout is a durable on-disk format and
// must not change incompatibly.
package entrycodec

import (
	"keyvault/internal/vaultcrypto"
	"keyvault/internal/vaulterrors"
)

// Magic identifies a keyvault entry envelope.
var Magic = [2]byte{'K', 'V'}

// Version is the current envelope format version.
const Version byte = 1

const (
	magicSize   = 2
	versionSize = 1
	headerSize  = magicSize + versionSize + vaultcrypto.SaltSize
)

// Seal derives a fresh per-entry key from password and a freshly generated
// salt, then encrypts plaintext under AES-256-GCM with a fresh nonce. aad is
// bound into the authentication tag but never stored encrypted (spec.md
// §4.1: associated data is empty for entry envelopes; callers pass nil).
func Seal(password, plaintext, aad []byte) ([]byte, error) {
	salt, err := vaultcrypto.NewSalt()
	if err != nil {
		return nil, err
	}
	key, err := vaultcrypto.DeriveKey(password, salt, vaultcrypto.KDFIterations)
	if err != nil {
		return nil, err
	}
	defer vaultcrypto.Zeroize(key)

	return sealWithKeyAndSalt(key, salt, plaintext, aad)
}

// DeriveKey runs the same KDF Seal would, exposed so a bulk operation (e.g.
// password change, import re-keying) can derive the key once and reuse it
// across many SealWithKey calls instead of repeating the expensive PBKDF2
// pass for every entry.
func DeriveKey(password, salt []byte) ([]byte, error) {
	return vaultcrypto.DeriveKey(password, salt, vaultcrypto.KDFIterations)
}

// SealWithKey encrypts plaintext using an already-derived key and the salt
// it was derived from (see DeriveKey). Every call still generates a fresh
// random nonce, so AEAD uniqueness holds even when many entries share a
// salt after a bulk rekey — salt uniqueness only matters for the KDF, nonce
// uniqueness is what AES-GCM actually requires. The externally observable
// envelope layout is identical to Seal's output.
func SealWithKey(key, salt, plaintext, aad []byte) ([]byte, error) {
	return sealWithKeyAndSalt(key, salt, plaintext, aad)
}

func sealWithKeyAndSalt(key, salt, plaintext, aad []byte) ([]byte, error) {
	if len(salt) != vaultcrypto.SaltSize {
		return nil, vaulterrors.ErrInvalidEnvelope
	}
	body, err := vaultcrypto.Seal(key, plaintext, aad)
	if err != nil {
		return nil, err
	}

	envelope := make([]byte, 0, headerSize+len(body))
	envelope = append(envelope, Magic[:]...)
	envelope = append(envelope, Version)
	envelope = append(envelope, salt...)
	envelope = append(envelope, body...)
	return envelope, nil
}

// Open parses envelope, re-derives the key from password and the embedded
// salt, and decrypts. A tag mismatch surfaces as ErrAuthFailure — the sole
// signal that password is wrong for this specific envelope — distinct from
// ErrInvalidEnvelope, which indicates truncation or an unknown version.
func Open(password, envelope, aad []byte) ([]byte, error) {
	salt, body, err := split(envelope)
	if err != nil {
		return nil, err
	}

	key, err := vaultcrypto.DeriveKey(password, salt, vaultcrypto.KDFIterations)
	if err != nil {
		return nil, err
	}
	defer vaultcrypto.Zeroize(key)

	return vaultcrypto.Open(key, body, aad)
}

// OpenWithKey decrypts envelope using an already-derived key, skipping the
// KDF pass entirely (see DeriveKey/SealWithKey). The caller is responsible
// for ensuring key was in fact derived from the salt embedded in envelope —
// this is the counterpart bulk operations (a cached session key, a batch
// rekey) use to amortize PBKDF2 across many envelopes instead of paying it
// per call the way Open does.
func OpenWithKey(key, envelope, aad []byte) ([]byte, error) {
	_, body, err := split(envelope)
	if err != nil {
		return nil, err
	}
	return vaultcrypto.Open(key, body, aad)
}

// split validates framing and returns the embedded salt and the
// nonce||ciphertext||tag body.
func split(envelope []byte) (salt, body []byte, err error) {
	if len(envelope) < headerSize {
		return nil, nil, vaulterrors.ErrInvalidEnvelope
	}
	if envelope[0] != Magic[0] || envelope[1] != Magic[1] {
		return nil, nil, vaulterrors.ErrInvalidEnvelope
	}
	if envelope[2] != Version {
		return nil, nil, vaulterrors.ErrInvalidEnvelope
	}
	salt = envelope[magicSize+versionSize : headerSize]
	body = envelope[headerSize:]
	return salt, body, nil
}

// Salt extracts the per-entry salt from envelope without decrypting,
// useful for diagnostics and for confirming two envelopes share a salt
// (e.g. after a bulk rekey) without touching key material.
func Salt(envelope []byte) ([]byte, error) {
	salt, _, err := split(envelope)
	return salt, err
}
