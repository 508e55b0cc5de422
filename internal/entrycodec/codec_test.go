package entrycodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"keyvault/internal/vaulterrors"
)

func TestSealOpenRoundTrip(t *testing.T) {
	envelope, err := Seal([]byte("correct horse battery staple"), []byte("sk-AAA"), nil)
	require.NoError(t, err)

	pt, err := Open([]byte("correct horse battery staple"), envelope, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("sk-AAA"), pt)
}

func TestOpenWrongPasswordIsAuthFailure(t *testing.T) {
	envelope, err := Seal([]byte("right"), []byte("secret"), nil)
	require.NoError(t, err)

	_, err = Open([]byte("wrong"), envelope, nil)
	require.ErrorIs(t, err, vaulterrors.ErrAuthFailure)
}

func TestOpenCorruptEnvelopeIsInvalidEnvelope(t *testing.T) {
	_, err := Open([]byte("pw"), []byte{0, 1, 2}, nil)
	require.ErrorIs(t, err, vaulterrors.ErrInvalidEnvelope)
}

func TestBitFlipBreaksAuthentication(t *testing.T) {
	envelope, err := Seal([]byte("pw"), []byte("payload-data"), nil)
	require.NoError(t, err)

	for i := range envelope {
		flipped := bytes.Clone(envelope)
		flipped[i] ^= 0xFF
		_, err := Open([]byte("pw"), flipped, nil)
		require.Error(t, err)
	}
}

func TestSealWithKeyAmortizedPath(t *testing.T) {
	password := []byte("rekey-password")
	salt, err := Salt(mustSeal(t, password, "placeholder"))
	require.NoError(t, err)

	key, err := DeriveKey(password, salt)
	require.NoError(t, err)

	e1, err := SealWithKey(key, salt, []byte("entry one"), nil)
	require.NoError(t, err)
	e2, err := SealWithKey(key, salt, []byte("entry two"), nil)
	require.NoError(t, err)

	s1, _ := Salt(e1)
	s2, _ := Salt(e2)
	require.Equal(t, s1, s2, "entries sharing a rekey operation share a salt")

	pt1, err := Open(password, e1, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("entry one"), pt1)

	pt2, err := Open(password, e2, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("entry two"), pt2)
}

func mustSeal(t *testing.T, password []byte, plaintext string) []byte {
	t.Helper()
	envelope, err := Seal(password, []byte(plaintext), nil)
	require.NoError(t, err)
	return envelope
}

func TestAssociatedDataMustMatch(t *testing.T) {
	envelope, err := Seal([]byte("pw"), []byte("payload"), []byte("backup:v1"))
	require.NoError(t, err)

	_, err = Open([]byte("pw"), envelope, nil)
	require.ErrorIs(t, err, vaulterrors.ErrAuthFailure)

	pt, err := Open([]byte("pw"), envelope, []byte("backup:v1"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), pt)
}
