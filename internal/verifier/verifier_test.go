package verifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstallVerifyRoundTrip(t *testing.T) {
	stored, err := Install([]byte("correct horse battery staple"))
	require.NoError(t, err)

	ok, err := Verify(stored, []byte("correct horse battery staple"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify(stored, []byte("wrong"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInstallIsRandomizedPerCall(t *testing.T) {
	a, err := Install([]byte("same password"))
	require.NoError(t, err)
	b, err := Install([]byte("same password"))
	require.NoError(t, err)
	require.NotEqual(t, a, b, "distinct salts should yield distinct stored bytes")
}

func TestSaltAndIterationsRoundTrip(t *testing.T) {
	stored, err := installWithSalt([]byte("pw"), make([]byte, 16), 777)
	require.NoError(t, err)

	salt, err := Salt(stored)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 16), salt)

	iterations, err := Iterations(stored)
	require.NoError(t, err)
	require.Equal(t, 777, iterations)
}

func TestVerifyRejectsMalformedStoredBytes(t *testing.T) {
	_, err := Verify([]byte("too short"), []byte("pw"))
	require.Error(t, err)
}
