package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("kata-sandi-rahasia")
	require.NoError(t, err)
	require.NotEqual(t, "kata-sandi-rahasia", hash)
	require.True(t, strings.HasPrefix(hash, "$2"))

	ok, err := VerifyPassword("kata-sandi-rahasia", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyPasswordMismatchIsNotAnError(t *testing.T) {
	hash, err := HashPassword("correct")
	require.NoError(t, err)

	ok, err := VerifyPassword("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPasswordCorruptedHash(t *testing.T) {
	ok, err := VerifyPassword("anything", "not-a-bcrypt-hash")
	require.False(t, ok)
	require.ErrorIs(t, err, ErrInvalidHashFormat)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, err := HashPassword("same-input")
	require.NoError(t, err)
	second, err := HashPassword("same-input")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
