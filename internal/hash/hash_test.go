package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)

	hashed, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)

	assert.True(t, h.Compare(hashed, "password123"))
	assert.False(t, h.Compare(hashed, "password124"))
	assert.False(t, h.Compare("not-a-hash", "password123"))
}

func TestBcrypt_SaltsEveryHash(t *testing.T) {
	t.Parallel()

	h := NewBcrypt(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcrypt_TooLong(t *testing.T) {
	t.Parallel()

	_, err := NewBcrypt(bcrypt.MinCost).Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcrypt_OutOfRangeCostFallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).Cost)
	assert.Equal(t, 12, NewBcrypt(12).Cost)
}
