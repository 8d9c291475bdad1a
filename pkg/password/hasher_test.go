package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authcore/pkg/password"
)

func TestHasher(t *testing.T) {
	t.Parallel()

	h, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		hash, err := h.Hash("pw1")
		require.NoError(t, err)
		assert.NotEqual(t, "pw1", hash)
		assert.True(t, h.Verify("pw1", hash))
		assert.False(t, h.Verify("pw2", hash))
		assert.ErrorIs(t, h.Compare("pw2", hash), password.ErrMismatch)
		assert.NoError(t, h.Compare("pw1", hash))
	})

	t.Run("salted", func(t *testing.T) {
		t.Parallel()
		a, err := h.Hash("same")
		require.NoError(t, err)
		b, err := h.Hash("same")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("malformed hash", func(t *testing.T) {
		t.Parallel()
		assert.False(t, h.Verify("pw", "not-a-hash"))
		assert.False(t, h.Verify("pw", ""))
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	h, err := password.New(0)
	require.NoError(t, err)
	assert.Equal(t, password.DefaultCost, h.Cost())

	_, err = password.New(99)
	assert.ErrorIs(t, err, password.ErrInvalidCost)

	h, err = password.NewFromConfig(password.Config{Cost: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, h.Cost())
}
