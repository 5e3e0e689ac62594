package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("s3cret", "musicstore", time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("u-1", "Store Admin", RoleManager)
	require.NoError(t, err)

	claims, err := m.Validate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "Store Admin", claims.Name)
	assert.True(t, claims.HasRole("administrator"))
	assert.False(t, claims.HasRole("Customer"))
}

func TestJWTManager_Rejects(t *testing.T) {
	m, err := NewJWTManager("s3cret", "musicstore", time.Minute)
	require.NoError(t, err)
	token, err := m.Issue("u-1", "x")
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := m.Validate("Bearer ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewJWTManager("other", "musicstore", time.Minute)
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, _ := NewJWTManager("s3cret", "someone-else", time.Minute)
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := *m
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("no secret", func(t *testing.T) {
		_, err := NewJWTManager("", "musicstore", time.Minute)
		assert.Error(t, err)
	})
}

func TestKeyedLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyedLimiter(1, 2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, l.Sweep())
	assert.Equal(t, float64(1), l.Limit())
}
