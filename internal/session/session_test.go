package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(time.Hour)

	token, err := m.Create(ctx, 42)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := m.UserID(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	err = m.Destroy(ctx, token)
	assert.NoError(t, err)

	_, err = m.UserID(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryManager_UnknownToken(t *testing.T) {
	m := NewMemoryManager(time.Hour)
	_, err := m.UserID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)

	// Destroying an unknown token is not an error.
	assert.NoError(t, m.Destroy(context.Background(), "nope"))
}

func TestMemoryManager_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(10 * time.Millisecond)

	token, err := m.Create(ctx, 7)
	assert.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = m.UserID(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryManager_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager(time.Hour)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := m.Create(ctx, uint(i))
		assert.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
