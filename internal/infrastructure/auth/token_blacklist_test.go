package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Minute))

	blacklisted, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// other tokens stay valid
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestInMemoryTokenBlacklist_ExpiredEntry(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", -time.Second))

	blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}
