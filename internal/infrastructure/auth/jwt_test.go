package auth

import (
	"testing"
	"time"

	"github.com/forestcrm/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}
	return NewJWTService(cfg)
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
		UserID:     userID,
		FullName:   "山田 太郎",
		Restricted: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "山田 太郎", claims.FullName)
	assert.True(t, claims.Restricted)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()
	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-key",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "test-issuer",
	})
	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	svc := newTestJWTService()
	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	ttl := claims.GetRemainingTTL()
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)
}
