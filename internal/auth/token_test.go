package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
)

func testUser() models.User {
	return models.User{
		UserID:   "9f6e7c2a-1111-2222-3333-444455556666",
		Username: "halla",
		Email:    "halla@example.com",
		Role:     models.RoleUploader,
	}
}

func TestGenerateAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	tok, err := m.Generate(testUser())
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)

	claims, err := m.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "9f6e7c2a-1111-2222-3333-444455556666", claims.Subject)
	assert.Equal(t, models.RoleUploader, claims.Role)
	assert.Equal(t, "halla", claims.Username)
	assert.Equal(t, "halla@example.com", claims.Email)
}

func TestVerifyExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	tok, err := m.Generate(testUser())
	require.NoError(t, err)

	_, err = m.Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := NewTokenManager("secret-a", time.Hour).Generate(testUser())
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, VerifyPassword("hunter2", hash))
	assert.False(t, VerifyPassword("hunter3", hash))
	assert.False(t, VerifyPassword("hunter2", "not-a-hash"))
}
