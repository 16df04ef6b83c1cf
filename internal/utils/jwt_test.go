package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("jane@example.com", "jane", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	identity, err := ExtractIdentityFromToken(token.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", identity)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("jane@example.com", "jane", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token.AccessToken, "other-secret")
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken("jane@example.com", "jane", testSecret, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = ValidateToken(token.AccessToken, testSecret)
	assert.Error(t, err)
}
