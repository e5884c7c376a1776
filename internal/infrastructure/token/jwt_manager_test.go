package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", 30*time.Minute)

	signed, err := manager.Issue("owner@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	subject, err := manager.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", subject)
}

func TestJWTManagerExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 30*time.Minute)

	issuedAt := time.Now().Add(-time.Hour)
	manager.nowFunc = func() time.Time { return issuedAt }
	signed, err := manager.Issue("owner@example.com")
	require.NoError(t, err)

	manager.nowFunc = time.Now
	_, err = manager.Verify(signed)
	assert.Error(t, err)
}

func TestJWTManagerWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-one", 30*time.Minute)
	verifier := NewJWTManager("secret-two", 30*time.Minute)

	signed, err := issuer.Issue("owner@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.Error(t, err)
}

func TestJWTManagerGarbageToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 30*time.Minute)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := manager.Verify(tok)
		assert.Error(t, err, "token %q should not verify", tok)
	}
}
