package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})

	token, err := m.Issue("ops@example.com", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "question-service", claims.Issuer)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret")})
	other := NewManager(TokenConfig{Secret: []byte("other")})

	token, err := other.Issue("x", RoleAdmin)
	require.NoError(t, err)
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), TTL: time.Minute})
	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue("x", RoleAdmin)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
