package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func TestSignAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute)

	tok, err := SignAccess(userID, "ADMIN", exp, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := SignAccess(uuid.NewString(), "CLIENT", time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestAccessClaimsFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := SignAccess(uuid.NewString(), "CLIENT", time.Now().Add(time.Minute), secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, []byte("other"))
	require.Error(t, err)
}

func TestSignRefresh_RoundTrip(t *testing.T) {
	t.Parallel()

	jti := uuid.NewString()
	tok, err := SignRefresh("u1", jti, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "u1", claims.Subject)
}
