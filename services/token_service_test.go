package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/foodgram-backend/errs"
)

func TestTokenService_LoginAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "chef")
	tokens := NewTokenService(f.db, "test-secret", time.Hour)

	_, err := tokens.Login(ctx, "chef@example.com", "wrong-password")
	assertStatus(t, err, http.StatusBadRequest)
	assert.True(t, errs.IsInvalidCredentialsError(err))

	_, err = tokens.Login(ctx, "nobody@example.com", "correct-horse")
	assert.True(t, errs.IsInvalidCredentialsError(err))

	token, err := tokens.Login(ctx, "CHEF@example.com", "correct-horse")
	require.NoError(t, err)

	got, err := tokens.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = tokens.Authenticate(ctx, token+"x")
	assertStatus(t, err, http.StatusUnauthorized)

	other := NewTokenService(f.db, "other-secret", time.Hour)
	_, err = other.Authenticate(ctx, token)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestTokenService_LogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "chef")
	tokens := NewTokenService(f.db, "test-secret", time.Hour)

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	require.NoError(t, tokens.Logout(ctx, user.ID))
	_, err = tokens.Authenticate(ctx, token)
	assert.True(t, errs.IsInvalidTokenError(err))

	fresh, err := tokens.Login(ctx, user.Email, "correct-horse")
	require.NoError(t, err)
	_, err = tokens.Authenticate(ctx, fresh)
	require.NoError(t, err)

	// changing the password also revokes
	require.NoError(t, f.users.SetPassword(ctx, user.ID, "correct-horse", "battery-staple"))
	_, err = tokens.Authenticate(ctx, fresh)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestTokenService_Expiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "chef")

	issuedAt := time.Now().Add(-2 * time.Hour)
	tokens := NewTokenService(f.db, "test-secret", time.Hour)
	tokens.now = func() time.Time { return issuedAt }

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Authenticate(ctx, token)
	assertStatus(t, err, http.StatusUnauthorized)
	assert.True(t, errs.IsExpiredTokenError(err))
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "chef")
	tokens := NewTokenService(f.db, "test-secret", time.Hour)

	claims := Claims{
		Version: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Authenticate(context.Background(), unsigned)
	assert.True(t, errs.IsInvalidTokenError(err))
}
