package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapDirectory map[string]entities.User

func (d mapDirectory) GetUserById(ctx context.Context, userId string) (entities.User, error) {
	u, ok := d[userId]
	if !ok {
		return entities.User{}, errs.ErrUserNotFound
	}
	return u, nil
}

func (d mapDirectory) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	for _, u := range d {
		if u.Username == username {
			return u, nil
		}
	}
	return entities.User{}, errs.ErrUserNotFound
}

var directory = mapDirectory{alice.Id: alice}

func authenticate(a Authenticator, tokenString string) (entities.User, error) {
	r := httptest.NewRequest("GET", "/ws", nil)
	if tokenString != "" {
		r.Header.Set("Authorization", "Bearer "+tokenString)
	}
	return a.Authenticate(r)
}

func TestHmacAuthenticator(t *testing.T) {
	a := NewHmacAuthenticator("secret", "livematch", directory)
	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	user, err := authenticate(a, sign(jwt.MapClaims{"sub": alice.Id, "iss": "livematch", "exp": exp}, "secret"))
	require.NoError(t, err)
	assert.Equal(t, alice, user)

	tests := map[string]string{
		"no token":      "",
		"wrong secret":  sign(jwt.MapClaims{"sub": alice.Id, "iss": "livematch", "exp": exp}, "other"),
		"wrong issuer":  sign(jwt.MapClaims{"sub": alice.Id, "iss": "elsewhere", "exp": exp}, "secret"),
		"expired":       sign(jwt.MapClaims{"sub": alice.Id, "iss": "livematch", "exp": time.Now().Add(-time.Minute).Unix()}, "secret"),
		"no expiry":     sign(jwt.MapClaims{"sub": alice.Id, "iss": "livematch"}, "secret"),
		"no subject":    sign(jwt.MapClaims{"iss": "livematch", "exp": exp}, "secret"),
		"unknown user":  sign(jwt.MapClaims{"sub": "ghost", "iss": "livematch", "exp": exp}, "secret"),
		"garbage token": "abc.def.ghi",
	}
	for name, tokenString := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := authenticate(a, tokenString)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestRsaAuthenticator(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	a := NewRsaAuthenticator(map[string]*rsa.PublicKey{"k1": &key.PublicKey}, "", directory)

	sign := func(kid string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"sub": alice.Id,
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		if kid != "" {
			token.Header["kid"] = kid
		}
		s, err := token.SignedString(key)
		require.NoError(t, err)
		return s
	}

	user, err := authenticate(a, sign("k1"))
	require.NoError(t, err)
	assert.Equal(t, alice, user)

	_, err = authenticate(a, sign("k2"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = authenticate(a, sign(""))
	assert.ErrorIs(t, err, ErrUnauthorized)

	// An HMAC token must not pass as RSA.
	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": alice.Id,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = authenticate(a, hmac)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
