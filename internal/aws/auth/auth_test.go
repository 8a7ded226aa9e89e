package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPublicKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jwks{Keys: []jwk{
			{
				Kid: "k1",
				Kty: "RSA",
				N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			},
			{Kid: "ec", Kty: "EC"},
		}})
	}))
	defer srv.Close()

	keys, err := LoadPublicKeys(srv.URL)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, key.PublicKey.Equal(keys["k1"]))
}

func TestLoadPublicKeysBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := LoadPublicKeys(srv.URL)
	assert.Error(t, err)
}
