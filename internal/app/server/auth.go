package server

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves the user behind an upgrade request.
type Authenticator interface {
	Authenticate(r *http.Request) (entities.User, error)
}

// JwtAuthenticator validates a bearer token, signed either with a shared
// HMAC secret or with one of a set of RSA keys picked by kid, and looks
// the subject up in the user directory.
type JwtAuthenticator struct {
	secret     []byte
	publicKeys map[string]*rsa.PublicKey
	issuer     string
	directory  interfaces.UserDirectory
}

func NewHmacAuthenticator(secret, issuer string, directory interfaces.UserDirectory) *JwtAuthenticator {
	return &JwtAuthenticator{
		secret:    []byte(secret),
		issuer:    issuer,
		directory: directory,
	}
}

func NewRsaAuthenticator(publicKeys map[string]*rsa.PublicKey, issuer string, directory interfaces.UserDirectory) *JwtAuthenticator {
	return &JwtAuthenticator{
		publicKeys: publicKeys,
		issuer:     issuer,
		directory:  directory,
	}
}

func (a *JwtAuthenticator) Authenticate(r *http.Request) (entities.User, error) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		return entities.User{}, fmt.Errorf("%w: no authorization", ErrUnauthorized)
	}
	userId, err := a.subject(tokenString)
	if err != nil {
		return entities.User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := a.directory.GetUserById(r.Context(), userId)
	if err != nil {
		return entities.User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return user, nil
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter since browsers cannot set headers on websocket upgrades.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (a *JwtAuthenticator) subject(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.secret != nil {
		opts = append(opts, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	}

	token, err := jwt.Parse(tokenString, a.keyFunc, opts...)
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("user id not found")
	}
	return sub, nil
}

func (a *JwtAuthenticator) keyFunc(token *jwt.Token) (interface{}, error) {
	if a.secret != nil {
		return a.secret, nil
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, errors.New("invalid token: missing kid")
	}
	if key, found := a.publicKeys[kid]; found {
		return key, nil
	}
	return nil, errors.New("invalid token: unknown kid")
}
