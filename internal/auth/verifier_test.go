package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://idp.example.com/realm"

func jwksServer(t *testing.T, keys map[string]*rsa.PublicKey) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, jwksJSON(keys))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func accessClaims(subject string, groups []string) Claims {
	return Claims{
		TokenUse: TokenUseAccess,
		Groups:   groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	key := newTestKey(t)
	srv := jwksServer(t, map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	v := NewVerifier(NewSigningKeyCache(srv.URL), testIssuer)

	token := signToken(t, key, "k1", accessClaims("user-1", []string{"PLATFORM_ADMIN"}))
	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, []string{"PLATFORM_ADMIN"}, claims.Groups)
}

func TestVerifyDistinguishesExpiry(t *testing.T) {
	key := newTestKey(t)
	srv := jwksServer(t, map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	v := NewVerifier(NewSigningKeyCache(srv.URL), testIssuer)

	c := accessClaims("user-1", nil)
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err := v.Verify(context.Background(), signToken(t, key, "k1", c))
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsOtherDefectsUniformly(t *testing.T) {
	key := newTestKey(t)
	otherKey := newTestKey(t)
	srv := jwksServer(t, map[string]*rsa.PublicKey{"k1": &key.PublicKey})
	v := NewVerifier(NewSigningKeyCache(srv.URL), testIssuer)

	wrongIssuer := accessClaims("user-1", nil)
	wrongIssuer.Issuer = "https://evil.example.com"

	hmacTok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims("user-1", nil))
	hmacTok.Header["kid"] = "k1"
	hmacSigned, err := hmacTok.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":         "not.a.token",
		"wrong issuer":    signToken(t, key, "k1", wrongIssuer),
		"wrong key":       signToken(t, otherKey, "k1", accessClaims("user-1", nil)),
		"wrong algorithm": hmacSigned,
		"missing kid": func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodRS256, accessClaims("user-1", nil))
			s, err := tok.SignedString(key)
			require.NoError(t, err)
			return s
		}(),
	}
	for name, token := range cases {
		_, err := v.Verify(context.Background(), token)
		require.ErrorIs(t, err, ErrTokenInvalid, name)
		require.NotErrorIs(t, err, ErrTokenExpired, name)
	}
}
