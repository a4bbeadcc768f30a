// internal/auth/verifier.go
package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Verification failures collapse to two sentinels. Expiry is recoverable by
// re-authentication; everything else is not, and the internal cause stays in
// the logs, never in a response.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	// TokenUseAccess is the only token class accepted as an API credential.
	// Identity-assertion tokens carry the same claims but are never valid here.
	TokenUseAccess = "access"
	TokenUseID     = "id"
)

// Claims is the verified payload of an identity token. Subject is the durable
// identity key; Email is display-only and may be absent.
type Claims struct {
	TokenUse string   `json:"token_use"`
	Groups   []string `json:"groups"`
	Email    string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks token signature, algorithm, issuer and expiry against a
// shared signing key cache.
type Verifier struct {
	keys   *SigningKeyCache
	issuer string
}

func NewVerifier(keys *SigningKeyCache, issuer string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer}
}

// Verify parses and validates a bearer token. Only RS256 signatures from the
// configured issuer are accepted.
func (v *Verifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.keys.KeyFor(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		logrus.WithError(err).Debug("token verification failed")
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
