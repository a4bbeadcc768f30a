// internal/auth/keyset.go
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SigningKeyCache fetches the identity provider's published key set and keeps
// it for the process lifetime. The first lookup triggers the fetch; an unknown
// key id triggers one refresh before failing, which covers key rotation.
// Construct one per process and pass it into the verifier.
type SigningKeyCache struct {
	url    string
	client *http.Client

	mu   sync.Mutex
	keys map[string]*rsa.PublicKey
}

func NewSigningKeyCache(jwksURL string) *SigningKeyCache {
	return &SigningKeyCache{
		url:    jwksURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyFor returns the public key for a key id, fetching the set lazily and
// refreshing once when the id is unknown. Failures surface to the caller as
// verification failures; they are never swallowed.
func (c *SigningKeyCache) KeyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keys == nil {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}

	// Unknown kid: the provider may have rotated keys since the last fetch.
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, errors.Errorf("signing key %q not in key set", kid)
}

type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (c *SigningKeyCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return errors.Wrap(err, "build jwks request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch jwks")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read jwks body")
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return errors.Wrap(err, "parse jwks")
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFrom(k.N, k.E)
		if err != nil {
			return errors.Wrapf(err, "decode jwks key %q", k.Kid)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable RSA keys")
	}

	c.keys = keys
	logrus.WithField("keys", len(keys)).Debug("signing key set refreshed")
	return nil
}

func rsaKeyFrom(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, errors.Wrap(err, "modulus")
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, errors.Wrap(err, "exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
