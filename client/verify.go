package client

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/identity"
)

// JWKSVerifier validates ID tokens against the provider's published
// key set. Profile claims are only trusted after verification.
type JWKSVerifier struct {
	url  string
	http *http.Client

	mu   sync.Mutex
	keys map[string]*rsa.PublicKey
}

func NewJWKSVerifier(url string) *JWKSVerifier {
	return &JWKSVerifier{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		keys: map[string]*rsa.PublicKey{},
	}
}

// Verify checks signature, expiry and signing method, and returns the
// verified claims.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*identity.Claims, error) {
	t, err := jwt.ParseWithClaims(token, &identity.Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	})
	if err != nil {
		return nil, errors.Wrap(err, "verify id token")
	}
	claims, ok := t.Claims.(*identity.Claims)
	if !ok || !t.Valid {
		return nil, errors.New("verify id token: invalid claims")
	}
	return claims, nil
}

func (v *JWKSVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	if k, ok := v.keys[kid]; ok {
		v.mu.Unlock()
		return k, nil
	}
	v.mu.Unlock()

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	k, ok := v.keys[kid]
	if !ok {
		return nil, errors.Errorf("no key %q in jwks", kid)
	}
	return k, nil
}

func (v *JWKSVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return errors.Wrap(err, "build jwks request")
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch jwks")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fetch jwks: status %d", resp.StatusCode)
	}
	var set identity.JWKSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return errors.Wrap(err, "decode jwks")
	}

	keys := map[string]*rsa.PublicKey{}
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(jwk)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contained no usable keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(jwk identity.JWK) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
