package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4/jwt"
	sdkhttp "github.com/meteocima/oidcc/sdk/http"
)

// keyFetchTimeout bounds each request for remote keys made with the default
// http client.
const keyFetchTimeout = 30 * time.Second

// KeySet represents a set of keys that can be used to verify the signatures of JWTs.
// A KeySet is expected to be backed by a set of local or remote keys.
type KeySet interface {
	// VerifySignature parses the given JWT, verifies its signature, and returns the claims in its payload.
	VerifySignature(ctx context.Context, token string) (claims map[string]interface{}, err error)
}

// OIDCDiscoveryKeySet verifies JWT signatures using keys obtained by the OIDC discovery mechanism.
type OIDCDiscoveryKeySet struct {
	provider *oidc.Provider
}

// JSONWebKeySet verifies JWT signatures using keys obtained from a JWKS URL.
type JSONWebKeySet struct {
	remoteJWKS *oidc.RemoteKeySet
}

// StaticKeySet verifies JWT signatures using local PEM-encoded public keys.
type StaticKeySet struct {
	publicKeys []interface{}
}

func keySetContext(ctx context.Context, opts keySetOptions) context.Context {
	c := opts.withHTTPClient
	if c == nil {
		c = sdkhttp.NewClient(keyFetchTimeout)
	}
	return sdkhttp.ClientContext(ctx, c)
}

// NewOIDCDiscoveryKeySet returns a KeySet that verifies JWT signatures using
// keys from the JSON Web Key Set (JWKS) published in the discovery document of
// the given issuer. The discovery document's issuer must equal issuer.
//
// Supported options: WithHTTPClient
func NewOIDCDiscoveryKeySet(ctx context.Context, issuer string, opt ...Option) (*OIDCDiscoveryKeySet, error) {
	const op = "jwt.NewOIDCDiscoveryKeySet"
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	}
	provider, err := oidc.NewProvider(keySetContext(ctx, getKeySetOpts(opt...)), issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &OIDCDiscoveryKeySet{
		provider: provider,
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using discovered JWKS keys, and
// returns the claims in its payload. The given JWT must be of the JWS compact serialization form.
func (ks *OIDCDiscoveryKeySet) VerifySignature(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "jwt.(OIDCDiscoveryKeySet).VerifySignature"
	// Verify only the signature
	verifier := ks.provider.Verifier(&oidc.Config{
		SkipClientIDCheck: true,
		SkipExpiryCheck:   true,
		SkipIssuerCheck:   true,
	})
	idToken, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	allClaims := make(map[string]interface{})
	if err := idToken.Claims(&allClaims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w", op, err)
	}
	return allClaims, nil
}

// NewJSONWebKeySet returns a KeySet that verifies JWT signatures using keys
// from the JSON Web Key Set (JWKS) at the given jwksURL. Keys are fetched on
// first use and again when a token's key id is unknown.
//
// Supported options: WithHTTPClient
func NewJSONWebKeySet(ctx context.Context, jwksURL string, opt ...Option) (*JSONWebKeySet, error) {
	const op = "jwt.NewJSONWebKeySet"
	if jwksURL == "" {
		return nil, fmt.Errorf("%s: jwks url is empty: %w", op, ErrInvalidParameter)
	}
	return &JSONWebKeySet{
		remoteJWKS: oidc.NewRemoteKeySet(keySetContext(ctx, getKeySetOpts(opt...)), jwksURL),
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using JWKS keys, and returns
// the claims in its payload. The given JWT must be of the JWS compact serialization form.
func (ks *JSONWebKeySet) VerifySignature(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "jwt.(JSONWebKeySet).VerifySignature"
	payload, err := ks.remoteJWKS.VerifySignature(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	allClaims := map[string]interface{}{}
	if err := json.Unmarshal(payload, &allClaims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w", op, err)
	}
	return allClaims, nil
}

// NewStaticKeySet returns a KeySet that verifies JWT signatures using PEM-encoded public keys.
// The given publicKeys must be of PEM-encoded x509 certificate or PKIX public key forms.
func NewStaticKeySet(publicKeys []string) (*StaticKeySet, error) {
	const op = "jwt.NewStaticKeySet"
	if len(publicKeys) == 0 {
		return nil, fmt.Errorf("%s: no public keys: %w", op, ErrInvalidParameter)
	}
	parsed := make([]interface{}, 0, len(publicKeys))
	for _, k := range publicKeys {
		key, err := parsePublicKeyPEM([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		parsed = append(parsed, key)
	}
	return &StaticKeySet{
		publicKeys: parsed,
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using local PEM-encoded public keys,
// and returns the claims in its payload. The given JWT must be of the JWS compact serialization form.
func (ks *StaticKeySet) VerifySignature(_ context.Context, token string) (map[string]interface{}, error) {
	const op = "jwt.(StaticKeySet).VerifySignature"
	parsedJWT, err := jwt.ParseSigned(token, joseAlgorithms())
	if err != nil {
		return nil, fmt.Errorf("%s: unable to parse token: %w", op, err)
	}
	for _, key := range ks.publicKeys {
		allClaims := map[string]interface{}{}
		if err := parsedJWT.Claims(key, &allClaims); err == nil {
			return allClaims, nil
		}
	}
	return nil, fmt.Errorf("%s: no known key successfully validated the token signature: %w", op, ErrInvalidSignature)
}

// parsePublicKeyPEM is used to parse RSA, ECDSA and Ed25519 public keys from PEMs.
func parsePublicKeyPEM(data []byte) (interface{}, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("data is not PEM encoded: %w", ErrInvalidParameter)
	}
	rawKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, fmt.Errorf("unable to parse public key: %w", err)
		}
		rawKey = cert.PublicKey
	}
	switch k := rawKey.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return k, nil
	default:
		return nil, fmt.Errorf("data does not contain any valid RSA, ECDSA or Ed25519 public keys: %w", ErrInvalidParameter)
	}
}
