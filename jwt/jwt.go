package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/go-multierror"
)

// DefaultLeewaySeconds defines the amount of leeway that's used by default
// when validating the exp, nbf and iat claims.
const DefaultLeewaySeconds = 150

// Validator validates JSON Web Tokens (JWT) by providing signature
// verification and claims set validation.
type Validator struct {
	keySets []KeySet
}

// NewValidator returns a Validator that uses the given KeySets to verify
// JWT signatures. A token is accepted when any of the KeySets verifies it.
func NewValidator(keySets ...KeySet) (*Validator, error) {
	const op = "jwt.NewValidator"
	if len(keySets) == 0 {
		return nil, fmt.Errorf("%s: no key sets: %w", op, ErrInvalidParameter)
	}
	for _, ks := range keySets {
		if ks == nil {
			return nil, fmt.Errorf("%s: key set is nil: %w", op, ErrNilParameter)
		}
	}
	return &Validator{
		keySets: keySets,
	}, nil
}

// Expected defines the expected claims values to assert when validating a JWT.
// For claims that involve validation of the JWT with respect to time, leeway
// fields are provided to account for potential clock skew.
type Expected struct {
	// Issuer is compared to the "iss" claim when not empty.
	Issuer string

	// Subject is compared to the "sub" claim when not empty.
	Subject string

	// ID is compared to the "jti" claim when not empty.
	ID string

	// Audiences must share at least one value with the "aud" claim when not
	// empty. Trailing slashes are ignored on both sides.
	Audiences []string

	// SigningAlgorithms lists the accepted "alg" header values. The default is
	// RS256 and ES256.
	SigningAlgorithms []Alg

	// NotBeforeLeeway is added to the "nbf" check. Zero means
	// DefaultLeewaySeconds, a negative value means none.
	NotBeforeLeeway time.Duration

	// ExpirationLeeway is added to the "exp" check. Zero means
	// DefaultLeewaySeconds, a negative value means none.
	ExpirationLeeway time.Duration

	// ClockSkewLeeway is added to every time based check. Zero means
	// DefaultLeewaySeconds, a negative value means none.
	ClockSkewLeeway time.Duration

	// Now returns the current time for the time based checks. Defaults to
	// time.Now.
	Now func() time.Time
}

// Validate validates JWTs of the JWS compact serialization form.
//
// The validation is performed in the following order:
//   - The JWT signature is verified with the Validator's KeySets.
//   - The signing algorithm in the JWS header must be in SigningAlgorithms.
//   - At least one of the exp, nbf or iat claims must be present.
//   - exp, nbf and iat are checked against the current time with leeway.
//   - iss, sub, jti and aud are checked against the non-empty Expected values.
//
// All claims are returned when the token is valid.
func (v *Validator) Validate(ctx context.Context, token string, expected Expected) (map[string]interface{}, error) {
	const op = "jwt.(Validator).Validate"
	if token == "" {
		return nil, fmt.Errorf("%s: token is empty: %w", op, ErrInvalidParameter)
	}
	allClaims, err := v.verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateSigningAlgorithm(token, expected.SigningAlgorithms); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// unmarshal the verified claims into the registered claims
	raw, err := json.Marshal(allClaims)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to encode claims: %w", op, err)
	}
	var claims jwt.Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode registered claims: %w", op, err)
	}

	if claims.IssuedAt == nil && claims.NotBefore == nil && claims.Expiry == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingTimeClaims)
	}
	if err := validateTime(claims, expected); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case expected.Issuer != "" && expected.Issuer != claims.Issuer:
		return nil, fmt.Errorf("%s: %q: %w", op, claims.Issuer, ErrInvalidIssuer)
	case expected.Subject != "" && expected.Subject != claims.Subject:
		return nil, fmt.Errorf("%s: %q: %w", op, claims.Subject, ErrInvalidSubject)
	case expected.ID != "" && expected.ID != claims.ID:
		return nil, fmt.Errorf("%s: %q: %w", op, claims.ID, ErrInvalidID)
	}
	if err := validateAudience(expected.Audiences, claims.Audience); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return allClaims, nil
}

// verify returns the claims of the first KeySet that verifies the token's
// signature.
func (v *Validator) verify(ctx context.Context, token string) (map[string]interface{}, error) {
	var errs *multierror.Error
	for _, ks := range v.keySets {
		claims, err := ks.VerifySignature(ctx, token)
		if err == nil {
			return claims, nil
		}
		errs = multierror.Append(errs, err)
	}
	return nil, fmt.Errorf("no key set verified the token: %w", errs.ErrorOrNil())
}

func leeway(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultLeewaySeconds * time.Second
	case d < 0:
		return 0
	default:
		return d
	}
}

func validateTime(claims jwt.Claims, expected Expected) error {
	now := time.Now()
	if expected.Now != nil {
		now = expected.Now()
	}
	skew := leeway(expected.ClockSkewLeeway)
	if claims.Expiry != nil && now.After(claims.Expiry.Time().Add(skew+leeway(expected.ExpirationLeeway))) {
		return ErrExpired
	}
	if claims.NotBefore != nil && now.Add(skew+leeway(expected.NotBeforeLeeway)).Before(claims.NotBefore.Time()) {
		return ErrNotYetValid
	}
	if claims.IssuedAt != nil && now.Add(skew).Before(claims.IssuedAt.Time()) {
		return ErrIssuedInFuture
	}
	return nil
}

// validateSigningAlgorithm checks the "alg" header of the token against the
// expected algorithms.
func validateSigningAlgorithm(token string, expectedAlgorithms []Alg) error {
	if len(expectedAlgorithms) == 0 {
		expectedAlgorithms = defaultAlgorithms
	}
	if err := SupportedSigningAlgorithm(expectedAlgorithms...); err != nil {
		return err
	}
	jws, err := jose.ParseSigned(token, joseAlgorithms())
	if err != nil {
		return fmt.Errorf("unable to parse token: %w", err)
	}
	if len(jws.Signatures) != 1 {
		return fmt.Errorf("token must have exactly one signature: %w", ErrInvalidSignature)
	}
	got := Alg(jws.Signatures[0].Header.Algorithm)
	for _, a := range expectedAlgorithms {
		if a == got {
			return nil
		}
	}
	return fmt.Errorf("%q: %w", got, ErrInvalidAlgorithm)
}

// validateAudience returns nil when expectedAudiences is empty or shares at
// least one value with audClaim.
func validateAudience(expectedAudiences, audClaim []string) error {
	if len(expectedAudiences) == 0 {
		return nil
	}
	for _, e := range expectedAudiences {
		for _, a := range audClaim {
			if strings.TrimSuffix(e, "/") == strings.TrimSuffix(a, "/") {
				return nil
			}
		}
	}
	return fmt.Errorf("%v: %w", audClaim, ErrInvalidAudience)
}
