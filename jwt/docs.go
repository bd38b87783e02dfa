// Package jwt verifies the JWT access tokens issued by an OpenID Connect
// provider.
//
// # Primary types provided by the package
//
//   - KeySet: verifies the signature of a JWT and returns its claims. Keys
//     come from a JWKS url (NewJSONWebKeySet), from the jwks_uri of a
//     discovered provider (NewOIDCDiscoveryKeySet) or from local PEM-encoded
//     public keys (NewStaticKeySet).
//   - Validator: verifies a JWT with one or more KeySets and validates its
//     claims against Expected values (issuer, subject, id, audiences, signing
//     algorithms and the time based claims with leeway).
package jwt
