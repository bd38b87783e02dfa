package jwt

import "errors"

var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrNilParameter         = errors.New("nil parameter")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrInvalidAlgorithm     = errors.New("unexpected signing algorithm")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrMissingTimeClaims    = errors.New("no iat, nbf or exp claim")
	ErrInvalidIssuer        = errors.New("invalid issuer (iss) claim")
	ErrInvalidSubject       = errors.New("invalid subject (sub) claim")
	ErrInvalidID            = errors.New("invalid ID (jti) claim")
	ErrInvalidAudience      = errors.New("invalid audience (aud) claim")
	ErrExpired              = errors.New("token is expired (exp)")
	ErrNotYetValid          = errors.New("token not valid yet (nbf)")
	ErrIssuedInFuture       = errors.New("token issued in the future (iat)")
)
