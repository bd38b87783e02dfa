package oidc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")

	// ErrConfiguration is returned when a required provider endpoint is
	// missing from the client configuration.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDiscovery is returned when the well-known configuration document
	// cannot be fetched or decoded.
	ErrDiscovery = errors.New("discovery failed")

	ErrTokenRequest  = errors.New("token request failed")
	ErrRefresh       = errors.New("refresh request failed")
	ErrUserinfo      = errors.New("userinfo request failed")
	ErrIntrospection = errors.New("introspection request failed")
	ErrEndSession    = errors.New("end session request failed")

	// ErrResponseTooLarge is wrapped by a ResponseError when the response
	// body exceeds 1 MiB. The body is not kept.
	ErrResponseTooLarge = errors.New("response body exceeds 1 MiB")
)

// ResponseError is returned when the provider answers a request with an
// unexpected HTTP status, or with a body that can't be decoded. Kind is one
// of the package's Err* sentinels and is matched by errors.Is.
type ResponseError struct {
	// Op is the operation that issued the request.
	Op string

	// Kind classifies the failed operation (ErrTokenRequest, ErrUserinfo,
	// etc).
	Kind error

	// StatusCode is the HTTP status returned by the provider.
	StatusCode int

	// Body is the raw response body, which may be empty.
	Body []byte

	// Code and Description are taken from an RFC 6749 error body
	// ("error" and "error_description") when the provider sent one. They
	// are never set for ErrDiscovery.
	Code        string
	Description string

	// Wrapped is set when the response status was expected but the body
	// could not be decoded, or to ErrResponseTooLarge.
	Wrapped error
}

func newResponseError(op string, kind error, status int, body []byte, wrapped error) *ResponseError {
	e := &ResponseError{
		Op:         op,
		Kind:       kind,
		StatusCode: status,
		Body:       body,
		Wrapped:    wrapped,
	}
	// discovery documents aren't RFC 6749 error bodies
	if kind == ErrDiscovery {
		return e
	}
	var oauthErr struct {
		Code        string `json:"error"`
		Description string `json:"error_description"`
	}
	if len(body) > 0 && json.Unmarshal(body, &oauthErr) == nil {
		e.Code = oauthErr.Code
		e.Description = oauthErr.Description
	}
	return e
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%s: %v: status %d", e.Op, e.Kind, e.StatusCode)
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s", msg, e.Code)
		if e.Description != "" {
			msg = fmt.Sprintf("%s: %s", msg, e.Description)
		}
		msg += ")"
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Wrapped)
	}
	if len(e.Body) > 0 {
		msg = fmt.Sprintf("%s --> %s", msg, e.Body)
	}
	return msg
}

// Unwrap returns both the Kind and any wrapped decoding error so errors.Is
// matches either.
func (e *ResponseError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Wrapped != nil {
		errs = append(errs, e.Wrapped)
	}
	return errs
}
