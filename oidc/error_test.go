package oidc

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *ResponseError
		want string
	}{
		{
			name: "status-only",
			err:  newResponseError("oidc.(Client).EndSession", ErrEndSession, http.StatusOK, nil, nil),
			want: "oidc.(Client).EndSession: end session request failed: status 200",
		},
		{
			name: "plain-body",
			err:  newResponseError("oidc.(Client).UserInfo", ErrUserinfo, http.StatusUnauthorized, []byte("denied"), nil),
			want: "oidc.(Client).UserInfo: userinfo request failed: status 401 --> denied",
		},
		{
			name: "oauth-error-body",
			err: newResponseError("oidc.(Client).Token", ErrTokenRequest, http.StatusUnauthorized,
				[]byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`), nil),
			want: `oidc.(Client).Token: token request failed: status 401 (invalid_grant: Invalid user credentials) --> {"error":"invalid_grant","error_description":"Invalid user credentials"}`,
		},
		{
			name: "oauth-error-code-only",
			err: newResponseError("oidc.(Client).Refresh", ErrRefresh, http.StatusBadRequest,
				[]byte(`{"error":"invalid_grant"}`), nil),
			want: `oidc.(Client).Refresh: refresh request failed: status 400 (invalid_grant) --> {"error":"invalid_grant"}`,
		},
		{
			name: "decode-error",
			err: newResponseError("oidc.(Client).Introspect", ErrIntrospection, http.StatusOK,
				[]byte("<html>"), errors.New("unable to decode response")),
			want: "oidc.(Client).Introspect: introspection request failed: status 200: unable to decode response --> <html>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tt.want, tt.err.Error())
		})
	}
}

func TestResponseError_Is(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	decodeErr := errors.New("bad json")
	var err error = newResponseError("op", ErrIntrospection, http.StatusOK, []byte("x"), decodeErr)
	wrapped := fmt.Errorf("outer: %w", err)

	assert.ErrorIs(wrapped, ErrIntrospection)
	assert.ErrorIs(wrapped, decodeErr)
	assert.NotErrorIs(wrapped, ErrTokenRequest)

	var re *ResponseError
	assert.ErrorAs(wrapped, &re)
	assert.Equal(http.StatusOK, re.StatusCode)
	assert.Equal([]byte("x"), re.Body)
	assert.Empty(re.Code)
}

func TestResponseError_discoveryBody(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	body := []byte(`{"error":"not_found","error_description":"realm missing"}`)

	re := newResponseError("oidc.Discover", ErrDiscovery, http.StatusNotFound, body, nil)
	assert.Empty(re.Code)
	assert.Empty(re.Description)
	assert.Equal(body, re.Body)
	assert.Equal(`oidc.Discover: discovery failed: status 404 --> {"error":"not_found","error_description":"realm missing"}`, re.Error())

	re = newResponseError("oidc.(Client).Token", ErrTokenRequest, http.StatusNotFound, body, nil)
	assert.Equal("not_found", re.Code)
	assert.Equal("realm missing", re.Description)
}
