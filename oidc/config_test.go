package oidc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		token         string
		introspection string
		endSession    string
		userinfo      string
		want          *Config
		wantIsErr     error
		wantMissing   []string
	}{
		{
			name:          "valid",
			token:         "https://idp/token",
			introspection: "https://idp/token/introspect",
			endSession:    "https://idp/logout",
			userinfo:      "https://idp/userinfo",
			want: &Config{
				TokenEndpoint:              "https://idp/token",
				TokenIntrospectionEndpoint: "https://idp/token/introspect",
				EndSessionEndpoint:         "https://idp/logout",
				UserinfoEndpoint:           "https://idp/userinfo",
			},
		},
		{
			name:          "missing-token",
			introspection: "https://idp/token/introspect",
			endSession:    "https://idp/logout",
			userinfo:      "https://idp/userinfo",
			wantIsErr:     ErrConfiguration,
			wantMissing:   []string{"token_endpoint"},
		},
		{
			name:        "missing-all-but-token",
			token:       "https://idp/token",
			wantIsErr:   ErrConfiguration,
			wantMissing: []string{"token_introspection_endpoint", "end_session_endpoint", "userinfo_endpoint"},
		},
		{
			name:          "malformed-url-is-not-checked",
			token:         "::not a url::",
			introspection: "b",
			endSession:    "c",
			userinfo:      "d",
			want: &Config{
				TokenEndpoint:              "::not a url::",
				TokenIntrospectionEndpoint: "b",
				EndSessionEndpoint:         "c",
				UserinfoEndpoint:           "d",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.token, tt.introspection, tt.endSession, tt.userinfo)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.Nil(got)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				for _, m := range tt.wantMissing {
					assert.Contains(err.Error(), m)
				}
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil", func(t *testing.T) {
		assert := assert.New(t)
		var c *Config
		err := c.Validate()
		assert.ErrorIs(err, ErrNilParameter)
	})
	t.Run("empty", func(t *testing.T) {
		assert := assert.New(t)
		err := (&Config{}).Validate()
		assert.ErrorIs(err, ErrConfiguration)
		assert.Contains(err.Error(), "4 errors occurred")
	})
}

func TestNewConfigFromMap(t *testing.T) {
	t.Parallel()
	complete := func() map[string]interface{} {
		return map[string]interface{}{
			"token_endpoint":               "https://idp/token",
			"token_introspection_endpoint": "https://idp/token/introspect",
			"end_session_endpoint":         "https://idp/logout",
			"userinfo_endpoint":            "https://idp/userinfo",
		}
	}
	want := &Config{
		TokenEndpoint:              "https://idp/token",
		TokenIntrospectionEndpoint: "https://idp/token/introspect",
		EndSessionEndpoint:         "https://idp/logout",
		UserinfoEndpoint:           "https://idp/userinfo",
	}
	tests := []struct {
		name      string
		m         func() map[string]interface{}
		want      *Config
		wantIsErr error
	}{
		{
			name: "valid",
			m:    complete,
			want: want,
		},
		{
			name: "extra-fields-are-ignored",
			m: func() map[string]interface{} {
				m := complete()
				m["issuer"] = "https://idp"
				m["jwks_uri"] = "https://idp/certs"
				m["grant_types_supported"] = []interface{}{"password"}
				m["frontchannel_logout_supported"] = true
				return m
			},
			want: want,
		},
		{
			name:      "nil",
			m:         func() map[string]interface{} { return nil },
			wantIsErr: ErrNilParameter,
		},
		{
			name: "missing-userinfo",
			m: func() map[string]interface{} {
				m := complete()
				delete(m, "userinfo_endpoint")
				return m
			},
			wantIsErr: ErrConfiguration,
		},
		{
			name: "empty-end-session",
			m: func() map[string]interface{} {
				m := complete()
				m["end_session_endpoint"] = ""
				return m
			},
			wantIsErr: ErrConfiguration,
		},
		{
			name: "wrong-type",
			m: func() map[string]interface{} {
				m := complete()
				m["token_endpoint"] = 42
				return m
			},
			wantIsErr: ErrConfiguration,
		},
		{
			name: "case-mismatched-keys",
			m: func() map[string]interface{} {
				return map[string]interface{}{
					"TOKEN_ENDPOINT":               "https://idp/token",
					"Token_Introspection_Endpoint": "https://idp/introspect",
					"End_Session_Endpoint":         "https://idp/logout",
					"USERINFO_ENDPOINT":            "https://idp/userinfo",
				}
			},
			wantIsErr: ErrConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfigFromMap(tt.m())
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.Nil(got)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}
