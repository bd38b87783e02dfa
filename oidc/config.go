package oidc

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
)

// Config holds the provider endpoints the Client sends requests to. All four
// are required. Their values are not checked for well-formedness: a bad URL
// fails when a request is made.
type Config struct {
	// TokenEndpoint receives password and refresh_token grants.
	TokenEndpoint string `json:"token_endpoint" mapstructure:"token_endpoint"`

	// TokenIntrospectionEndpoint receives token introspection requests.
	TokenIntrospectionEndpoint string `json:"token_introspection_endpoint" mapstructure:"token_introspection_endpoint"`

	// EndSessionEndpoint receives logout requests.
	EndSessionEndpoint string `json:"end_session_endpoint" mapstructure:"end_session_endpoint"`

	// UserinfoEndpoint returns the claims of an access token's subject.
	UserinfoEndpoint string `json:"userinfo_endpoint" mapstructure:"userinfo_endpoint"`
}

// NewConfig composes a new config from the provider's endpoints.
func NewConfig(tokenEndpoint, introspectionEndpoint, endSessionEndpoint, userinfoEndpoint string) (*Config, error) {
	const op = "oidc.NewConfig"
	c := &Config{
		TokenEndpoint:              tokenEndpoint,
		TokenIntrospectionEndpoint: introspectionEndpoint,
		EndSessionEndpoint:         endSessionEndpoint,
		UserinfoEndpoint:           userinfoEndpoint,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// NewConfigFromMap composes a new config from a mapping keyed like a
// discovery document ("token_endpoint", "token_introspection_endpoint",
// "end_session_endpoint", "userinfo_endpoint"). Keys match exactly and any
// other key is ignored.
func NewConfigFromMap(m map[string]interface{}) (*Config, error) {
	const op = "oidc.NewConfigFromMap"
	if m == nil {
		return nil, fmt.Errorf("%s: configuration map is nil: %w", op, ErrNilParameter)
	}
	var c Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &c,
		ErrorUnused: false,
		MatchName:   func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create decoder: %w", op, err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrConfiguration, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// Validate the config. Every empty endpoint is reported, and the returned
// error matches ErrConfiguration.
func (c *Config) Validate() error {
	const op = "oidc.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var merr *multierror.Error
	for _, f := range []struct {
		name  string
		value string
	}{
		{"token_endpoint", c.TokenEndpoint},
		{"token_introspection_endpoint", c.TokenIntrospectionEndpoint},
		{"end_session_endpoint", c.EndSessionEndpoint},
		{"userinfo_endpoint", c.UserinfoEndpoint},
	} {
		if f.value == "" {
			merr = multierror.Append(merr, fmt.Errorf("%s is missing: %w", f.name, ErrConfiguration))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
