package oidc

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Password is a resource owner's password used with the password grant.
type Password string

// RedactedPassword is the redacted string or json for a password
const RedactedPassword = "[REDACTED: password]"

// String will redact the password
func (p Password) String() string {
	return RedactedPassword
}

// MarshalJSON will redact the password
func (p Password) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedPassword)
}

// AccessToken is an oauth access_token
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// RefreshToken is an oauth refresh_token
type RefreshToken string

// RedactedRefreshToken is the redacted string or json for an oauth refresh_token
const RedactedRefreshToken = "[REDACTED: refresh_token]"

// String will redact the token
func (t RefreshToken) String() string {
	return RedactedRefreshToken
}

// MarshalJSON will redact the token
func (t RefreshToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedRefreshToken)
}

// TokenSet is the decoded body of a successful token or refresh response,
// exactly as the provider sent it. The accessors only read from it.
type TokenSet map[string]interface{}

// AccessToken returns the "access_token" value, or "" if it's missing or not
// a string.
func (ts TokenSet) AccessToken() AccessToken {
	return AccessToken(ts.str("access_token"))
}

// RefreshToken returns the "refresh_token" value, or "" if it's missing or
// not a string.
func (ts TokenSet) RefreshToken() RefreshToken {
	return RefreshToken(ts.str("refresh_token"))
}

// TokenType returns the "token_type" value.
func (ts TokenSet) TokenType() string {
	return ts.str("token_type")
}

// ExpiresIn returns the "expires_in" value as a duration. It's zero when the
// provider didn't send one.
func (ts TokenSet) ExpiresIn() time.Duration {
	switch v := ts["expires_in"].(type) {
	case float64:
		return time.Duration(v) * time.Second
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return time.Duration(n) * time.Second
	}
	return 0
}

// OAuth2Token converts the set into an oauth2.Token whose expiry is computed
// from "expires_in" relative to issuedAt. The full set is attached as the
// token's extra values.
func (ts TokenSet) OAuth2Token(issuedAt time.Time) *oauth2.Token {
	tk := &oauth2.Token{
		AccessToken:  ts.str("access_token"),
		TokenType:    ts.TokenType(),
		RefreshToken: ts.str("refresh_token"),
	}
	if d := ts.ExpiresIn(); d > 0 {
		tk.Expiry = issuedAt.Add(d)
	}
	return tk.WithExtra(map[string]interface{}(ts))
}

func (ts TokenSet) str(key string) string {
	s, _ := ts[key].(string)
	return s
}

// Claims is the decoded body of a successful userinfo response.
type Claims map[string]interface{}

// IntrospectionResult is the decoded body of a successful introspection
// response.
type IntrospectionResult map[string]interface{}

// Active reports the "active" member of the result. It's false when the
// member is missing or isn't a boolean.
func (r IntrospectionResult) Active() bool {
	active, _ := r["active"].(bool)
	return active
}
