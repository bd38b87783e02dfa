package oidc

import (
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/meteocima/oidcc/sdk/id"
	"github.com/stretchr/testify/require"
)

// Defaults of a TestProvider, see the Set* methods to change them.
const (
	TestClientID     = "test-client"
	TestClientSecret = "test-client-secret"
	TestUsername     = "alice"
	TestPassword     = "alice-password"
	TestRealm        = "test"
	TestKeyID        = "test-key"
)

// Keys of the TestProvider's discovery document that can be passed to
// DisableEndpoint.
const (
	DiscoveryTokenEndpoint         = "token_endpoint"
	DiscoveryIntrospectionEndpoint = "token_introspection_endpoint"
	DiscoveryEndSessionEndpoint    = "end_session_endpoint"
	DiscoveryUserinfoEndpoint      = "userinfo_endpoint"
)

const testProviderBasePath = "/realms/" + TestRealm

// TestProvider is a local server that emulates a Keycloak realm for the
// requests the Client makes: discovery, password and refresh_token grants,
// userinfo, introspection and logout. Access tokens are ES256 signed JWTs
// (see JWKSURL for the keys), refresh tokens are opaque ids.
type TestProvider struct {
	httpServer *httptest.Server

	keyID         string
	publicKeyPEM  string
	privateKeyPEM string
	signingKey    *ecdsa.PrivateKey
	jwks          *jose.JSONWebKeySet

	mu            sync.Mutex
	clientID      string
	clientSecret  string
	users         map[string]string
	replyUserinfo map[string]interface{}
	expiry        time.Duration
	disabled      map[string]bool
	sessions      map[string]*testSession
	refreshTokens map[string]string // refresh token -> session id
}

type testSession struct {
	id       string
	username string
	active   bool
}

// testProviderOptions is the set of available options for StartTestProvider
type testProviderOptions struct {
	withPort int
}

func testProviderDefaults() testProviderOptions {
	return testProviderOptions{}
}

func getTestProviderOpts(opt ...Option) testProviderOptions {
	opts := testProviderDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTestPort provides an optional port for the TestProvider's listener.
func WithTestPort(port int) Option {
	return func(o interface{}) {
		if o, ok := o.(*testProviderOptions); ok {
			o.withPort = port
		}
	}
}

// StartTestProvider creates a disposable TestProvider which is stopped when
// the test completes.
//
// Supported options: WithTestPort
func StartTestProvider(t *testing.T, opt ...Option) *TestProvider {
	t.Helper()
	require := require.New(t)
	opts := getTestProviderOpts(opt...)

	p := &TestProvider{
		keyID:        TestKeyID,
		clientID:     TestClientID,
		clientSecret: TestClientSecret,
		users:        map[string]string{TestUsername: TestPassword},
		replyUserinfo: map[string]interface{}{
			"email":          TestUsername + "@example.com",
			"email_verified": true,
		},
		expiry:        5 * time.Minute,
		disabled:      map[string]bool{},
		sessions:      map[string]*testSession{},
		refreshTokens: map[string]string{},
	}
	p.publicKeyPEM, p.privateKeyPEM = TestGenerateKeys(t)
	key, err := parseECPrivateKeyPEM(p.privateKeyPEM)
	require.NoError(err)
	p.signingKey = key
	p.jwks = &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       &key.PublicKey,
				KeyID:     p.keyID,
				Algorithm: string(jose.ES256),
				Use:       "sig",
			},
		},
	}

	if opts.withPort != 0 {
		p.httpServer = httptestNewUnstartedServerWithPort(t, p, opts.withPort)
	} else {
		p.httpServer = httptest.NewUnstartedServer(p)
	}
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.Start()
	t.Cleanup(p.httpServer.Close)
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// Issuer returns the realm's issuer url, which is also the "iss" claim of the
// access tokens.
func (p *TestProvider) Issuer() string { return p.Addr() + testProviderBasePath }

// WellKnownURL returns the url of the realm's discovery document.
func (p *TestProvider) WellKnownURL() string {
	return p.Issuer() + "/.well-known/openid-configuration"
}

// JWKSURL returns the url of the realm's JSON web key set.
func (p *TestProvider) JWKSURL() string {
	return p.Issuer() + "/protocol/openid-connect/certs"
}

// HTTPClient returns an http client for the test provider.
func (p *TestProvider) HTTPClient() *http.Client { return p.httpServer.Client() }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.publicKeyPEM, p.privateKeyPEM
}

// SetClientCreds configures the client id and secret the provider accepts.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetUser adds (or replaces) a user allowed to use the password grant.
func (p *TestProvider) SetUser(username, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[username] = password
}

// SetUserinfo configures the claims returned from userinfo in addition to
// "sub" and "preferred_username".
func (p *TestProvider) SetUserinfo(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// SetExpiry configures the lifetime of issued access tokens. A negative
// duration issues already expired tokens.
func (p *TestProvider) SetExpiry(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiry = d
}

// DisableEndpoint omits the endpoint from the discovery document and makes it
// return 404. See the Discovery* constants for valid keys.
func (p *TestProvider) DisableEndpoint(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled[key] = true
}

func (p *TestProvider) endpoints() map[string]string {
	base := p.Issuer() + "/protocol/openid-connect"
	return map[string]string{
		DiscoveryTokenEndpoint:         base + "/token",
		DiscoveryIntrospectionEndpoint: base + "/token/introspect",
		DiscoveryEndSessionEndpoint:    base + "/logout",
		DiscoveryUserinfoEndpoint:      base + "/userinfo",
	}
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, status int, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(out)
}

func (p *TestProvider) writeErrorResponse(w http.ResponseWriter, status int, errorCode, errorMessage string) {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	p.writeJSON(w, status, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := strings.TrimPrefix(req.URL.Path, testProviderBasePath)
	if path == req.URL.Path {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	for key, endpoint := range p.endpoints() {
		if p.disabled[key] && endpoint == p.Issuer()+path {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	}

	switch path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := map[string]interface{}{
			"issuer":                 p.Issuer(),
			"authorization_endpoint": p.Issuer() + "/protocol/openid-connect/auth",
			"jwks_uri":               p.JWKSURL(),
			"grant_types_supported":  []string{"password", "refresh_token"},
			"response_types_supported": []string{
				"code", "none", "id_token", "token",
			},
			"id_token_signing_alg_values_supported": []string{string(jose.ES256)},
		}
		for key, endpoint := range p.endpoints() {
			if !p.disabled[key] {
				reply[key] = endpoint
			}
		}
		if !p.disabled[DiscoveryIntrospectionEndpoint] {
			reply["introspection_endpoint"] = reply[DiscoveryIntrospectionEndpoint]
		}
		p.writeJSON(w, http.StatusOK, reply)

	case "/protocol/openid-connect/certs":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.writeJSON(w, http.StatusOK, p.jwks)

	case "/protocol/openid-connect/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if req.FormValue("client_id") != p.clientID {
			p.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized_client", "Invalid client credentials")
			return
		}
		switch req.FormValue("grant_type") {
		case "password":
			username := req.FormValue("username")
			want, ok := p.users[username]
			if !ok || want != req.FormValue("password") {
				p.writeErrorResponse(w, http.StatusUnauthorized, "invalid_grant", "Invalid user credentials")
				return
			}
			sid, err := id.New("s")
			if err != nil {
				p.writeErrorResponse(w, http.StatusInternalServerError, "server_error", err.Error())
				return
			}
			s := &testSession{id: sid, username: username, active: true}
			p.sessions[sid] = s
			p.writeTokenReply(w, s)
		case "refresh_token":
			rt := req.FormValue("refresh_token")
			s := p.sessionForRefreshToken(rt)
			if s == nil {
				p.writeErrorResponse(w, http.StatusBadRequest, "invalid_grant", "Invalid refresh token")
				return
			}
			// refresh tokens are single use
			delete(p.refreshTokens, rt)
			p.writeTokenReply(w, s)
		default:
			p.writeErrorResponse(w, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant_type")
		}

	case "/protocol/openid-connect/userinfo":
		if req.Method != http.MethodGet && req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		raw, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
		if !ok {
			p.writeErrorResponse(w, http.StatusUnauthorized, "invalid_request", "Missing bearer token")
			return
		}
		claims, s, ok := p.verifyAccessToken(raw)
		if !ok {
			p.writeErrorResponse(w, http.StatusUnauthorized, "invalid_token", "Token verification failed")
			return
		}
		reply := map[string]interface{}{}
		for k, v := range p.replyUserinfo {
			reply[k] = v
		}
		reply["sub"] = claims.Subject
		reply["preferred_username"] = s.username
		p.writeJSON(w, http.StatusOK, reply)

	case "/protocol/openid-connect/token/introspect":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if req.FormValue("client_id") != p.clientID || req.FormValue("client_secret") != p.clientSecret {
			p.writeErrorResponse(w, http.StatusUnauthorized, "invalid_client", "Invalid client credentials")
			return
		}
		token := req.FormValue("token")
		if claims, s, ok := p.verifyAccessToken(token); ok {
			p.writeJSON(w, http.StatusOK, map[string]interface{}{
				"active":     true,
				"token_type": "Bearer",
				"client_id":  p.clientID,
				"username":   s.username,
				"sub":        claims.Subject,
				"sid":        s.id,
				"iss":        claims.Issuer,
				"exp":        claims.Expiry.Time().Unix(),
				"iat":        claims.IssuedAt.Time().Unix(),
			})
			return
		}
		if s := p.sessionForRefreshToken(token); s != nil {
			p.writeJSON(w, http.StatusOK, map[string]interface{}{
				"active":     true,
				"token_type": "Refresh",
				"client_id":  p.clientID,
				"username":   s.username,
				"sid":        s.id,
			})
			return
		}
		p.writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})

	case "/protocol/openid-connect/logout":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if req.FormValue("client_id") != p.clientID {
			p.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized_client", "Invalid client credentials")
			return
		}
		s := p.sessionForRefreshToken(req.FormValue("refresh_token"))
		if s == nil {
			p.writeErrorResponse(w, http.StatusBadRequest, "invalid_grant", "Invalid refresh token")
			return
		}
		s.active = false
		for rt, sid := range p.refreshTokens {
			if sid == s.id {
				delete(p.refreshTokens, rt)
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// writeTokenReply issues a new access and refresh token for the session.
// Callers must hold p.mu.
func (p *TestProvider) writeTokenReply(w http.ResponseWriter, s *testSession) {
	now := time.Now()
	stdClaims := jwt.Claims{
		Subject:   s.username,
		Issuer:    p.Issuer(),
		Audience:  jwt.Audience{p.clientID},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(p.expiry)),
	}
	jti, err := id.New("at")
	if err != nil {
		p.writeErrorResponse(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	stdClaims.ID = jti
	privateClaims := map[string]interface{}{
		"sid":                s.id,
		"azp":                p.clientID,
		"typ":                "Bearer",
		"preferred_username": s.username,
	}
	accessToken, err := signJWT(p.signingKey, p.keyID, stdClaims, privateClaims)
	if err != nil {
		p.writeErrorResponse(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	refreshToken, err := id.New("rt")
	if err != nil {
		p.writeErrorResponse(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	p.refreshTokens[refreshToken] = s.id

	p.writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":       accessToken,
		"expires_in":         int64(p.expiry / time.Second),
		"refresh_expires_in": 1800,
		"refresh_token":      refreshToken,
		"token_type":         "Bearer",
		"not-before-policy":  0,
		"session_state":      s.id,
		"scope":              "profile email",
	})
}

// verifyAccessToken checks the token's signature, issuer, expiry and session.
// Callers must hold p.mu.
func (p *TestProvider) verifyAccessToken(raw string) (*jwt.Claims, *testSession, bool) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.ES256})
	if err != nil {
		return nil, nil, false
	}
	var stdClaims jwt.Claims
	var privateClaims struct {
		SessionID string `json:"sid"`
	}
	if err := tok.Claims(&p.signingKey.PublicKey, &stdClaims, &privateClaims); err != nil {
		return nil, nil, false
	}
	if err := stdClaims.ValidateWithLeeway(jwt.Expected{Issuer: p.Issuer(), Time: time.Now()}, 0); err != nil {
		return nil, nil, false
	}
	s, ok := p.sessions[privateClaims.SessionID]
	if !ok || !s.active {
		return nil, nil, false
	}
	return &stdClaims, s, true
}

// sessionForRefreshToken returns the active session of the refresh token, or
// nil. Callers must hold p.mu.
func (p *TestProvider) sessionForRefreshToken(rt string) *testSession {
	sid, ok := p.refreshTokens[rt]
	if !ok {
		return nil
	}
	s, ok := p.sessions[sid]
	if !ok || !s.active {
		return nil
	}
	return s
}

// httptestNewUnstartedServerWithPort is roughly the same as
// httptest.NewUnstartedServer() but allows the caller to explicitly choose the
// port if desired.
func httptestNewUnstartedServerWithPort(t *testing.T, handler http.Handler, port int) *httptest.Server {
	t.Helper()
	require := require.New(t)
	require.NotEmpty(port)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	l, err := net.Listen("tcp", addr)
	require.NoError(err)

	return &httptest.Server{
		Listener: l,
		Config:   &http.Server{Handler: handler},
	}
}
