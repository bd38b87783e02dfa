// Package oidc talks to an OpenID Connect provider on behalf of a trusted
// client that holds user credentials, such as a gateway that logs in devices
// with a username and password.
//
// # Primary types provided by the package
//
//   - Config: the four provider endpoints the client needs (token,
//     introspection, end session and userinfo). A Config is built from
//     explicit values with NewConfig, from a decoded document with
//     NewConfigFromMap, or from the provider's well-known configuration with
//     Discover.
//   - Client: sends one request per operation to the configured endpoints:
//     Token (password grant), Refresh (refresh_token grant), UserInfo,
//     Introspect and EndSession. Successful responses are returned as decoded
//     JSON objects, unmodified. Configure discovers a Config and returns a
//     Client in one step.
//   - ResponseError: returned when the provider answers with an unexpected
//     status, or with a body that isn't a JSON object. It carries the status
//     code and raw body, and matches the operation's sentinel
//     (ErrTokenRequest, ErrRefresh, ErrUserinfo, ErrIntrospection,
//     ErrEndSession or ErrDiscovery) with errors.Is.
//   - TestProvider: a local server emulating a Keycloak realm for testing
//     code that uses a Client.
//
// Ambient concerns are options: WithLogger (hclog), WithMetrics
// (Prometheus), WithTracerProvider (OpenTelemetry) and WithHTTPClient.
//
// # The jwt package
//
// Access tokens issued by the provider can be verified locally with the jwt
// package and the provider's JSON web key set (see TestProvider.JWKSURL).
package oidc
