// oidcc (OpenID Connect client) provides a minimal client for OpenID Connect
// providers such as Keycloak: endpoint discovery, the password and
// refresh_token grants, userinfo, token introspection and logout, plus local
// verification of the JWT access tokens the provider issues.
//
// See the oidc and jwt packages.
package oidcc
