package oidc_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/meteocima/oidcc/oidc"
	"github.com/prometheus/client_golang/prometheus"
)

func Example() {
	ctx := context.Background()

	// Discover the endpoints of a Keycloak realm and create a client
	client, err := oidc.Configure(ctx, "https://your-keycloak/realms/your-realm/.well-known/openid-configuration")
	if err != nil {
		// handle error
	}

	// Log in with the resource owner's credentials, never hardcode them
	tokens, err := client.Token(ctx, "your_client_id", os.Getenv("OIDC_USERNAME"), oidc.Password(os.Getenv("OIDC_PASSWORD")))
	if err != nil {
		// handle error
	}

	claims, err := client.UserInfo(ctx, tokens.AccessToken())
	if err != nil {
		// handle error
	}
	fmt.Println(claims["preferred_username"])

	// Exchange the refresh token for a new token set
	tokens, err = client.Refresh(ctx, "your_client_id", tokens.RefreshToken())
	if err != nil {
		// handle error
	}

	// Log out
	if err := client.EndSession(ctx, "your_client_id", tokens.RefreshToken()); err != nil {
		// handle error
	}
}

func ExampleNewConfig() {
	c, err := oidc.NewConfig(
		"https://your-keycloak/realms/your-realm/protocol/openid-connect/token",
		"https://your-keycloak/realms/your-realm/protocol/openid-connect/token/introspect",
		"https://your-keycloak/realms/your-realm/protocol/openid-connect/logout",
		"https://your-keycloak/realms/your-realm/protocol/openid-connect/userinfo",
	)
	if err != nil {
		// handle error
	}
	fmt.Println(c.TokenEndpoint)

	// Output:
	// https://your-keycloak/realms/your-realm/protocol/openid-connect/token
}

func ExampleNewConfigFromMap() {
	_, err := oidc.NewConfigFromMap(map[string]interface{}{
		"token_endpoint":    "https://your-keycloak/token",
		"userinfo_endpoint": "https://your-keycloak/userinfo",
	})
	fmt.Println(errors.Is(err, oidc.ErrConfiguration))

	// Output:
	// true
}

func ExampleNewClient() {
	c, err := oidc.NewConfig(
		"https://your-keycloak/token",
		"https://your-keycloak/token/introspect",
		"https://your-keycloak/logout",
		"https://your-keycloak/userinfo",
	)
	if err != nil {
		// handle error
	}

	metrics, err := oidc.NewMetrics("gateway", prometheus.NewRegistry())
	if err != nil {
		// handle error
	}

	client, err := oidc.NewClient(c,
		oidc.WithTimeout(10*time.Second),
		oidc.WithLogger(hclog.New(&hclog.LoggerOptions{Name: "oidc", Level: hclog.Debug})),
		oidc.WithMetrics(metrics),
		oidc.WithUserAgent("gateway/1.0"),
	)
	if err != nil {
		// handle error
	}
	fmt.Println(client.Config().UserinfoEndpoint)

	// Output:
	// https://your-keycloak/userinfo
}

func ExampleClient_Introspect() {
	ctx := context.Background()
	client, err := oidc.Configure(ctx, "https://your-keycloak/realms/your-realm/.well-known/openid-configuration")
	if err != nil {
		// handle error
	}

	result, err := client.Introspect(ctx, "your_client_id", oidc.ClientSecret(os.Getenv("OIDC_CLIENT_SECRET")), "token")
	var respErr *oidc.ResponseError
	switch {
	case errors.As(err, &respErr):
		fmt.Println(respErr.StatusCode, string(respErr.Body))
	case err != nil:
		// transport error
	case !result.Active():
		fmt.Println("token is not active")
	}
}
