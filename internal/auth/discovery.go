package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DiscoveredEndpoints are the endpoints read from an issuer's
// /.well-known/openid-configuration document.
type DiscoveredEndpoints struct {
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// DiscoverEndpoints fetches the OIDC discovery document for issuer.
func DiscoverEndpoints(ctx context.Context, issuer string, httpClient *http.Client) (*DiscoveredEndpoints, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider %s: %w", issuer, err)
	}

	return &DiscoveredEndpoints{
		Endpoint:    provider.Endpoint(),
		UserInfoURL: provider.UserInfoEndpoint(),
	}, nil
}

// Apply fills the endpoints in cfg that are still unset.
func (d *DiscoveredEndpoints) Apply(cfg OAuthConfig) OAuthConfig {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint.AuthURL = d.Endpoint.AuthURL
	}
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint.TokenURL = d.Endpoint.TokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = d.UserInfoURL
	}
	return cfg
}
