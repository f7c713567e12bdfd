package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenSource returns the configured token source, or nil when no
// credentials are set. ctx is retained for token refreshes.
func (c Conf) TokenSource(ctx context.Context) oauth2.TokenSource {
	switch {
	case c.Token != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token})
	case c.ClientID != "":
		return c.clientCredentials().TokenSource(ctx)
	default:
		return nil
	}
}

// Client returns an HTTP client adding the bearer token to every request.
// Tokens from a client-credentials grant are cached and refreshed when they
// expire. base, when non-nil, carries both token and resource requests.
// Without credentials base (or http.DefaultClient) is returned as is.
func (c Conf) Client(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if !c.Enabled() {
		return base
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, c.TokenSource(ctx))
}
