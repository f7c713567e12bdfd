package auth

import (
	"errors"

	"golang.org/x/oauth2/clientcredentials"
)

// Conf holds credentials for an authenticated HTTP source. Either a static
// bearer token or an OAuth2 client-credentials grant may be configured.
type Conf struct {
	Token        string   `json:"token"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether any credential is configured.
func (c Conf) Enabled() bool { return c.Token != "" || c.ClientID != "" }

// Validate checks that a client-credentials grant is complete.
func (c Conf) Validate() error {
	if c.Token != "" && c.ClientID != "" {
		return errors.New("auth: set either token or client_id, not both")
	}
	if c.ClientID != "" && c.TokenURL == "" {
		return errors.New("auth: token_url is required with client_id")
	}
	return nil
}

func (c Conf) clientCredentials() *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
