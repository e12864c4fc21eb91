package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleIdentity is the provider assertion decoded from the userinfo
// endpoint, validated before it touches the credential store.
type GoogleIdentity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAuth drives the OAuth consent and callback exchange.
type GoogleAuth struct {
	config *oauth2.Config
}

// NewGoogleAuth builds the OAuth config for the profile+email scopes.
func NewGoogleAuth(clientID, clientSecret, redirectURL string) *GoogleAuth {
	return &GoogleAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// ConsentURL returns the provider consent redirect for the given state.
func (g *GoogleAuth) ConsentURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades the callback code for the provider identity.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*GoogleIdentity, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}

	client := g.config.Client(ctx, tok)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var identity GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if identity.ID == "" || identity.Email == "" {
		return nil, errors.New("userinfo missing id or email")
	}
	return &identity, nil
}
