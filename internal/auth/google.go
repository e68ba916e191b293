package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// OAuthProvider abstracts the provider-side redirect/callback exchange. The
// auth core only consumes its result; the wire protocol lives behind this
// interface.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleProfile, error)
}

// GoogleProvider performs the OAuth code exchange and ID-token verification
// against Google's OIDC endpoints.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewGoogleProvider discovers Google's OIDC configuration and prepares the
// OAuth client. Call it only when credentials are configured.
func NewGoogleProvider(ctx context.Context, clientID, clientSecret, callbackURL string) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("auth: discover google oidc provider: %w", err)
	}
	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  callbackURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthCodeURL builds the provider redirect URL for the given state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for a verified profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (GoogleProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("auth: exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return GoogleProfile{}, fmt.Errorf("auth: missing id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("auth: verify id token: %w", err)
	}

	var claims struct {
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return GoogleProfile{}, fmt.Errorf("auth: parse id token claims: %w", err)
	}
	if idToken.Subject == "" {
		return GoogleProfile{}, fmt.Errorf("auth: id token missing subject")
	}
	return GoogleProfile{
		Subject:     idToken.Subject,
		DisplayName: claims.Name,
		GivenName:   claims.GivenName,
		FamilyName:  claims.FamilyName,
		Picture:     claims.Picture,
	}, nil
}

var _ OAuthProvider = (*GoogleProvider)(nil)
