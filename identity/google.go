package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// ErrNoIDToken reports a token response without an id_token, which means
// the authorization code was not issued with the openid scope.
var ErrNoIDToken = errors.New("identity: token response carries no id_token")

// Tokens is the provider token material obtained from a code exchange.
type Tokens struct {
	AccessToken string
	IDToken     string
}

// Profile is the subset of the provider's userinfo the engine needs.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleConfig configures a Google client. Endpoint and UserInfoURL exist
// so tests can point the client at a local server; leave them zero in
// production.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	HTTPClient   *http.Client
}

// Google exchanges authorization codes and fetches user profiles against
// Google's OAuth 2.0 endpoints. Safe for concurrent use.
type Google struct {
	conf        *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewGoogle builds a Google identity-provider client.
func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("identity: google client id and secret are required")
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = googleEndpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultGoogleUserInfoURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: userInfoURL,
		client:      client,
	}, nil
}

// ExchangeCode trades an authorization code for provider tokens.
func (g *Google) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return Tokens{}, fmt.Errorf("identity: google code exchange: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	return Tokens{AccessToken: tok.AccessToken, IDToken: idToken}, nil
}

// FetchProfile reads the userinfo document for the given tokens.
func (g *Google) FetchProfile(ctx context.Context, tokens Tokens) (Profile, error) {
	u, err := url.Parse(g.userInfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("identity: userinfo url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", tokens.AccessToken)
	q.Set("alt", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("identity: userinfo request: %w", err)
	}
	if tokens.IDToken != "" {
		req.Header.Set("Authorization", "Bearer "+tokens.IDToken)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("identity: userinfo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Profile{}, fmt.Errorf("identity: userinfo status %d: %s", resp.StatusCode, body)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("identity: decode userinfo: %w", err)
	}
	return profile, nil
}
