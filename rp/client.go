// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"gopkg.in/square/go-jose.v2"
)

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Token is the result of a successful token request.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time

	// RawIDToken is the encrypted id_token as returned by the provider.
	RawIDToken string
	IDToken    *IDToken
}

// Client is a relying party of a mock identity provider. It drives the
// authorization code and refresh token grants and verifies every identity
// token it receives.
type Client struct {
	metadata   *Metadata
	config     oauth2.Config
	httpClient *http.Client
	verifier   *IDTokenVerifier
	logger     hclog.Logger

	// backgroundCtx is used by the remote key set for the life of the
	// client.
	backgroundCtx       context.Context
	backgroundCtxCancel context.CancelFunc
}

// NewClient discovers the provider whose metadata is at metadataURL and
// returns a Client for it. decryptionKey is the relying party's private key
// that identity tokens are encrypted for. Call Done to release the client's
// resources.
//
// Supported options:
//   - WithScopes
//   - WithProviderCA
//   - WithHTTPClient
//   - WithLogger
//   - WithNow
//   - WithSupportedSigningAlgs
func NewClient(ctx context.Context, metadataURL, clientID string, clientSecret ClientSecret, redirectURL string, decryptionKey *jose.JSONWebKey, opt ...Option) (*Client, error) {
	const op = "rp.NewClient"
	switch {
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	case redirectURL == "":
		return nil, fmt.Errorf("%s: redirect URL is empty: %w", op, ErrInvalidParameter)
	}
	opts := getClientOpts(opt...)

	httpClient := opts.withHTTPClient
	if httpClient == nil {
		var err error
		if httpClient, err = newHTTPClient(opts.withProviderCA); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	m, err := FetchMetadata(ctx, httpClient, metadataURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	backgroundCtx, cancel := context.WithCancel(context.Background())
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(backgroundCtx, httpClient), m.JWKSURI)
	verifier, err := NewIDTokenVerifier(m.Issuer, clientID, decryptionKey, keySet, opts.verifierOptions...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Client{
		metadata: m,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: string(clientSecret),
			RedirectURL:  redirectURL,
			Endpoint:     m.Endpoint(),
			Scopes:       append([]string{oidc.ScopeOpenID}, opts.withScopes...),
		},
		httpClient:          httpClient,
		verifier:            verifier,
		logger:              opts.withLogger,
		backgroundCtx:       backgroundCtx,
		backgroundCtxCancel: cancel,
	}, nil
}

// Done releases the client's background resources.
func (c *Client) Done() {
	if c.backgroundCtxCancel != nil {
		c.backgroundCtxCancel()
		c.backgroundCtxCancel = nil
	}
}

// Metadata returns the discovered provider metadata.
func (c *Client) Metadata() Metadata {
	return *c.metadata
}

// Verifier returns the client's identity token verifier.
func (c *Client) Verifier() *IDTokenVerifier {
	return c.verifier
}

// AuthURL returns the URL that starts an authorization code flow.
func (c *Client) AuthURL(state, nonce string) (string, error) {
	const op = "rp.(Client).AuthURL"
	if state == "" {
		return "", fmt.Errorf("%s: state is empty: %w", op, ErrInvalidParameter)
	}
	if nonce != "" && nonce == state {
		return "", fmt.Errorf("%s: state and nonce cannot be equal: %w", op, ErrInvalidParameter)
	}
	var authOpts []oauth2.AuthCodeOption
	if nonce != "" {
		authOpts = append(authOpts, oidc.Nonce(nonce))
	}
	return c.config.AuthCodeURL(state, authOpts...), nil
}

// Exchange redeems an authorization code. The returned identity token has
// been decrypted and verified, and when nonce is not empty it carries that
// nonce. A code the provider rejects is returned as ErrInvalidGrant.
func (c *Client) Exchange(ctx context.Context, code, nonce string) (*Token, error) {
	const op = "rp.(Client).Exchange"
	if code == "" {
		return nil, fmt.Errorf("%s: code is empty: %w", op, ErrInvalidParameter)
	}
	c.logger.Debug("exchanging authorization code", "token_endpoint", c.metadata.TokenEndpoint)
	tk, err := c.config.Exchange(oidc.ClientContext(ctx, c.httpClient), code)
	if err != nil {
		return nil, exchangeError(op, err)
	}
	t, err := c.verify(ctx, tk, nonce)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Refresh exchanges a refresh token for new tokens. A refresh token the
// provider rejects is returned as ErrInvalidGrant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	const op = "rp.(Client).Refresh"
	if refreshToken == "" {
		return nil, fmt.Errorf("%s: refresh token is empty: %w", op, ErrInvalidParameter)
	}
	c.logger.Debug("refreshing tokens", "token_endpoint", c.metadata.TokenEndpoint)
	ts := c.config.TokenSource(oidc.ClientContext(ctx, c.httpClient), &oauth2.Token{RefreshToken: refreshToken})
	tk, err := ts.Token()
	if err != nil {
		return nil, exchangeError(op, err)
	}
	t, err := c.verify(ctx, tk, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func (c *Client) verify(ctx context.Context, tk *oauth2.Token, nonce string) (*Token, error) {
	const op = "rp.(Client).verify"
	raw, ok := tk.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%s: id_token is missing from token response: %w", op, ErrMissingIDToken)
	}
	idToken, err := c.verifier.Verify(ctx, raw, nonce)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := idToken.VerifyAccessToken(tk.AccessToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Token{
		AccessToken:  tk.AccessToken,
		RefreshToken: tk.RefreshToken,
		Expiry:       tk.Expiry,
		RawIDToken:   raw,
		IDToken:      idToken,
	}, nil
}

// exchangeError maps an OAuth2 error response of invalid_grant to
// ErrInvalidGrant.
func exchangeError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if jsonErr := json.Unmarshal(re.Body, &body); jsonErr == nil && body.Error == "invalid_grant" {
			return fmt.Errorf("%s: %s: %w", op, body.ErrorDescription, ErrInvalidGrant)
		}
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrExchangeFailed)
}

// newHTTPClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.
func newHTTPClient(caPEM string) (*http.Client, error) {
	const op = "rp.newHTTPClient"
	tr := cleanhttp.DefaultPooledTransport()
	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs: certPool,
		}
	}
	return &http.Client{
		Transport: tr,
	}, nil
}
