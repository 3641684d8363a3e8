// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/store"
	"github.com/hashicorp/mockpass/token"
	"gopkg.in/square/go-jose.v2"
)

const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// AuthorizeRequest is an authorization request from a relying party.
type AuthorizeRequest struct {
	ClientID    string
	RedirectURI string
	State       string
	Nonce       string

	// Interactive asks for every profile to be offered to the user instead of
	// resolving one directly.
	Interactive bool

	// Override holds caller supplied profile attributes. They are only used
	// when every attribute the variant requires is present.
	Override profile.Attributes
}

// Choice is one profile offered by the chooser.
type Choice struct {
	ID        string
	AssertURL string
}

// Selection is the outcome of an authorization request: either the choices to
// render, or the redirect for a directly resolved profile.
type Selection struct {
	Choices []Choice

	Profile     profile.Profile
	RedirectURL string
}

// Interactive reports whether the selection must be rendered as a chooser.
func (s *Selection) Interactive() bool {
	return s.RedirectURL == ""
}

// TokenRequest is a token endpoint request.
type TokenRequest struct {
	GrantType    string
	Code         string
	RefreshToken string
	ClientID     string
	RedirectURI  string

	// Issuer is the iss of the identity token.
	Issuer string
}

// IdP is one identity provider variant: its personas, its authorization codes
// and refresh tokens, and the shape of the tokens it issues. Nothing is shared
// between variants.
type IdP struct {
	registry  *profile.Registry
	codes     *store.AuthCodeStore
	refresh   *store.RefreshTokenStore
	assembler *token.Assembler
	logger    hclog.Logger
}

// NewIdP creates the identity provider for the registry's variant. Call Done
// to stop its stores' background sweeping.
//
// Supported options:
//   - WithAuthCodeTTL
//   - WithSweepInterval
//   - WithNow
//   - WithLogger
func NewIdP(registry *profile.Registry, signingKey, encryptionKey *jose.JSONWebKey, opt ...Option) (*IdP, error) {
	const op = "provider.NewIdP"
	if registry == nil {
		return nil, fmt.Errorf("%s: missing registry: %w", op, ErrNilParameter)
	}
	claims, err := token.ClaimsFor(registry.Variant())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getOpts(opt...)
	logger := opts.withLogger.Named(registry.Variant().Segment())

	storeOpts := []store.Option{
		store.WithNow(opts.withNow),
		store.WithSweepInterval(opts.withSweepInterval),
		store.WithLogger(logger),
	}
	codes, err := store.NewAuthCodeStore(opts.withAuthCodeTTL, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := store.NewRefreshTokenStore(storeOpts...)
	if err != nil {
		codes.Done()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	assembler, err := token.NewAssembler(signingKey, encryptionKey, refresh, claims,
		token.WithNow(opts.withNow),
		token.WithLogger(logger),
	)
	if err != nil {
		codes.Done()
		refresh.Done()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &IdP{
		registry:  registry,
		codes:     codes,
		refresh:   refresh,
		assembler: assembler,
		logger:    logger,
	}, nil
}

// Variant returns the identity provider's variant.
func (i *IdP) Variant() profile.Variant { return i.registry.Variant() }

// Registry returns the identity provider's personas.
func (i *IdP) Registry() *profile.Registry { return i.registry }

// Done stops the background sweeping of the identity provider's stores.
func (i *IdP) Done() {
	i.codes.Done()
	i.refresh.Done()
}

// Resolve picks the profile a direct login uses: a complete override, else the
// configured default, else the first persona.
func (i *IdP) Resolve(override profile.Attributes) profile.Profile {
	if p, ok := i.Variant().Override(override); ok {
		return p
	}
	if p, ok := i.registry.Default(); ok {
		return p
	}
	return i.registry.First()
}

// Authorize handles an authorization request. Interactive requests issue a
// code for every persona so each choice is a ready to follow redirect.
func (i *IdP) Authorize(ctx context.Context, r AuthorizeRequest) (*Selection, error) {
	const op = "provider.(IdP).Authorize"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if r.RedirectURI == "" {
		return nil, fmt.Errorf("%s: missing redirect_uri: %w", op, ErrInvalidRequest)
	}

	if r.Interactive {
		profiles := i.registry.Profiles()
		choices := make([]Choice, 0, len(profiles))
		for _, p := range profiles {
			code, err := i.codes.Issue(p, r.Nonce)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			choices = append(choices, Choice{
				ID:        i.registry.DisplayID(p),
				AssertURL: AssertURL(r.RedirectURI, code, r.State),
			})
		}
		return &Selection{Choices: choices}, nil
	}

	p := i.Resolve(r.Override)
	code, err := i.codes.Issue(p, r.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	i.logger.Info("redirecting login", "client_id", r.ClientID, "redirect_uri", r.RedirectURI)
	return &Selection{
		Profile:     p,
		RedirectURL: AssertURL(r.RedirectURI, code, r.State),
	}, nil
}

// AuthorizeCustom logs in as a profile built from exactly the submitted
// attributes.
func (i *IdP) AuthorizeCustom(ctx context.Context, attrs profile.Attributes, redirectURI, state, nonce string) (*Selection, error) {
	const op = "provider.(IdP).AuthorizeCustom"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if redirectURI == "" {
		return nil, fmt.Errorf("%s: missing redirectURI: %w", op, ErrInvalidRequest)
	}
	p := i.Variant().Build(attrs)
	code, err := i.codes.Issue(p, nonce)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	i.logger.Info("redirecting custom profile login", "nric", p.NRIC, "redirect_uri", redirectURI)
	return &Selection{
		Profile:     p,
		RedirectURL: AssertURL(redirectURI, code, state),
	}, nil
}

// Token resolves the request's grant to a profile and assembles tokens for
// it. A code or refresh token which cannot be resolved is returned as
// store.ErrInvalidGrant and never reaches the assembler.
func (i *IdP) Token(ctx context.Context, r TokenRequest) (*token.Response, error) {
	const op = "provider.(IdP).Token"
	var (
		p     profile.Profile
		nonce string
	)
	switch r.GrantType {
	case GrantAuthorizationCode:
		i.logger.Info("received auth code", "client_id", r.ClientID, "redirect_uri", r.RedirectURI)
		pending, err := i.codes.Redeem(r.Code)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p, nonce = pending.Profile, pending.Nonce
	case GrantRefreshToken:
		i.logger.Info("refreshing tokens", "client_id", r.ClientID)
		binding, err := i.refresh.Lookup(r.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p = binding.Profile
	default:
		return nil, fmt.Errorf("%s: %q: %w", op, r.GrantType, ErrUnsupportedGrantType)
	}

	resp, err := i.assembler.Assemble(ctx, token.Request{
		Profile:  p,
		Nonce:    nonce,
		Issuer:   r.Issuer,
		Audience: r.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

// AssertURL appends the percent-encoded code and state to redirectURI. The
// query is appended as is, so redirectURI is expected to have no query of its
// own.
func AssertURL(redirectURI, code, state string) string {
	return redirectURI + "?code=" + percentEncode(code) + "&state=" + percentEncode(state)
}

// percentEncode escapes s for a query component, encoding spaces as %20
// rather than the form encoding's "+".
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
