// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/token"
	"gopkg.in/square/go-jose.v2"
)

// Provider is the mock identity provider: one IdP per variant, all signing
// with the same key and encrypting for the same relying party.
type Provider struct {
	idps          map[profile.Variant]*IdP
	jwks          *jose.JSONWebKeySet
	showLoginPage bool
	logger        hclog.Logger
}

// NewProvider creates a Provider which signs identity tokens with signingKey
// and encrypts them for the relying party's encryptionKey. Call Done to stop
// its background sweeping.
//
// Supported options:
//   - WithLogger
//   - WithShowLoginPage
//   - WithDefaultNRIC
//   - WithAuthCodeTTL
//   - WithSweepInterval
//   - WithNow
//   - WithRegistry
func NewProvider(signingKey, encryptionKey *jose.JSONWebKey, opt ...Option) (*Provider, error) {
	const op = "provider.NewProvider"
	if signingKey == nil {
		return nil, fmt.Errorf("%s: missing signing key: %w", op, ErrNilParameter)
	}
	if encryptionKey == nil {
		return nil, fmt.Errorf("%s: missing encryption key: %w", op, ErrNilParameter)
	}
	jwks, err := token.PublicKeySet(signingKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getOpts(opt...)

	p := &Provider{
		idps:          make(map[profile.Variant]*IdP, len(profile.Variants())),
		jwks:          jwks,
		showLoginPage: opts.withShowLoginPage,
		logger:        opts.withLogger,
	}
	for _, v := range profile.Variants() {
		registry, ok := opts.withRegistries[v]
		if !ok {
			if registry, err = profile.DefaultRegistry(v, profile.WithDefaultNRIC(opts.withDefaultNRIC)); err != nil {
				p.Done()
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		idp, err := NewIdP(registry, signingKey, encryptionKey, opt...)
		if err != nil {
			p.Done()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.idps[v] = idp
	}
	return p, nil
}

// IdP returns the identity provider of the variant.
func (p *Provider) IdP(v profile.Variant) (*IdP, bool) {
	idp, ok := p.idps[v]
	return idp, ok
}

// KeySet returns the published signing keys.
func (p *Provider) KeySet() *jose.JSONWebKeySet {
	return p.jwks
}

// Routes returns the HTTP handler serving every variant under its own path
// segment.
func (p *Provider) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logRequests(p.logger))
	r.Use(middleware.Recoverer)

	for _, v := range profile.Variants() {
		h := &variantHandler{
			idp:           p.idps[v],
			jwks:          p.jwks,
			showLoginPage: p.showLoginPage,
			logger:        p.logger.Named(v.Segment()),
		}
		r.Route("/"+v.Segment(), h.routes)
	}
	return r
}

// Done stops the background sweeping of every IdP.
func (p *Provider) Done() {
	for _, idp := range p.idps {
		idp.Done()
	}
}
