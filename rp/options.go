// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// DefaultSigningAlgs are the identity token signature algorithms accepted when
// none are configured.
var DefaultSigningAlgs = []string{"RS256", "ES256"}

type verifierOptions struct {
	withNow                  func() time.Time
	withSupportedSigningAlgs []string
}

func verifierDefaults() verifierOptions {
	return verifierOptions{
		withNow:                  time.Now,
		withSupportedSigningAlgs: DefaultSigningAlgs,
	}
}

func getVerifierOpts(opt ...Option) verifierOptions {
	opts := verifierDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

type clientOptions struct {
	withScopes      []string
	withProviderCA  string
	withHTTPClient  *http.Client
	withLogger      hclog.Logger
	verifierOptions []Option
}

func clientDefaults() clientOptions {
	return clientOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithNow provides an optional clock used when checking token expiry.
// Valid for: IDTokenVerifier and Client
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if now == nil {
			return
		}
		switch v := o.(type) {
		case *verifierOptions:
			v.withNow = now
		case *clientOptions:
			v.verifierOptions = append(v.verifierOptions, WithNow(now))
		}
	}
}

// WithSupportedSigningAlgs overrides the accepted signature algorithms.
// Valid for: IDTokenVerifier and Client
func WithSupportedSigningAlgs(algs ...string) Option {
	return func(o interface{}) {
		if len(algs) == 0 {
			return
		}
		switch v := o.(type) {
		case *verifierOptions:
			v.withSupportedSigningAlgs = algs
		case *clientOptions:
			v.verifierOptions = append(v.verifierOptions, WithSupportedSigningAlgs(algs...))
		}
	}
}

// WithScopes provides scopes requested in addition to "openid".
// Valid for: Client
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withScopes = append(o.withScopes, scopes...)
		}
	}
}

// WithProviderCA provides a PEM encoded CA certificate used to verify the
// provider's TLS certificate.
// Valid for: Client
func WithProviderCA(caPEM string) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withProviderCA = caPEM
		}
	}
}

// WithHTTPClient provides the HTTP client used to talk to the provider. It
// takes precedence over WithProviderCA.
// Valid for: Client
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithLogger provides an optional logger.
// Valid for: Client
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
