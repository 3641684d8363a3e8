// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/token"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
)

// TestProvider is a Provider served by a local test server with freshly
// generated keys. It is stopped when the test ends.
type TestProvider struct {
	Provider *Provider

	httpServer *httptest.Server
	client     *http.Client

	signingKey *jose.JSONWebKey
	rpPrivate  *jose.JSONWebKey
	rpPublic   *jose.JSONWebKey
}

// StartTestProvider starts a TestProvider. Sweeping is disabled unless an
// option enables it.
func StartTestProvider(t *testing.T, opt ...Option) *TestProvider {
	t.Helper()
	require := require.New(t)

	tp := &TestProvider{}
	tp.signingKey, tp.rpPrivate, tp.rpPublic = token.TestGenerateKeys(t)

	p, err := NewProvider(tp.signingKey, tp.rpPublic, append([]Option{WithSweepInterval(0)}, opt...)...)
	require.NoError(err)
	tp.Provider = p
	t.Cleanup(p.Done)

	tp.httpServer = httptest.NewServer(p.Routes())
	t.Cleanup(tp.httpServer.Close)

	tp.client = cleanhttp.DefaultClient()
	tp.client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return tp
}

// Addr is the base URL of the test server, which is also the issuer.
func (tp *TestProvider) Addr() string { return tp.httpServer.URL }

// URL returns the address of a variant's endpoint, e.g. URL(profile.SingPass,
// "/token").
func (tp *TestProvider) URL(v profile.Variant, path string) string {
	return tp.Addr() + "/" + v.Segment() + path
}

// HTTPClient returns a client which does not follow redirects.
func (tp *TestProvider) HTTPClient() *http.Client { return tp.client }

// SigningKey is the provider's private signing key.
func (tp *TestProvider) SigningKey() *jose.JSONWebKey { return tp.signingKey }

// RelyingPartyKeys are the key pair identity tokens are encrypted for.
func (tp *TestProvider) RelyingPartyKeys() (private, public *jose.JSONWebKey) {
	return tp.rpPrivate, tp.rpPublic
}
