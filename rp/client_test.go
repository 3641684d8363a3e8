// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/mockpass/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// testTokenServer serves metadata and a token endpoint whose response is
// chosen by the code or refresh token presented.
func testTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/singpass/metadata", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Metadata{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/singpass/authorize",
			TokenEndpoint:         srv.URL + "/singpass/token",
			JWKSURI:               srv.URL + "/singpass/jwks",
		})
	})
	mux.HandleFunc("/singpass/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("code") + r.PostForm.Get("refresh_token") {
		case "no-id-token":
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":86400}`))
		case "server-error":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"server_error"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"auth code not found"}`))
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	srv := testTokenServer(t)
	_, rpPrivate, rpPublic := token.TestGenerateKeys(t)
	metadataURL := srv.URL + "/singpass/metadata"

	tests := []struct {
		name        string
		metadataURL string
		clientID    string
		redirectURL string
		opts        []Option
		wantIsErr   error
	}{
		{name: "valid", metadataURL: metadataURL, clientID: "c", redirectURL: "https://rp.test/cb"},
		{name: "missing-client-id", metadataURL: metadataURL, redirectURL: "https://rp.test/cb", wantIsErr: ErrInvalidParameter},
		{name: "missing-redirect", metadataURL: metadataURL, clientID: "c", wantIsErr: ErrInvalidParameter},
		{name: "missing-metadata", clientID: "c", redirectURL: "https://rp.test/cb", wantIsErr: ErrInvalidParameter},
		{name: "bad-metadata", metadataURL: srv.URL + "/nope", clientID: "c", redirectURL: "https://rp.test/cb", wantIsErr: ErrInvalidMetadata},
		{name: "bad-ca", metadataURL: metadataURL, clientID: "c", redirectURL: "https://rp.test/cb", opts: []Option{WithHTTPClient(nil), WithProviderCA("not a cert")}, wantIsErr: ErrInvalidCACert},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			opts := append([]Option{WithHTTPClient(cleanhttp.DefaultClient())}, tt.opts...)
			c, err := NewClient(context.Background(), tt.metadataURL, tt.clientID, "secret", tt.redirectURL, rpPrivate, opts...)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(c)
				return
			}
			require.NoError(err)
			t.Cleanup(c.Done)
			assert.Equal(srv.URL, c.Metadata().Issuer)
			assert.NotNil(c.Verifier())
		})
	}

	t.Run("public-decryption-key", func(t *testing.T) {
		_, err := NewClient(context.Background(), metadataURL, "c", "secret", "https://rp.test/cb", rpPublic, WithHTTPClient(cleanhttp.DefaultClient()))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestClient_AuthURL(t *testing.T) {
	t.Parallel()
	srv := testTokenServer(t)
	_, rpPrivate, _ := token.TestGenerateKeys(t)
	c, err := NewClient(context.Background(), srv.URL+"/singpass/metadata", "my-client", "secret", "https://rp.test/cb", rpPrivate,
		WithHTTPClient(cleanhttp.DefaultClient()),
		WithScopes("myinfo"),
	)
	require.NoError(t, err)
	t.Cleanup(c.Done)

	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		raw, err := c.AuthURL("st", "nc")
		require.NoError(err)
		u, err := url.Parse(raw)
		require.NoError(err)
		assert.Equal(srv.URL+"/singpass/authorize", fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path))
		q := u.Query()
		assert.Equal("code", q.Get("response_type"))
		assert.Equal("my-client", q.Get("client_id"))
		assert.Equal("https://rp.test/cb", q.Get("redirect_uri"))
		assert.Equal("openid myinfo", q.Get("scope"))
		assert.Equal("st", q.Get("state"))
		assert.Equal("nc", q.Get("nonce"))
	})
	t.Run("without-nonce", func(t *testing.T) {
		raw, err := c.AuthURL("st", "")
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.NotContains(t, u.Query(), "nonce")
	})
	t.Run("errors", func(t *testing.T) {
		_, err := c.AuthURL("", "nc")
		assert.ErrorIs(t, err, ErrInvalidParameter)
		_, err = c.AuthURL("same", "same")
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestClient_Exchange_errors(t *testing.T) {
	t.Parallel()
	srv := testTokenServer(t)
	_, rpPrivate, _ := token.TestGenerateKeys(t)
	c, err := NewClient(context.Background(), srv.URL+"/singpass/metadata", "my-client", "secret", "https://rp.test/cb", rpPrivate,
		WithHTTPClient(cleanhttp.DefaultClient()),
	)
	require.NoError(t, err)
	t.Cleanup(c.Done)

	tests := []struct {
		name      string
		code      string
		wantIsErr error
	}{
		{name: "empty", wantIsErr: ErrInvalidParameter},
		{name: "invalid-grant", code: "used", wantIsErr: ErrInvalidGrant},
		{name: "server-error", code: "server-error", wantIsErr: ErrExchangeFailed},
		{name: "missing-id-token", code: "no-id-token", wantIsErr: ErrMissingIDToken},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			tk, err := c.Exchange(context.Background(), tt.code, "nc")
			require.Error(err)
			assert.ErrorIs(err, tt.wantIsErr)
			assert.Nil(tk)

			tk, err = c.Refresh(context.Background(), tt.code)
			require.Error(err)
			assert.ErrorIs(err, tt.wantIsErr)
			assert.Nil(tk)
		})
	}
}

func Test_exchangeError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		err       error
		wantIsErr error
	}{
		{name: "invalid-grant", err: &oauth2.RetrieveError{Body: []byte(`{"error":"invalid_grant"}`)}, wantIsErr: ErrInvalidGrant},
		{name: "other-oauth-error", err: &oauth2.RetrieveError{Body: []byte(`{"error":"unsupported_grant_type"}`)}, wantIsErr: ErrExchangeFailed},
		{name: "not-json", err: &oauth2.RetrieveError{Body: []byte(`bad gateway`)}, wantIsErr: ErrExchangeFailed},
		{name: "transport", err: errors.New("connection refused"), wantIsErr: ErrExchangeFailed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, exchangeError("op", tt.err), tt.wantIsErr)
		})
	}
}

func TestClientSecret(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	s := ClientSecret("super-secret")
	assert.Equal(RedactedClientSecret, s.String())
	assert.Equal(RedactedClientSecret, fmt.Sprintf("%v", s))
	b, err := json.Marshal(struct{ Secret ClientSecret }{Secret: s})
	require.NoError(err)
	assert.NotContains(string(b), "super-secret")
}
