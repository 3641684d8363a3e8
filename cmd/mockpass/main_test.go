// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/mockpass/certs"
	"github.com/hashicorp/mockpass/config"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/rp"
	"github.com/hashicorp/mockpass/store"
	"github.com/hashicorp/mockpass/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEnvCmd(t *testing.T) {
	t.Parallel()
	out, err := testExecute(t, "env")
	require.NoError(t, err)
	for _, k := range []string{"MOCKPASS_PORT", "MOCKPASS_NRIC", "SHOW_LOGIN_PAGE", "SERVICE_PROVIDER_CERT_PATH"} {
		assert.Contains(t, out, k)
	}
}

func TestVerifyCmd(t *testing.T) {
	t.Parallel()
	signing, err := token.ParsePrivateKey(certs.SigningKey)
	require.NoError(t, err)
	rpPublic, err := token.ParsePublicKey(certs.RelyingPartyPublicKey)
	require.NoError(t, err)
	refresh, err := store.NewRefreshTokenStore(store.WithSweepInterval(0))
	require.NoError(t, err)
	t.Cleanup(refresh.Done)
	a, err := token.NewAssembler(signing, rpPublic, refresh, token.OrganizationClaims)
	require.NoError(t, err)
	resp, err := a.Assemble(context.Background(), token.Request{
		Profile:  profile.Profile{NRIC: "S8979373D", UUID: "uuid-1", UEN: "123456789A", Name: "Name of S8979373D"},
		Nonce:    "n1",
		Issuer:   "http://localhost:5156",
		Audience: "cli",
	})
	require.NoError(t, err)

	set, err := token.PublicKeySet(signing)
	require.NoError(t, err)
	jwks, err := json.Marshal(set)
	require.NoError(t, err)
	jwksPath := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(jwksPath, jwks, 0o600))

	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		out, err := testExecute(t, "verify", "--issuer", "http://localhost:5156", "--client-id", "cli", "--nonce", "n1", "--jwks", jwksPath, resp.IDToken)
		require.NoError(err)
		var got verifyResult
		require.NoError(json.Unmarshal([]byte(out), &got))
		assert.Equal(rp.Subject{NRIC: "S8979373D", UUID: "uuid-1", Country: "SG"}, got.Subject)
		assert.Equal("n1", got.Claims["nonce"])
		assert.Contains(got.Claims, "entityInfo")
	})
	t.Run("wrong-nonce", func(t *testing.T) {
		_, err := testExecute(t, "verify", "--issuer", "http://localhost:5156", "--client-id", "cli", "--nonce", "n2", "--jwks", jwksPath, resp.IDToken)
		assert.ErrorIs(t, err, rp.ErrInvalidNonce)
	})
	t.Run("wrong-audience", func(t *testing.T) {
		_, err := testExecute(t, "verify", "--issuer", "http://localhost:5156", "--client-id", "other", "--jwks", jwksPath, resp.IDToken)
		assert.ErrorIs(t, err, rp.ErrIDTokenVerificationFailed)
	})
	t.Run("missing-flags", func(t *testing.T) {
		_, err := testExecute(t, "verify", resp.IDToken)
		assert.Error(t, err)
	})
}

func TestServe(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	cfg := &config.Config{AuthCodeTTL: time.Minute, LogLevel: "error"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, cfg, ready)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-errCh:
		require.FailNow("server exited early", err)
	case <-time.After(10 * time.Second):
		require.FailNow("server did not start")
	}
	_, port, err := net.SplitHostPort(addr)
	require.NoError(err)

	client := cleanhttp.DefaultClient()
	resp, err := client.Get("http://127.0.0.1:" + port + "/singpass/metadata")
	require.NoError(err)
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)
	var m rp.Metadata
	require.NoError(json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal("http://127.0.0.1:"+port, m.Issuer)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(err)
	case <-time.After(shutdownTimeout + time.Second):
		require.FailNow("server did not shut down")
	}
}
