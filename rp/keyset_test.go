// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/hashicorp/mockpass/certs"
	"github.com/hashicorp/mockpass/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

func testSign(t *testing.T, k *jose.JSONWebKey, claims interface{}) string {
	t.Helper()
	alg, err := token.SigningAlgorithm(k)
	require.NoError(t, err)
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: k}, (&jose.SignerOptions{}).WithType("JWT"))
	require.NoError(t, err)
	raw, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	require.NoError(t, err)
	return raw
}

func TestNewStaticKeySet(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	signing, _, _ := token.TestGenerateKeys(t)

	ks, err := NewStaticKeySet(signing)
	require.NoError(err)
	require.Len(ks.keys, 1)
	assert.True(ks.keys[0].IsPublic())

	_, err = NewStaticKeySet()
	assert.ErrorIs(err, ErrInvalidParameter)
	_, err = NewStaticKeySet(nil)
	assert.ErrorIs(err, ErrNilParameter)
	_, err = NewStaticKeySet(&jose.JSONWebKey{Key: "nope"})
	assert.ErrorIs(err, ErrInvalidParameter)
}

func TestParseStaticKeySet(t *testing.T) {
	t.Parallel()
	signing, err := token.ParsePrivateKey(certs.SigningKey)
	require.NoError(t, err)
	set, err := token.PublicKeySet(signing)
	require.NoError(t, err)
	jwks, err := json.Marshal(set)
	require.NoError(t, err)
	pub := signing.Public()
	der, err := x509.MarshalPKIXPublicKey(pub.Key)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	signed := testSign(t, signing, jwt.Claims{Subject: "s=S8979373D,u=uuid-1"})

	tests := []struct {
		name      string
		data      []byte
		wantIsErr error
	}{
		{name: "jwks", data: jwks},
		{name: "pem", data: pubPEM},
		{name: "garbage", data: []byte("garbage"), wantIsErr: token.ErrInvalidKey},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			ks, err := ParseStaticKeySet(tt.data)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			payload, err := ks.VerifySignature(context.Background(), signed)
			require.NoError(err)
			assert.Contains(string(payload), "S8979373D")
		})
	}
}

func TestStaticKeySet_VerifySignature(t *testing.T) {
	t.Parallel()
	signing, rpPrivate, _ := token.TestGenerateKeys(t)
	other, _, _ := token.TestGenerateKeys(t)

	ks, err := NewStaticKeySet(other, signing)
	require.NoError(t, err)

	renamed := *signing
	renamed.KeyID = "unknown-kid"

	tests := []struct {
		name      string
		token     string
		wantIsErr error
	}{
		{name: "matching-kid", token: testSign(t, signing, jwt.Claims{Subject: "sub"})},
		{name: "unknown-kid", token: testSign(t, &renamed, jwt.Claims{Subject: "sub"})},
		{name: "unknown-key", token: testSign(t, rpPrivate, jwt.Claims{Subject: "sub"}), wantIsErr: ErrInvalidSignature},
		{name: "malformed", token: "not.a.jwt", wantIsErr: ErrInvalidSignature},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			payload, err := ks.VerifySignature(context.Background(), tt.token)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Contains(string(payload), `"sub":"sub"`)
		})
	}
}
