// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/store"
	"github.com/hashicorp/mockpass/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
)

const (
	testIssuer   = "http://mockpass.test"
	testClientID = "test-client"
)

func testAssemble(t *testing.T, signing, rpPublic *jose.JSONWebKey, claims token.ClaimsFunc, now time.Time, nonce string) *token.Response {
	t.Helper()
	require := require.New(t)
	refresh, err := store.NewRefreshTokenStore(store.WithSweepInterval(0))
	require.NoError(err)
	t.Cleanup(refresh.Done)
	a, err := token.NewAssembler(signing, rpPublic, refresh, claims, token.WithNow(func() time.Time { return now }))
	require.NoError(err)
	resp, err := a.Assemble(context.Background(), token.Request{
		Profile:  profile.Profile{NRIC: "S8979373D", UUID: "uuid-1", UEN: "123456789A", Name: "Name of S8979373D"},
		Nonce:    nonce,
		Issuer:   testIssuer,
		Audience: testClientID,
	})
	require.NoError(err)
	return resp
}

func TestNewIDTokenVerifier(t *testing.T) {
	t.Parallel()
	signing, rpPrivate, rpPublic := token.TestGenerateKeys(t)
	ks, err := NewStaticKeySet(signing)
	require.NoError(t, err)

	tests := []struct {
		name      string
		issuer    string
		clientID  string
		key       *jose.JSONWebKey
		keySet    *StaticKeySet
		wantIsErr error
	}{
		{name: "valid", issuer: testIssuer, clientID: testClientID, key: rpPrivate, keySet: ks},
		{name: "missing-issuer", clientID: testClientID, key: rpPrivate, keySet: ks, wantIsErr: ErrInvalidParameter},
		{name: "missing-client-id", issuer: testIssuer, key: rpPrivate, keySet: ks, wantIsErr: ErrInvalidParameter},
		{name: "missing-key", issuer: testIssuer, clientID: testClientID, keySet: ks, wantIsErr: ErrNilParameter},
		{name: "public-key", issuer: testIssuer, clientID: testClientID, key: rpPublic, keySet: ks, wantIsErr: ErrInvalidParameter},
		{name: "missing-key-set", issuer: testIssuer, clientID: testClientID, key: rpPrivate, wantIsErr: ErrNilParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			var v *IDTokenVerifier
			var err error
			if tt.keySet == nil {
				v, err = NewIDTokenVerifier(tt.issuer, tt.clientID, tt.key, nil)
			} else {
				v, err = NewIDTokenVerifier(tt.issuer, tt.clientID, tt.key, tt.keySet)
			}
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.NotNil(v)
		})
	}
}

func TestIDTokenVerifier_Verify(t *testing.T) {
	t.Parallel()
	signing, rpPrivate, rpPublic := token.TestGenerateKeys(t)
	otherSigning, otherPrivate, _ := token.TestGenerateKeys(t)
	now := time.Now().Truncate(time.Second)
	clock := func() time.Time { return now }

	ks, err := NewStaticKeySet(signing)
	require.NoError(t, err)
	otherKS, err := NewStaticKeySet(otherSigning)
	require.NoError(t, err)

	resp := testAssemble(t, signing, rpPublic, token.IndividualClaims, now, "nonce-1")
	signedOnly := testSign(t, signing, map[string]interface{}{"iss": testIssuer, "aud": testClientID, "sub": "sub", "exp": now.Add(time.Hour).Unix()})

	tests := []struct {
		name      string
		issuer    string
		clientID  string
		key       *jose.JSONWebKey
		keySet    *StaticKeySet
		now       time.Time
		raw       string
		nonce     string
		wantIsErr error
	}{
		{name: "valid", raw: resp.IDToken, nonce: "nonce-1"},
		{name: "nonce-not-checked", raw: resp.IDToken},
		{name: "wrong-nonce", raw: resp.IDToken, nonce: "nonce-2", wantIsErr: ErrInvalidNonce},
		{name: "wrong-audience", clientID: "another-client", raw: resp.IDToken, wantIsErr: ErrIDTokenVerificationFailed},
		{name: "wrong-issuer", issuer: "http://elsewhere.test", raw: resp.IDToken, wantIsErr: ErrIDTokenVerificationFailed},
		{name: "expired", now: now.Add(token.ExpiresIn*time.Second + time.Minute), raw: resp.IDToken, wantIsErr: ErrIDTokenVerificationFailed},
		{name: "wrong-signing-key", keySet: otherKS, raw: resp.IDToken, wantIsErr: ErrIDTokenVerificationFailed},
		{name: "wrong-decryption-key", key: otherPrivate, raw: resp.IDToken, wantIsErr: ErrIDTokenDecryptionFailed},
		{name: "not-encrypted", raw: signedOnly, wantIsErr: ErrIDTokenDecryptionFailed},
		{name: "empty", raw: "", wantIsErr: ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			issuer, clientID, key, keySet, at := testIssuer, testClientID, rpPrivate, ks, clock
			if tt.issuer != "" {
				issuer = tt.issuer
			}
			if tt.clientID != "" {
				clientID = tt.clientID
			}
			if tt.key != nil {
				key = tt.key
			}
			if tt.keySet != nil {
				keySet = tt.keySet
			}
			if !tt.now.IsZero() {
				at = func() time.Time { return tt.now }
			}
			v, err := NewIDTokenVerifier(issuer, clientID, key, keySet, WithNow(at))
			require.NoError(err)

			idToken, err := v.Verify(context.Background(), tt.raw, tt.nonce)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal("s=S8979373D,u=uuid-1", idToken.Subject)
			assert.Equal("nonce-1", idToken.Nonce)
			assert.Equal([]string{testClientID}, idToken.Audience)
			assert.NoError(idToken.VerifyAccessToken(resp.AccessToken))
			assert.ErrorIs(idToken.VerifyAccessToken("not-the-access-token"), ErrInvalidAccessToken)

			claims, err := idToken.AllClaims()
			require.NoError(err)
			assert.Equal([]interface{}{"pwd"}, claims["amr"])
			assert.NotEmpty(claims["rt_hash"])

			b, err := json.Marshal(idToken)
			require.NoError(err)
			assert.Equal(`"`+RedactedIDToken+`"`, string(b))
			assert.Equal(RedactedIDToken, idToken.String())
		})
	}
}

func TestIDTokenVerifier_organization(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	signing, rpPrivate, rpPublic := token.TestGenerateKeys(t)
	ks, err := NewStaticKeySet(signing)
	require.NoError(err)
	v, err := NewIDTokenVerifier(testIssuer, testClientID, rpPrivate, ks)
	require.NoError(err)

	resp := testAssemble(t, signing, rpPublic, token.OrganizationClaims, time.Now(), "")
	idToken, err := v.Verify(context.Background(), resp.IDToken, "")
	require.NoError(err)

	sub, err := ParseSubject(idToken.Subject)
	require.NoError(err)
	assert.Equal(Subject{NRIC: "S8979373D", UUID: "uuid-1", Country: "SG"}, sub)

	var claims struct {
		UserInfo struct {
			CPEntID    string `json:"CPEntID"`
			CPUIDFull  string `json:"CPUID_FULL"`
			ISSPHolder string `json:"ISSPHOLDER"`
		} `json:"userInfo"`
	}
	require.NoError(idToken.Claims(&claims))
	assert.Equal("123456789A", claims.UserInfo.CPEntID)
	assert.Equal("Name of S8979373D", claims.UserInfo.CPUIDFull)
	assert.Equal("NO", claims.UserInfo.ISSPHolder)
	assert.Empty(idToken.Nonce)
}

func TestParseSubject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		sub       string
		want      Subject
		wantIsErr error
	}{
		{name: "individual", sub: "s=S1234567A,u=uuid-1", want: Subject{NRIC: "S1234567A", UUID: "uuid-1"}},
		{name: "organization", sub: "s=S1234567A,u=uuid-1,c=SG", want: Subject{NRIC: "S1234567A", UUID: "uuid-1", Country: "SG"}},
		{name: "missing-uuid", sub: "s=S1234567A", wantIsErr: ErrInvalidSubject},
		{name: "unknown-component", sub: "s=S1234567A,u=uuid-1,x=1", wantIsErr: ErrInvalidSubject},
		{name: "malformed", sub: "S1234567A", wantIsErr: ErrInvalidSubject},
		{name: "empty", sub: "", wantIsErr: ErrInvalidSubject},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := ParseSubject(tt.sub)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}
