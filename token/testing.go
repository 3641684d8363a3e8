// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
)

// TestGenerateKeys will generate a fresh provider signing key (RSA 2048) and a
// relying party encryption key pair (ECDSA P-256).
func TestGenerateKeys(t *testing.T) (signing, rpPrivate, rpPublic *jose.JSONWebKey) {
	t.Helper()
	require := require.New(t)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(err)
	signing, err = ParsePrivateKey(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(rsaKey),
	}))
	require.NoError(err)

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)
	{
		der, err := x509.MarshalECPrivateKey(ecKey)
		require.NoError(err)
		rpPrivate, err = ParsePrivateKey(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
		require.NoError(err)
	}
	{
		der, err := x509.MarshalPKIXPublicKey(ecKey.Public())
		require.NoError(err)
		rpPublic, err = ParsePublicKey(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
		require.NoError(err)
	}
	return signing, rpPrivate, rpPublic
}

// TestDecrypt decrypts and verifies an identity token, returning its claims.
// It does not check issuer, audience or expiry.
func TestDecrypt(t *testing.T, idToken string, rpPrivate, signing *jose.JSONWebKey) map[string]interface{} {
	t.Helper()
	require := require.New(t)

	obj, err := jose.ParseEncrypted(idToken)
	require.NoError(err)
	require.Equal("JWT", obj.Header.ExtraHeaders[jose.HeaderContentType])
	signed, err := obj.Decrypt(rpPrivate)
	require.NoError(err)

	jws, err := jose.ParseSigned(string(signed))
	require.NoError(err)
	payload, err := jws.Verify(signing.Public())
	require.NoError(err)

	claims := map[string]interface{}{}
	require.NoError(json.Unmarshal(payload, &claims))
	return claims
}
