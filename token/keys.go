// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package token

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"gopkg.in/square/go-jose.v2"
)

const (
	UseSignature  = "sig"
	UseEncryption = "enc"
)

// ParsePrivateKey parses an RSA or ECDSA private key. data may be PEM (PKCS#1,
// SEC 1 or PKCS#8) or a JWK. A missing key id is set to the key's RFC 7638
// thumbprint.
func ParsePrivateKey(data []byte) (*jose.JSONWebKey, error) {
	const op = "token.ParsePrivateKey"
	var k *jose.JSONWebKey
	switch {
	case isJSON(data):
		jwk, err := parseJWK(data, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if jwk.IsPublic() {
			return nil, fmt.Errorf("%s: jwk is not a private key: %w", op, ErrInvalidKey)
		}
		k = jwk
	default:
		raw, err := parsePrivateKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		k = &jose.JSONWebKey{Key: raw}
	}
	if err := setKeyID(k); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// ParsePublicKey parses an RSA or ECDSA public key. data may be a PEM encoded
// PKIX public key or certificate, a JWK, or a JWKS in which case the first
// encryption key (or else the first key) is used. The public half of a private
// JWK is returned.
func ParsePublicKey(data []byte) (*jose.JSONWebKey, error) {
	const op = "token.ParsePublicKey"
	var k *jose.JSONWebKey
	switch {
	case isJSON(data):
		jwk, err := parseJWK(data, UseEncryption)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !jwk.IsPublic() {
			pub := jwk.Public()
			jwk = &pub
		}
		k = jwk
	default:
		raw, err := parsePublicKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		k = &jose.JSONWebKey{Key: raw}
	}
	if err := setKeyID(k); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// SigningAlgorithm returns the JWS algorithm used with the key: the key's own
// "alg" when it has one, otherwise RS256 for RSA keys and the curve's ES
// algorithm for ECDSA keys.
func SigningAlgorithm(k *jose.JSONWebKey) (jose.SignatureAlgorithm, error) {
	const op = "token.SigningAlgorithm"
	if k == nil {
		return "", fmt.Errorf("%s: missing key: %w", op, ErrNilParameter)
	}
	if k.Algorithm != "" {
		return jose.SignatureAlgorithm(k.Algorithm), nil
	}
	switch key := k.Key.(type) {
	case *rsa.PrivateKey, *rsa.PublicKey:
		return jose.RS256, nil
	case *ecdsa.PrivateKey:
		return ecdsaAlgorithm(key.Curve)
	case *ecdsa.PublicKey:
		return ecdsaAlgorithm(key.Curve)
	default:
		return "", fmt.Errorf("%s: %T: %w", op, k.Key, ErrUnsupportedKey)
	}
}

func ecdsaAlgorithm(c elliptic.Curve) (jose.SignatureAlgorithm, error) {
	const op = "token.ecdsaAlgorithm"
	switch c {
	case elliptic.P256():
		return jose.ES256, nil
	case elliptic.P384():
		return jose.ES384, nil
	case elliptic.P521():
		return jose.ES512, nil
	default:
		return "", fmt.Errorf("%s: unknown curve: %w", op, ErrUnsupportedKey)
	}
}

// KeyManagementAlgorithm returns the JWE key management algorithm used to
// encrypt for the key: the key's own "alg" when it has one, otherwise
// ECDH-ES+A256KW for ECDSA keys and RSA-OAEP-256 for RSA keys.
func KeyManagementAlgorithm(k *jose.JSONWebKey) (jose.KeyAlgorithm, error) {
	const op = "token.KeyManagementAlgorithm"
	if k == nil {
		return "", fmt.Errorf("%s: missing key: %w", op, ErrNilParameter)
	}
	if k.Algorithm != "" {
		return jose.KeyAlgorithm(k.Algorithm), nil
	}
	switch k.Key.(type) {
	case *ecdsa.PublicKey, *ecdsa.PrivateKey:
		return jose.ECDH_ES_A256KW, nil
	case *rsa.PublicKey, *rsa.PrivateKey:
		return jose.RSA_OAEP_256, nil
	default:
		return "", fmt.Errorf("%s: %T: %w", op, k.Key, ErrUnsupportedKey)
	}
}

// PublicKeySet returns a JWKS holding the public halves of the signing keys.
func PublicKeySet(keys ...*jose.JSONWebKey) (*jose.JSONWebKeySet, error) {
	const op = "token.PublicKeySet"
	set := &jose.JSONWebKeySet{}
	for _, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("%s: missing key: %w", op, ErrNilParameter)
		}
		alg, err := SigningAlgorithm(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pub := k.Public()
		if pub.Key == nil {
			return nil, fmt.Errorf("%s: %T has no public key: %w", op, k.Key, ErrUnsupportedKey)
		}
		pub.Algorithm = string(alg)
		pub.Use = UseSignature
		set.Keys = append(set.Keys, pub)
	}
	return set, nil
}

func isJSON(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

// parseJWK parses a JWK or a JWKS, preferring the first key with the given use.
func parseJWK(data []byte, preferUse string) (*jose.JSONWebKey, error) {
	const op = "token.parseJWK"
	var probe struct {
		Keys json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidKey)
	}
	if probe.Keys == nil {
		var k jose.JSONWebKey
		if err := k.UnmarshalJSON(data); err != nil {
			return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidKey)
		}
		if !k.Valid() {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidKey)
		}
		return &k, nil
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidKey)
	}
	if len(set.Keys) == 0 {
		return nil, fmt.Errorf("%s: empty key set: %w", op, ErrInvalidKey)
	}
	chosen := set.Keys[0]
	for _, k := range set.Keys {
		if preferUse != "" && k.Use == preferUse {
			chosen = k
			break
		}
	}
	if !chosen.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidKey)
	}
	return &chosen, nil
}

func parsePrivateKeyPEM(data []byte) (interface{}, error) {
	const op = "token.parsePrivateKeyPEM"
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found: %w", op, ErrInvalidKey)
	}
	var (
		raw interface{}
		err error
	)
	switch block.Type {
	case "RSA PRIVATE KEY":
		raw, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		raw, err = x509.ParseECPrivateKey(block.Bytes)
	default:
		raw, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidKey)
	}
	switch raw.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey:
		return raw, nil
	default:
		return nil, fmt.Errorf("%s: %T: %w", op, raw, ErrUnsupportedKey)
	}
}

// parsePublicKeyPEM parses RSA and ECDSA public keys from PKIX or certificate
// PEMs. It returns a *rsa.PublicKey or *ecdsa.PublicKey.
func parsePublicKeyPEM(data []byte) (interface{}, error) {
	const op = "token.parsePublicKeyPEM"
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block found: %w", op, ErrInvalidKey)
	}
	raw, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidKey)
		}
		raw = cert.PublicKey
	}
	switch raw.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return raw, nil
	default:
		return nil, fmt.Errorf("%s: %T: %w", op, raw, ErrUnsupportedKey)
	}
}

func setKeyID(k *jose.JSONWebKey) error {
	const op = "token.setKeyID"
	if k.KeyID != "" {
		return nil
	}
	tp, err := k.Thumbprint(crypto.SHA256)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, ErrInvalidKey)
	}
	k.KeyID = base64.RawURLEncoding.EncodeToString(tp)
	return nil
}
