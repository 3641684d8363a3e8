// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/mockpass/token"
	"gopkg.in/square/go-jose.v2"
)

// StaticKeySet verifies token signatures with a fixed set of public keys.
type StaticKeySet struct {
	keys []jose.JSONWebKey
}

var _ oidc.KeySet = (*StaticKeySet)(nil)

// NewStaticKeySet returns a StaticKeySet holding the public halves of keys.
func NewStaticKeySet(keys ...*jose.JSONWebKey) (*StaticKeySet, error) {
	const op = "rp.NewStaticKeySet"
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: no keys: %w", op, ErrInvalidParameter)
	}
	ks := &StaticKeySet{}
	for _, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("%s: missing key: %w", op, ErrNilParameter)
		}
		pub := k.Public()
		if pub.Key == nil {
			return nil, fmt.Errorf("%s: %T has no public key: %w", op, k.Key, ErrInvalidParameter)
		}
		ks.keys = append(ks.keys, pub)
	}
	return ks, nil
}

// ParseStaticKeySet builds a StaticKeySet from a JWKS document, or from a
// single PEM or JWK encoded key.
func ParseStaticKeySet(data []byte) (*StaticKeySet, error) {
	const op = "rp.ParseStaticKeySet"
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err == nil && len(set.Keys) > 0 {
		keys := make([]*jose.JSONWebKey, 0, len(set.Keys))
		for i := range set.Keys {
			keys = append(keys, &set.Keys[i])
		}
		ks, err := NewStaticKeySet(keys...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return ks, nil
	}
	k, err := token.ParsePublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ks, err := NewStaticKeySet(k)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ks, nil
}

// VerifySignature parses the given JWT, verifies its signature and returns its
// payload. Keys whose id matches the token's kid are tried first. The given
// JWT must be of the JWS compact serialization form.
func (ks *StaticKeySet) VerifySignature(_ context.Context, raw string) ([]byte, error) {
	const op = "rp.(StaticKeySet).VerifySignature"
	jws, err := jose.ParseSigned(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed jwt: %v: %w", op, err, ErrInvalidSignature)
	}
	if len(jws.Signatures) != 1 {
		return nil, fmt.Errorf("%s: expected one signature, got %d: %w", op, len(jws.Signatures), ErrInvalidSignature)
	}
	kid := jws.Signatures[0].Header.KeyID

	candidates := make([]jose.JSONWebKey, 0, len(ks.keys))
	for _, k := range ks.keys {
		if kid != "" && k.KeyID == kid {
			candidates = append([]jose.JSONWebKey{k}, candidates...)
			continue
		}
		candidates = append(candidates, k)
	}
	for _, k := range candidates {
		if payload, err := jws.Verify(k); err == nil {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("%s: no known key successfully validated the token signature: %w", op, ErrInvalidSignature)
}
