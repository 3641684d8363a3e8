// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"gopkg.in/square/go-jose.v2"
)

// RedactedIDToken is the redacted string or json for an id_token.
const RedactedIDToken = "[REDACTED: id_token]"

// IDToken is a decrypted and verified identity token.
type IDToken struct {
	*oidc.IDToken

	// Signed is the nested signed token carried by the encrypted id_token.
	Signed string
}

// String will redact the token
func (t *IDToken) String() string {
	return RedactedIDToken
}

// MarshalJSON will redact the token
func (t *IDToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIDToken)
}

// VerifyAccessToken checks the access token against the token's at_hash.
func (t *IDToken) VerifyAccessToken(accessToken string) error {
	const op = "rp.(IDToken).VerifyAccessToken"
	if err := t.IDToken.VerifyAccessToken(accessToken); err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, ErrInvalidAccessToken)
	}
	return nil
}

// AllClaims returns every claim in the token.
func (t *IDToken) AllClaims() (map[string]interface{}, error) {
	const op = "rp.(IDToken).AllClaims"
	claims := map[string]interface{}{}
	if err := t.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

// IDTokenVerifier decrypts identity tokens with the relying party's private
// key and then verifies the nested signed token's signature, issuer, audience
// and expiry.
type IDTokenVerifier struct {
	decryptionKey *jose.JSONWebKey
	verifier      *oidc.IDTokenVerifier
}

// NewIDTokenVerifier creates an IDTokenVerifier for tokens issued by issuer to
// clientID. Signatures are checked against keySet.
//
// Supported options:
//   - WithNow
//   - WithSupportedSigningAlgs
func NewIDTokenVerifier(issuer, clientID string, decryptionKey *jose.JSONWebKey, keySet oidc.KeySet, opt ...Option) (*IDTokenVerifier, error) {
	const op = "rp.NewIDTokenVerifier"
	switch {
	case issuer == "":
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	case clientID == "":
		return nil, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	case decryptionKey == nil:
		return nil, fmt.Errorf("%s: decryption key is nil: %w", op, ErrNilParameter)
	case decryptionKey.IsPublic():
		return nil, fmt.Errorf("%s: decryption key is not a private key: %w", op, ErrInvalidParameter)
	case keySet == nil:
		return nil, fmt.Errorf("%s: key set is nil: %w", op, ErrNilParameter)
	}
	opts := getVerifierOpts(opt...)
	return &IDTokenVerifier{
		decryptionKey: decryptionKey,
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID:             clientID,
			SupportedSigningAlgs: opts.withSupportedSigningAlgs,
			Now:                  opts.withNow,
		}),
	}, nil
}

// Decrypt unwraps an encrypted identity token and returns the signed token it
// carries. The encrypted token must declare a nested JWT content type.
func (v *IDTokenVerifier) Decrypt(raw string) (string, error) {
	const op = "rp.(IDTokenVerifier).Decrypt"
	if raw == "" {
		return "", fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	obj, err := jose.ParseEncrypted(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrIDTokenDecryptionFailed)
	}
	if cty, _ := obj.Header.ExtraHeaders[jose.HeaderContentType].(string); cty != "JWT" {
		return "", fmt.Errorf("%s: content type %q is not a nested JWT: %w", op, cty, ErrIDTokenDecryptionFailed)
	}
	signed, err := obj.Decrypt(v.decryptionKey)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrIDTokenDecryptionFailed)
	}
	return string(signed), nil
}

// Verify decrypts and verifies an identity token. When nonce is not empty the
// token must carry the same nonce.
func (v *IDTokenVerifier) Verify(ctx context.Context, raw string, nonce string) (*IDToken, error) {
	const op = "rp.(IDTokenVerifier).Verify"
	signed, err := v.Decrypt(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t, err := v.verifier.Verify(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrIDTokenVerificationFailed)
	}
	if nonce != "" && t.Nonce != nonce {
		return nil, fmt.Errorf("%s: invalid id_token nonce: %w", op, ErrInvalidNonce)
	}
	return &IDToken{IDToken: t, Signed: signed}, nil
}

// Subject is the parsed form of an identity token's sub claim.
type Subject struct {
	NRIC    string
	UUID    string
	Country string
}

// ParseSubject parses a sub claim of the form "s=<nric>,u=<uuid>" with an
// optional ",c=<country>" suffix.
func ParseSubject(sub string) (Subject, error) {
	const op = "rp.ParseSubject"
	var s Subject
	for _, part := range strings.Split(sub, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return Subject{}, fmt.Errorf("%s: malformed component %q: %w", op, part, ErrInvalidSubject)
		}
		switch k {
		case "s":
			s.NRIC = v
		case "u":
			s.UUID = v
		case "c":
			s.Country = v
		default:
			return Subject{}, fmt.Errorf("%s: unknown component %q: %w", op, k, ErrInvalidSubject)
		}
	}
	if s.NRIC == "" || s.UUID == "" {
		return Subject{}, fmt.Errorf("%s: %q is missing a principal or correlation id: %w", op, sub, ErrInvalidSubject)
	}
	return s, nil
}
