// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package token

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/store"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	// ExpiresIn is the lifetime, in seconds, of access and identity tokens.
	ExpiresIn = 24 * 60 * 60

	Scope      = "openid"
	TypeBearer = "bearer"

	// ContentEncryption is the JWE content encryption of identity tokens.
	ContentEncryption = jose.A256GCM
)

// Response is a token endpoint response.
type Response struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	IDToken      string `json:"id_token"`
}

// RefreshIssuer mints refresh tokens bound to a profile. Revoke removes a
// token which was issued but never handed out.
type RefreshIssuer interface {
	Issue(p profile.Profile) (string, error)
	Revoke(token string)
}

// Request is everything an identity token is derived from.
type Request struct {
	Profile profile.Profile

	// Nonce is passed through to the identity token when not empty.
	Nonce string

	Issuer string

	// Audience is the client identifier of the relying party.
	Audience string
}

// Assembler builds token responses. Identity tokens are signed with the
// provider's key and then encrypted for the relying party.
type Assembler struct {
	signingKey    *jose.JSONWebKey
	encryptionKey *jose.JSONWebKey
	refresh       RefreshIssuer
	claims        ClaimsFunc
	now           func() time.Time
	logger        hclog.Logger
}

// NewAssembler creates an Assembler.
//
// Supported options:
//   - WithNow
//   - WithLogger
func NewAssembler(signingKey, encryptionKey *jose.JSONWebKey, refresh RefreshIssuer, claims ClaimsFunc, opt ...Option) (*Assembler, error) {
	const op = "token.NewAssembler"
	switch {
	case signingKey == nil:
		return nil, fmt.Errorf("%s: missing signing key: %w", op, ErrNilParameter)
	case encryptionKey == nil:
		return nil, fmt.Errorf("%s: missing encryption key: %w", op, ErrNilParameter)
	case refresh == nil:
		return nil, fmt.Errorf("%s: missing refresh token issuer: %w", op, ErrNilParameter)
	case claims == nil:
		return nil, fmt.Errorf("%s: missing claims func: %w", op, ErrNilParameter)
	}
	opts := getAssemblerOpts(opt...)
	return &Assembler{
		signingKey:    signingKey,
		encryptionKey: encryptionKey,
		refresh:       refresh,
		claims:        claims,
		now:           opts.withNow,
		logger:        opts.withLogger,
	}, nil
}

// Assemble builds the token response for the request. A fresh access token
// and refresh token are minted for every call. Signing and encryption failures
// are returned as ErrCryptoFailure, and the refresh token minted for the
// failed response is revoked.
func (a *Assembler) Assemble(ctx context.Context, r Request) (*Response, error) {
	const op = "token.(Assembler).Assemble"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	alg, err := SigningAlgorithm(a.signingKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}

	accessToken, err := store.NewOpaqueToken(store.AccessTokenSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refreshToken, err := a.refresh.Issue(r.Profile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	idToken, err := a.idToken(alg, r, accessToken, refreshToken)
	if err != nil {
		a.refresh.Revoke(refreshToken)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Response{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    ExpiresIn,
		Scope:        Scope,
		TokenType:    TypeBearer,
		IDToken:      idToken,
	}, nil
}

// idToken signs and encrypts the identity token for the request. The token
// hashes bind it to accessToken and refreshToken.
func (a *Assembler) idToken(alg jose.SignatureAlgorithm, r Request, accessToken, refreshToken string) (string, error) {
	const op = "token.(Assembler).idToken"
	vc := a.claims(r.Profile)
	now := a.now()
	std := jwt.Claims{
		Issuer:   r.Issuer,
		Subject:  vc.Subject,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(ExpiresIn * time.Second)),
	}
	atHash, err := tokenHash(alg, accessToken)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	rtHash, err := tokenHash(alg, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	// aud is a single string; jwt.Audience always marshals as an array.
	private := map[string]interface{}{
		"aud":     r.Audience,
		"amr":     []string{"pwd"},
		"at_hash": atHash,
		"rt_hash": rtHash,
	}
	if r.Nonce != "" {
		private["nonce"] = r.Nonce
	}
	for k, v := range vc.Extra {
		private[k] = v
	}

	signed, err := a.sign(alg, std, private)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	idToken, err := a.encrypt(signed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Debug("assembled tokens", "sub", vc.Subject, "aud", r.Audience)
	return idToken, nil
}

func (a *Assembler) sign(alg jose.SignatureAlgorithm, std jwt.Claims, private map[string]interface{}) (string, error) {
	const op = "token.(Assembler).sign"
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: alg, Key: a.signingKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	raw, err := jwt.Signed(signer).Claims(std).Claims(private).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	return raw, nil
}

// encrypt wraps a signed token in a JWE whose content type tells the relying
// party to expect a nested JWT.
func (a *Assembler) encrypt(signed string) (string, error) {
	const op = "token.(Assembler).encrypt"
	keyAlg, err := KeyManagementAlgorithm(a.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	enc, err := jose.NewEncrypter(
		ContentEncryption,
		jose.Recipient{Algorithm: keyAlg, Key: a.encryptionKey.Key, KeyID: a.encryptionKey.KeyID},
		(&jose.EncrypterOptions{}).WithType("JWT").WithContentType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	obj, err := enc.Encrypt([]byte(signed))
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	raw, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCryptoFailure)
	}
	return raw, nil
}
