// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"errors"
)

var (
	ErrInvalidParameter          = errors.New("invalid parameter")
	ErrNilParameter              = errors.New("nil parameter")
	ErrInvalidCACert             = errors.New("invalid CA certificate")
	ErrInvalidMetadata           = errors.New("invalid provider metadata")
	ErrMissingIDToken            = errors.New("id_token is missing")
	ErrIDTokenDecryptionFailed   = errors.New("id_token decryption failed")
	ErrIDTokenVerificationFailed = errors.New("id_token verification failed")
	ErrInvalidSignature          = errors.New("invalid signature")
	ErrInvalidNonce              = errors.New("invalid nonce")
	ErrInvalidAccessToken        = errors.New("access token does not match at_hash")
	ErrInvalidSubject            = errors.New("invalid subject")
	ErrInvalidGrant              = errors.New("invalid grant")
	ErrExchangeFailed            = errors.New("token exchange failed")
)
