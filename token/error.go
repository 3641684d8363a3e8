// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package token

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrInvalidKey       = errors.New("invalid key")
	ErrUnsupportedKey   = errors.New("unsupported key type")

	// ErrCryptoFailure is returned when an identity token cannot be signed or
	// encrypted. It is never a client error.
	ErrCryptoFailure = errors.New("crypto failure")
)
