// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

const (
	codeSize         = 32
	AccessTokenSize  = 15
	RefreshTokenSize = 20
)

// NewCode generates an unpredictable, url safe authorization code.
func NewCode() (string, error) {
	const op = "store.NewCode"
	b, err := uuid.GenerateRandomBytes(codeSize)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrIdGeneratorFailed)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewOpaqueToken generates a hex encoded bearer credential from size random
// bytes.
func NewOpaqueToken(size int) (string, error) {
	const op = "store.NewOpaqueToken"
	if size <= 0 {
		return "", fmt.Errorf("%s: size must be positive: %w", op, ErrInvalidParameter)
	}
	b, err := uuid.GenerateRandomBytes(size)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrIdGeneratorFailed)
	}
	return hex.EncodeToString(b), nil
}
