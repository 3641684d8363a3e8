// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import "errors"

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrIdGeneratorFailed = errors.New("id generation failed")

	// ErrInvalidGrant is returned for authorization codes and refresh tokens
	// which are unknown, expired or already redeemed.
	ErrInvalidGrant = errors.New("invalid grant")
)
