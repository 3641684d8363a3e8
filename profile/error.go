// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

import "errors"

var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrUnsupportedVariant = errors.New("unsupported identity provider variant")
	ErrIncompleteProfile  = errors.New("incomplete profile")
	ErrEmptyRegistry      = errors.New("empty registry")
)
