// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"errors"
)

var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrNilParameter         = errors.New("nil parameter")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
)
