// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import "errors"

// ErrInvalidConfig is returned when the environment does not describe a
// usable configuration.
var ErrInvalidConfig = errors.New("invalid configuration")
