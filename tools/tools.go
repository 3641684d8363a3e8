// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build tools
// +build tools

// Package tools pins the versions of the development tools mockpass is
// formatted with, so they are tracked in go.mod alongside the code.
// Install them with:
//
//	go generate -tags tools ./tools
package tools

//go:generate go install mvdan.cc/gofumpt

import (
	_ "mvdan.cc/gofumpt"
)
