// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command mockpass runs a mock SingPass/CorpPass OpenID Connect provider and
// verifies the identity tokens it issues.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mockpass: %s\n", err)
		os.Exit(1)
	}
}
