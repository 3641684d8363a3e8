// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// mockpass is a mock of the SingPass and CorpPass OpenID Connect providers
// for local development and testing of relying parties.
//
// The provider package serves both variants; rp is the relying party side
// used to exchange codes and verify the encrypted identity tokens; config and
// cmd/mockpass run it as a server.
package mockpass
