// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package certs embeds the static test key material mockpass starts with when
// no other keys are configured. None of it is secret.
package certs

import _ "embed"

// SigningKey is the PEM encoded RSA key the provider signs identity tokens
// with.
//
//go:embed spcp-key.pem
var SigningKey []byte

// RelyingPartyKey is the PEM encoded EC P-256 private key of the sample
// relying party. Identity tokens are encrypted for its public half.
//
//go:embed rp-key.pem
var RelyingPartyKey []byte

// RelyingPartyPublicKey is the PEM encoded public half of RelyingPartyKey.
//
//go:embed rp-key.pub
var RelyingPartyPublicKey []byte
