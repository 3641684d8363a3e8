// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/mockpass/certs"
	"github.com/hashicorp/mockpass/config"
	"github.com/hashicorp/mockpass/rp"
	"github.com/hashicorp/mockpass/token"
	"github.com/spf13/cobra"
	"gopkg.in/square/go-jose.v2"
)

type verifyFlags struct {
	issuer        string
	clientID      string
	nonce         string
	decryptionKey string
	jwks          string
}

type verifyResult struct {
	Subject rp.Subject             `json:"subject"`
	Claims  map[string]interface{} `json:"claims"`
}

func newVerifyCmd(root *rootFlags) *cobra.Command {
	flags := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify ID_TOKEN",
		Short: "Decrypt and verify an identity token",
		Long: `verify decrypts an id_token with the relying party key, verifies its
signature, issuer, audience and expiry, and prints its claims. The provider's
signing key from the configuration is trusted unless --jwks is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const op = "main.verify"
			decryptionKey, err := readDecryptionKey(flags.decryptionKey)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			keySet, err := readKeySet(root, flags.jwks)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			v, err := rp.NewIDTokenVerifier(flags.issuer, flags.clientID, decryptionKey, keySet)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			t, err := v.Verify(cmd.Context(), args[0], flags.nonce)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			sub, err := rp.ParseSubject(t.Subject)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			claims, err := t.AllClaims()
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(verifyResult{Subject: sub, Claims: claims})
		},
	}
	cmd.Flags().StringVar(&flags.issuer, "issuer", "", "expected issuer, e.g. http://localhost:5156")
	cmd.Flags().StringVar(&flags.clientID, "client-id", "", "expected audience")
	cmd.Flags().StringVar(&flags.nonce, "nonce", "", "expected nonce, not checked when empty")
	cmd.Flags().StringVar(&flags.decryptionKey, "key", "", "relying party private key, PEM or JWK (default: the embedded sample key)")
	cmd.Flags().StringVar(&flags.jwks, "jwks", "", "file holding the provider's JWKS or public key")
	_ = cmd.MarkFlagRequired("issuer")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}

func readDecryptionKey(path string) (*jose.JSONWebKey, error) {
	data := certs.RelyingPartyKey
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return token.ParsePrivateKey(data)
}

func readKeySet(root *rootFlags, path string) (*rp.StaticKeySet, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return rp.ParseStaticKeySet(data)
	}
	cfg, err := config.Load(root.envFile)
	if err != nil {
		return nil, err
	}
	signingKey, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}
	return rp.NewStaticKeySet(signingKey)
}
