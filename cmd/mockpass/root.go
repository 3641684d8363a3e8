// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/hashicorp/mockpass/config"
	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

type rootFlags struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "mockpass",
		Short: "Mock SingPass/CorpPass OpenID Connect provider",
		Long: `mockpass serves the SingPass and CorpPass authorization code flows for
local development and testing. Identity tokens are signed with the provider key
and encrypted for the relying party key, both configurable through the
environment (see "mockpass env").`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", config.DefaultEnvFile, "file of environment variables loaded before reading the configuration")

	cmd.AddCommand(
		newServeCmd(flags),
		newVerifyCmd(flags),
		newEnvCmd(),
	)
	return cmd
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables mockpass reads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Usage(cmd.OutOrStdout())
		},
	}
}
