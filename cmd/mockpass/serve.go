// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/mockpass/config"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/provider"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mock provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, nil)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "listen port, overriding MOCKPASS_PORT and PORT")
	return cmd
}

// serve runs the provider until ctx is done. When ready is not nil it
// receives the listener address once the server accepts connections.
func serve(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	const op = "main.serve"
	logger := cfg.Logger(nil)

	signingKey, err := cfg.SigningKey()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	encryptionKey, err := cfg.EncryptionKey()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p, err := provider.NewProvider(signingKey, encryptionKey, cfg.ProviderOptions(logger)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer p.Done()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	srv := &http.Server{
		Handler:           p.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("mockpass listening", "addr", ln.Addr().String(), "show_login_page", cfg.ShowLoginPage)
	for _, v := range profile.Variants() {
		logger.Info("serving variant", "variant", v.String(), "metadata", "/"+v.Segment()+"/metadata")
	}
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
