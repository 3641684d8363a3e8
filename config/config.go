// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package config reads the mockpass server configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/mockpass/certs"
	"github.com/hashicorp/mockpass/provider"
	"github.com/hashicorp/mockpass/token"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/square/go-jose.v2"
)

const (
	// DefaultEnvFile is read when present. Its absence is not an error.
	DefaultEnvFile = ".env"

	DefaultPort = 5156
)

// Config is the server configuration. Fields are read from the environment
// variables named by their env tags.
type Config struct {
	// Port is the listen port. PORT is consulted when MOCKPASS_PORT is unset.
	Port         int `env:"MOCKPASS_PORT" env-description:"listen port"`
	FallbackPort int `env:"PORT" env-default:"5156" env-description:"listen port when MOCKPASS_PORT is unset"`

	// NRIC selects the default profile of each variant.
	NRIC string `env:"MOCKPASS_NRIC" env-description:"NRIC of the default profile"`

	ShowLoginPage bool `env:"SHOW_LOGIN_PAGE" env-default:"false" env-description:"present the profile chooser instead of logging in directly"`

	// ServiceProviderCertPath is the relying party's public encryption key,
	// PEM or JWK. The embedded sample key is used when empty.
	ServiceProviderCertPath string `env:"SERVICE_PROVIDER_CERT_PATH" env-description:"relying party public encryption key"`

	// SigningKeyPath is the provider's private signing key, PEM or JWK. The
	// embedded key is used when empty.
	SigningKeyPath string `env:"SIGNING_KEY_PATH" env-description:"provider private signing key"`

	AuthCodeTTL        time.Duration `env:"AUTH_CODE_TTL" env-default:"5m" env-description:"lifetime of authorization codes"`
	StoreSweepInterval time.Duration `env:"STORE_SWEEP_INTERVAL" env-default:"1m" env-description:"interval between sweeps of expired codes and tokens, 0 disables"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"trace, debug, info, warn or error"`
	LogJSON  bool   `env:"LOG_JSON" env-default:"false" env-description:"log in JSON"`
}

// Load reads the configuration from the environment after loading envFile
// into it. Variables already set in the environment win over the file. A
// missing DefaultEnvFile is ignored; any other missing file is an error.
func Load(envFile string) (*Config, error) {
	const op = "config.Load"
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !(errors.Is(err, fs.ErrNotExist) && envFile == DefaultEnvFile) {
				return nil, fmt.Errorf("%s: unable to load %s: %v: %w", op, envFile, err, ErrInvalidConfig)
			}
		}
	}
	c := &Config{}
	if err := cleanenv.ReadEnv(c); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidConfig)
	}
	if c.Port == 0 {
		c.Port = c.FallbackPort
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	const op = "config.(Config).Validate"
	var result *multierror.Error
	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port %d is out of range", c.Port))
	}
	if c.AuthCodeTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("AUTH_CODE_TTL must be positive, got %s", c.AuthCodeTTL))
	}
	if c.StoreSweepInterval < 0 {
		result = multierror.Append(result, fmt.Errorf("STORE_SWEEP_INTERVAL cannot be negative, got %s", c.StoreSweepInterval))
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("LOG_LEVEL %q is not a log level", c.LogLevel))
	}
	for env, path := range map[string]string{
		"SERVICE_PROVIDER_CERT_PATH": c.ServiceProviderCertPath,
		"SIGNING_KEY_PATH":           c.SigningKeyPath,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", env, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, ErrInvalidConfig)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// Logger creates the root logger writing to out.
func (c *Config) Logger(out io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "mockpass",
		Level:      hclog.LevelFromString(c.LogLevel),
		JSONFormat: c.LogJSON,
		Output:     out,
	})
}

// SigningKey returns the provider's signing key.
func (c *Config) SigningKey() (*jose.JSONWebKey, error) {
	const op = "config.(Config).SigningKey"
	data, err := readKey(c.SigningKeyPath, certs.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	k, err := token.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// EncryptionKey returns the relying party's public key identity tokens are
// encrypted for.
func (c *Config) EncryptionKey() (*jose.JSONWebKey, error) {
	const op = "config.(Config).EncryptionKey"
	data, err := readKey(c.ServiceProviderCertPath, certs.RelyingPartyPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	k, err := token.ParsePublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// ProviderOptions translates the configuration into provider options.
func (c *Config) ProviderOptions(logger hclog.Logger) []provider.Option {
	return []provider.Option{
		provider.WithLogger(logger),
		provider.WithShowLoginPage(c.ShowLoginPage),
		provider.WithDefaultNRIC(c.NRIC),
		provider.WithAuthCodeTTL(c.AuthCodeTTL),
		provider.WithSweepInterval(c.StoreSweepInterval),
	}
}

// Usage writes a description of every variable to out.
func Usage(out io.Writer) error {
	const op = "config.Usage"
	if _, err := fmt.Fprintln(out, "Environment variables:"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := fmt.Fprintln(out, desc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func readKey(path string, embedded []byte) ([]byte, error) {
	const op = "config.readKey"
	if path == "" {
		return embedded, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}
