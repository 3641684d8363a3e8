// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"
)

// Metadata is the part of a provider's discovery document a relying party
// needs.
type Metadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// Validate returns every missing field.
func (m *Metadata) Validate() error {
	const op = "rp.(Metadata).Validate"
	var result *multierror.Error
	if m.Issuer == "" {
		result = multierror.Append(result, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidMetadata))
	}
	if m.AuthorizationEndpoint == "" {
		result = multierror.Append(result, fmt.Errorf("%s: authorization_endpoint is empty: %w", op, ErrInvalidMetadata))
	}
	if m.TokenEndpoint == "" {
		result = multierror.Append(result, fmt.Errorf("%s: token_endpoint is empty: %w", op, ErrInvalidMetadata))
	}
	if m.JWKSURI == "" {
		result = multierror.Append(result, fmt.Errorf("%s: jwks_uri is empty: %w", op, ErrInvalidMetadata))
	}
	return result.ErrorOrNil()
}

// Endpoint returns the provider's OAuth2 endpoints. Client credentials are
// sent in the request body.
func (m *Metadata) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   m.AuthorizationEndpoint,
		TokenURL:  m.TokenEndpoint,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// FetchMetadata retrieves and validates the discovery document at
// metadataURL.
func FetchMetadata(ctx context.Context, client *http.Client, metadataURL string) (*Metadata, error) {
	const op = "rp.FetchMetadata"
	if client == nil {
		return nil, fmt.Errorf("%s: http client is nil: %w", op, ErrNilParameter)
	}
	if metadataURL == "" {
		return nil, fmt.Errorf("%s: metadata URL is empty: %w", op, ErrInvalidParameter)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read response body: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s: %s: %w", op, resp.Status, body, ErrInvalidMetadata)
	}
	var m Metadata
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidMetadata)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}
