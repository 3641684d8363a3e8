// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"net/http"
	"strings"

	"github.com/hashicorp/mockpass/profile"
)

// Metadata is a variant's discovery document.
type Metadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	JWKSURI                           string   `json:"jwks_uri"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// NewMetadata returns the discovery document of the variant served at
// baseURL. The issuer is baseURL itself.
func NewMetadata(baseURL string, v profile.Variant) Metadata {
	prefix := baseURL + "/" + v.Segment()
	return Metadata{
		Issuer:                baseURL,
		AuthorizationEndpoint: prefix + "/authorize",
		TokenEndpoint:         prefix + "/token",
		ScopesSupported: []string{
			"openid",
			"profile",
			"email",
			"address",
			"phone",
			"offline_access",
		},
		ResponseTypesSupported: []string{
			"code",
			"code id_token",
			"id_token",
			"token id_token",
		},
		ClaimsSupported:                   []string{"sub", "iss", "acr", "name"},
		SubjectTypesSupported:             []string{"public", "pairwise"},
		JWKSURI:                           prefix + "/jwks",
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post"},
	}
}

// BaseURL is the scheme and host the request was addressed to. A scheme set
// by a proxy in X-Forwarded-Proto wins.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		if first = strings.ToLower(strings.TrimSpace(first)); first == "http" || first == "https" {
			scheme = first
		}
	}
	return scheme + "://" + r.Host
}
