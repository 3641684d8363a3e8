// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package token

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/mockpass/profile"
	"gopkg.in/square/go-jose.v2"
)

// VariantClaims are the parts of an identity token which depend on the
// identity provider variant.
type VariantClaims struct {
	Subject string
	Extra   map[string]interface{}
}

// ClaimsFunc derives the variant specific claims for a profile.
type ClaimsFunc func(p profile.Profile) VariantClaims

// ClaimsFor returns the claim shape of the variant.
func ClaimsFor(v profile.Variant) (ClaimsFunc, error) {
	const op = "token.ClaimsFor"
	switch v {
	case profile.SingPass:
		return IndividualClaims, nil
	case profile.CorpPass:
		return OrganizationClaims, nil
	default:
		return nil, fmt.Errorf("%s: %q: %w", op, v, profile.ErrUnsupportedVariant)
	}
}

// IndividualClaims identifies an individual by principal and correlation id.
func IndividualClaims(p profile.Profile) VariantClaims {
	return VariantClaims{
		Subject: fmt.Sprintf("s=%s,u=%s", p.NRIC, p.UUID),
	}
}

// OrganizationClaims identifies a user acting for an organization and
// describes the organization.
func OrganizationClaims(p profile.Profile) VariantClaims {
	holder := "NO"
	if p.IsSingPassHolder {
		holder = "YES"
	}
	return VariantClaims{
		Subject: fmt.Sprintf("s=%s,u=%s,c=SG", p.NRIC, p.UUID),
		Extra: map[string]interface{}{
			"userInfo": map[string]interface{}{
				"CPAccType":     "User",
				"CPUID_FULL":    p.Name,
				"ISSPHOLDER":    holder,
				"CPUID":         p.NRIC,
				"CPEntID":       p.UEN,
				"CPEnt_TYPE":    "UEN",
				"CPEnt_Status":  "Registered",
				"CPUID_Country": "SG",
			},
			"entityInfo": map[string]interface{}{
				"CPEntID":          p.UEN,
				"CPEnt_TYPE":       "UEN",
				"CPEnt_Status":     "Registered",
				"CPNonUEN_Country": "",
				"CPNonUEN_RegNo":   "",
				"CPNonUEN_Name":    "",
			},
			"authInfo": map[string]interface{}{
				"Result_Set": map[string]interface{}{
					"ESrvc_Row_Count": 0,
					"ESrvc_Result":    []interface{}{},
				},
			},
		},
	}
}

// tokenHash computes an OIDC at_hash style value: the left half of the hash of
// value, using the hash which matches the signing algorithm.
func tokenHash(alg jose.SignatureAlgorithm, value string) (string, error) {
	const op = "token.tokenHash"
	var sum []byte
	switch alg {
	case jose.RS256, jose.ES256, jose.PS256:
		s := sha256.Sum256([]byte(value))
		sum = s[:]
	case jose.RS384, jose.ES384, jose.PS384:
		s := sha512.Sum384([]byte(value))
		sum = s[:]
	case jose.RS512, jose.ES512, jose.PS512:
		s := sha512.Sum512([]byte(value))
		sum = s[:]
	default:
		return "", fmt.Errorf("%s: %s: %w", op, alg, ErrInvalidParameter)
	}
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2]), nil
}
