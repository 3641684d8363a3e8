// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Profile is an identity persona which can be logged in as. Profiles are
// values and are never mutated once constructed.
type Profile struct {
	// NRIC is the principal identifier.
	NRIC string `json:"nric"`

	// UUID is an opaque correlation identifier for the principal.
	UUID string `json:"uuid"`

	// UEN is the organization identifier (organization variant only).
	UEN string `json:"uen,omitempty"`

	// Name is the display name (organization variant only).
	Name string `json:"name,omitempty"`

	// IsSingPassHolder reports whether an organization user also holds an
	// individual identity.
	IsSingPassHolder bool `json:"isSingPassHolder"`
}

// Attribute names a profile attribute which can be supplied by a caller.
type Attribute string

const (
	AttrNRIC Attribute = "nric"
	AttrUUID Attribute = "uuid"
	AttrUEN  Attribute = "uen"
)

// Attributes is a set of caller supplied profile attributes.
type Attributes map[Attribute]string

// Get returns the attribute's value from the profile.
func (p Profile) Get(a Attribute) string {
	switch a {
	case AttrNRIC:
		return p.NRIC
	case AttrUUID:
		return p.UUID
	case AttrUEN:
		return p.UEN
	default:
		return ""
	}
}

// Variant identifies the category of identity an identity provider issues.
type Variant string

const (
	// SingPass is the individual identity variant.
	SingPass Variant = "singPass"

	// CorpPass is the organization identity variant.
	CorpPass Variant = "corpPass"
)

var requiredAttributes = map[Variant][]Attribute{
	SingPass: {AttrNRIC, AttrUUID},
	CorpPass: {AttrNRIC, AttrUUID, AttrUEN},
}

// Variants returns every supported variant in a stable order.
func Variants() []Variant {
	return []Variant{SingPass, CorpPass}
}

// ParseVariant returns the variant for a variant name or its lowercased route
// segment.
func ParseVariant(s string) (Variant, error) {
	const op = "profile.ParseVariant"
	for _, v := range Variants() {
		if s == string(v) || s == v.Segment() {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %q: %w", op, s, ErrUnsupportedVariant)
}

// Validate returns an error if the variant is not supported.
func (v Variant) Validate() error {
	const op = "profile.(Variant).Validate"
	if _, ok := requiredAttributes[v]; !ok {
		return fmt.Errorf("%s: %q: %w", op, string(v), ErrUnsupportedVariant)
	}
	return nil
}

// Segment is the lowercased route segment of the variant.
func (v Variant) Segment() string {
	return strings.ToLower(string(v))
}

func (v Variant) String() string {
	return string(v)
}

// RequiredAttributes returns the attributes a caller must supply to construct
// a profile of this variant.
func (v Variant) RequiredAttributes() []Attribute {
	attrs := requiredAttributes[v]
	out := make([]Attribute, len(attrs))
	copy(out, attrs)
	return out
}

// Missing returns the required attributes which are empty in attrs, sorted.
func (v Variant) Missing(attrs Attributes) []Attribute {
	var missing []Attribute
	for _, a := range requiredAttributes[v] {
		if attrs[a] == "" {
			missing = append(missing, a)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// Override constructs a profile from caller supplied attributes. It reports
// false when any required attribute is missing, in which case no profile is
// constructed at all.
func (v Variant) Override(attrs Attributes) (Profile, bool) {
	if v.Validate() != nil || len(v.Missing(attrs)) > 0 {
		return Profile{}, false
	}
	return v.Build(attrs), true
}

// Build constructs a profile from exactly the supplied attributes without
// checking for completeness. Organization profiles get a synthesized display
// name and are never dual affiliated.
func (v Variant) Build(attrs Attributes) Profile {
	p := Profile{
		NRIC: attrs[AttrNRIC],
		UUID: attrs[AttrUUID],
	}
	if v == CorpPass {
		p.UEN = attrs[AttrUEN]
		p.Name = "Name of " + p.NRIC
		p.IsSingPassHolder = false
	}
	return p
}

// Complete returns an error naming the required attributes which are empty in
// the profile.
func (v Variant) Complete(p Profile) error {
	const op = "profile.(Variant).Complete"
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	attrs := Attributes{}
	for _, a := range requiredAttributes[v] {
		attrs[a] = p.Get(a)
	}
	if missing := v.Missing(attrs); len(missing) > 0 {
		return fmt.Errorf("%s: %s profile %q missing %v: %w", op, v, p.NRIC, missing, ErrIncompleteProfile)
	}
	return nil
}
