// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Registry is the immutable set of personas for one variant.
type Registry struct {
	variant    Variant
	profiles   []Profile
	defaultIdx int
	extended   map[string]struct{}
}

// NewRegistry creates a registry for the variant. Every profile must carry the
// variant's required attributes.
//
// Supported options:
//   - WithDefaultNRIC
//   - WithExtendedProfiles
func NewRegistry(v Variant, profiles []Profile, opt ...Option) (*Registry, error) {
	const op = "profile.NewRegistry"
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", op, v, ErrEmptyRegistry)
	}
	var retErr *multierror.Error
	for _, p := range profiles {
		if err := v.Complete(p); err != nil {
			retErr = multierror.Append(retErr, err)
		}
	}
	if err := retErr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := getRegistryOpts(opt...)
	r := &Registry{
		variant:    v,
		profiles:   make([]Profile, len(profiles)),
		defaultIdx: -1,
		extended:   make(map[string]struct{}, len(opts.withExtendedProfiles)),
	}
	copy(r.profiles, profiles)
	for _, nric := range opts.withExtendedProfiles {
		r.extended[nric] = struct{}{}
	}
	if opts.withDefaultNRIC != "" {
		for i, p := range r.profiles {
			if p.NRIC == opts.withDefaultNRIC {
				r.defaultIdx = i
				break
			}
		}
	}
	return r, nil
}

// Variant returns the registry's variant.
func (r *Registry) Variant() Variant { return r.variant }

// Len returns the number of profiles.
func (r *Registry) Len() int { return len(r.profiles) }

// Profiles returns a copy of the registry's profiles in registration order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// First returns the first registered profile.
func (r *Registry) First() Profile { return r.profiles[0] }

// Default returns the configured default profile, if there is one.
func (r *Registry) Default() (Profile, bool) {
	if r.defaultIdx < 0 {
		return Profile{}, false
	}
	return r.profiles[r.defaultIdx], true
}

// Extended reports whether extended profile data is available for the
// principal.
func (r *Registry) Extended(nric string) bool {
	_, ok := r.extended[nric]
	return ok
}

// DisplayID is how the profile is labelled in the profile chooser.
func (r *Registry) DisplayID(p Profile) string {
	switch r.variant {
	case CorpPass:
		return fmt.Sprintf("%s / UEN: %s", p.NRIC, p.UEN)
	default:
		if r.Extended(p.NRIC) {
			return p.NRIC + " [MyInfo]"
		}
		return p.NRIC
	}
}
