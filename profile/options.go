// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

type registryOptions struct {
	withDefaultNRIC      string
	withExtendedProfiles []string
}

func registryDefaults() registryOptions {
	return registryOptions{}
}

func getRegistryOpts(opt ...Option) registryOptions {
	opts := registryDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithDefaultNRIC selects the registry profile with the matching principal
// identifier as the variant's default. An unknown or empty nric leaves the
// registry without a configured default.
func WithDefaultNRIC(nric string) Option {
	return func(o interface{}) {
		if o, ok := o.(*registryOptions); ok {
			o.withDefaultNRIC = nric
		}
	}
}

// WithExtendedProfiles marks principals which have extended (MyInfo) profile
// data available. They are annotated when shown in the profile chooser.
func WithExtendedProfiles(nrics ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*registryOptions); ok {
			o.withExtendedProfiles = append(o.withExtendedProfiles, nrics...)
		}
	}
}
