// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/mockpass/profile"
	"github.com/hashicorp/mockpass/store"
)

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

type options struct {
	withLogger        hclog.Logger
	withShowLoginPage bool
	withDefaultNRIC   string
	withAuthCodeTTL   time.Duration
	withSweepInterval time.Duration
	withNow           func() time.Time
	withRegistries    map[profile.Variant]*profile.Registry
}

func defaults() options {
	return options{
		withLogger:        hclog.NewNullLogger(),
		withAuthCodeTTL:   store.DefaultAuthCodeTTL,
		withSweepInterval: store.DefaultSweepInterval,
		withNow:           time.Now,
		withRegistries:    map[profile.Variant]*profile.Registry{},
	}
}

func getOpts(opt ...Option) options {
	opts := defaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithShowLoginPage makes the authorization endpoint render the profile
// chooser unless a request says otherwise.
func WithShowLoginPage(show bool) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withShowLoginPage = show
		}
	}
}

// WithDefaultNRIC selects the profile which direct logins resolve to when no
// override is supplied.
func WithDefaultNRIC(nric string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withDefaultNRIC = nric
		}
	}
}

// WithAuthCodeTTL provides an optional lifetime for authorization codes.
func WithAuthCodeTTL(ttl time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withAuthCodeTTL = ttl
		}
	}
}

// WithSweepInterval sets how often expired codes and tokens are purged. Zero
// disables sweeping.
func WithSweepInterval(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withSweepInterval = d
		}
	}
}

// WithNow provides an optional clock.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && now != nil {
			o.withNow = now
		}
	}
}

// WithRegistry replaces the built in personas of the registry's variant.
// WithDefaultNRIC does not apply to a replaced registry.
func WithRegistry(r *profile.Registry) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && r != nil {
			o.withRegistries[r.Variant()] = r
		}
	}
}
