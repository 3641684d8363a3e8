// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"time"

	"github.com/hashicorp/go-hclog"
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

// DefaultSweepInterval is how often expired entries are purged when
// WithSweepInterval is not used.
const DefaultSweepInterval = time.Minute

type options struct {
	withNow           func() time.Time
	withSweepInterval time.Duration
	withLogger        hclog.Logger
}

func defaults() options {
	return options{
		withNow:           time.Now,
		withSweepInterval: DefaultSweepInterval,
		withLogger:        hclog.NewNullLogger(),
	}
}

func getOpts(opt ...Option) options {
	opts := defaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithNow provides an optional clock, mostly useful for tests.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && now != nil {
			o.withNow = now
		}
	}
}

// WithSweepInterval sets how often expired entries are purged in the
// background. Zero disables the background sweep; expiry is still enforced on
// every read.
func WithSweepInterval(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withSweepInterval = d
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && l != nil {
			o.withLogger = l
		}
	}
}
