// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package token

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

type assemblerOptions struct {
	withNow    func() time.Time
	withLogger hclog.Logger
}

func assemblerDefaults() assemblerOptions {
	return assemblerOptions{
		withNow:    time.Now,
		withLogger: hclog.NewNullLogger(),
	}
}

func getAssemblerOpts(opt ...Option) assemblerOptions {
	opts := assemblerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithNow provides an optional clock used for the iat and exp claims.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*assemblerOptions); ok && now != nil {
			o.withNow = now
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*assemblerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
