// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"fmt"
	"time"

	"github.com/hashicorp/mockpass/profile"
)

// DefaultAuthCodeTTL is how long an unredeemed authorization code lives.
const DefaultAuthCodeTTL = 5 * time.Minute

// PendingExchange is what an authorization code will be exchanged for.
type PendingExchange struct {
	Profile   profile.Profile
	Nonce     string
	CreatedAt time.Time
}

type pendingExchange struct {
	profile profile.Profile
	nonce   string
}

// AuthCodeStore holds issued authorization codes until they are redeemed or
// expire.
type AuthCodeStore struct {
	cache *Cache[pendingExchange]
}

// NewAuthCodeStore creates an AuthCodeStore whose codes live for ttl.
//
// Supported options:
//   - WithNow
//   - WithSweepInterval
//   - WithLogger
func NewAuthCodeStore(ttl time.Duration, opt ...Option) (*AuthCodeStore, error) {
	const op = "store.NewAuthCodeStore"
	c, err := NewCache[pendingExchange](ttl, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AuthCodeStore{cache: c}, nil
}

// Issue binds a new authorization code to the profile and nonce.
func (s *AuthCodeStore) Issue(p profile.Profile, nonce string) (string, error) {
	const op = "store.(AuthCodeStore).Issue"
	code, err := NewCode()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.cache.Set(code, pendingExchange{profile: p, nonce: nonce})
	return code, nil
}

// Redeem consumes the authorization code. A code can be redeemed at most once;
// unknown, expired and already redeemed codes all return ErrInvalidGrant.
func (s *AuthCodeStore) Redeem(code string) (PendingExchange, error) {
	const op = "store.(AuthCodeStore).Redeem"
	if code == "" {
		return PendingExchange{}, fmt.Errorf("%s: missing code: %w", op, ErrInvalidGrant)
	}
	pe, createdAt, ok := s.cache.Take(code)
	if !ok {
		return PendingExchange{}, fmt.Errorf("%s: unknown or expired code: %w", op, ErrInvalidGrant)
	}
	return PendingExchange{Profile: pe.profile, Nonce: pe.nonce, CreatedAt: createdAt}, nil
}

// Len returns the number of outstanding codes.
func (s *AuthCodeStore) Len() int { return s.cache.Len() }

// Done releases the store's background resources.
func (s *AuthCodeStore) Done() { s.cache.Done() }
