// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package store

import (
	"fmt"
	"time"

	"github.com/hashicorp/mockpass/profile"
)

// RefreshTokenTTL is the fixed lifetime of a refresh token.
const RefreshTokenTTL = 24 * time.Hour

// RefreshBinding is the profile a refresh token was issued for.
type RefreshBinding struct {
	Profile   profile.Profile
	CreatedAt time.Time
}

// RefreshTokenStore binds refresh tokens to profiles. Tokens are not revoked
// when used; each one lives until RefreshTokenTTL has passed.
type RefreshTokenStore struct {
	cache *Cache[profile.Profile]
}

// NewRefreshTokenStore creates a RefreshTokenStore.
//
// Supported options:
//   - WithNow
//   - WithSweepInterval
//   - WithLogger
func NewRefreshTokenStore(opt ...Option) (*RefreshTokenStore, error) {
	const op = "store.NewRefreshTokenStore"
	c, err := NewCache[profile.Profile](RefreshTokenTTL, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RefreshTokenStore{cache: c}, nil
}

// Issue mints a new refresh token bound to the profile.
func (s *RefreshTokenStore) Issue(p profile.Profile) (string, error) {
	const op = "store.(RefreshTokenStore).Issue"
	t, err := NewOpaqueToken(RefreshTokenSize)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.cache.Set(t, p)
	return t, nil
}

// Lookup returns the binding for a live refresh token. The token stays valid.
func (s *RefreshTokenStore) Lookup(token string) (RefreshBinding, error) {
	const op = "store.(RefreshTokenStore).Lookup"
	if token == "" {
		return RefreshBinding{}, fmt.Errorf("%s: missing refresh token: %w", op, ErrInvalidGrant)
	}
	p, createdAt, ok := s.cache.Get(token)
	if !ok {
		return RefreshBinding{}, fmt.Errorf("%s: unknown or expired refresh token: %w", op, ErrInvalidGrant)
	}
	return RefreshBinding{Profile: p, CreatedAt: createdAt}, nil
}

// Revoke removes a refresh token. Unknown tokens are ignored.
func (s *RefreshTokenStore) Revoke(token string) {
	s.cache.Take(token)
}

// Len returns the number of stored refresh tokens.
func (s *RefreshTokenStore) Len() int { return s.cache.Len() }

// Done releases the store's background resources.
func (s *RefreshTokenStore) Done() { s.cache.Done() }
