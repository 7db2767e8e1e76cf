package auth

import (
	"context"
	"errors"

	"invoice-automation/backend/internal/cache"
)

// ErrRevokedToken is returned for tokens invalidated by logout
var ErrRevokedToken = errors.New("token has been revoked")

const revokedKeyPrefix = "token:revoked:"

// WithRevocationStore enables logout by remembering revoked token ids
func (s *TokenService) WithRevocationStore(store cache.Store) *TokenService {
	s.revoked = store
	return s
}

// Revoke blacklists the token id until the token would have expired anyway
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.revoked == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, []byte("1"), ttl)
}

// IsRevoked reports whether the token id was revoked
func (s *TokenService) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if s.revoked == nil || claims.ID == "" {
		return false, nil
	}
	_, ok, err := s.revoked.Get(ctx, revokedKeyPrefix+claims.ID)
	return ok, err
}
