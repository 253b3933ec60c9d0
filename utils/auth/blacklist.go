package auth

import (
	"context"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils/cache"
	"gorm.io/gorm"
)

const revokedKeyPrefix = "revoked_jti:"

// BlacklistService handles JWT token revocation. Revocations are persisted in
// the database; when a cache is configured they are mirrored there with the
// token's remaining lifetime so the hot path skips the database.
type BlacklistService struct {
	db    *gorm.DB
	cache cache.Store
}

// NewBlacklistService creates a new blacklist service. store may be nil.
func NewBlacklistService(db *gorm.DB, store cache.Store) *BlacklistService {
	return &BlacklistService{db: db, cache: store}
}

// RevokeToken adds a token to the blacklist
func (s *BlacklistService) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	entry := model.JWTTokenBlacklist{
		Token:     jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	if s.cache != nil {
		if ttl := time.Until(expiresAt); ttl > 0 {
			_ = s.cache.Set(ctx, revokedKeyPrefix+jti, reason, ttl)
		}
	}
	return nil
}

// IsTokenRevoked checks if a token is in the blacklist
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.cache != nil {
		if found, err := s.cache.Exists(ctx, revokedKeyPrefix+jti); err == nil && found {
			return true, nil
		}
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("token = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RevokeAllUserTokens increments user's token version to invalidate all tokens
func (s *BlacklistService) RevokeAllUserTokens(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).
		Error
}

// CleanupExpiredTokens removes expired entries from the blacklist and reports how many were removed
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
