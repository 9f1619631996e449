package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) FindSession(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) RevokeSession(ctx context.Context, jti string) error {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).Where("jti = ?", jti).Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteStaleSessions removes sessions that are revoked or expired before now.
func (r *GormRepo) DeleteStaleSessions(ctx context.Context, userID uint, now time.Time) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND (revoked = ? OR expires_at < ?)", userID, true, now).
		Delete(&models.Session{}).Error
}

// OpenSession prunes the user's stale sessions and stores s in one transaction.
func (r *GormRepo) OpenSession(ctx context.Context, s *models.Session, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := New(tx)
		if err := txRepo.DeleteStaleSessions(ctx, s.UserID, now); err != nil {
			return err
		}
		return txRepo.CreateSession(ctx, s)
	})
}
