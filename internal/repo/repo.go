package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Ping performs the trivial read used by the readiness probe.
func (r *GormRepo) Ping(ctx context.Context) error {
	var users []models.User
	return r.DB.WithContext(ctx).Select("id").Limit(1).Find(&users).Error
}
