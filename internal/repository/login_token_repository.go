package repository

import (
	"time"

	"github.com/movila/flashback-backend/internal/models"
	"gorm.io/gorm"
)

type LoginTokenRepository struct {
	db *gorm.DB
}

func NewLoginTokenRepository(db *gorm.DB) *LoginTokenRepository {
	return &LoginTokenRepository{db: db}
}

func (r *LoginTokenRepository) Create(token *models.LoginToken) error {
	return r.db.Create(token).Error
}

func (r *LoginTokenRepository) GetByID(id uint) (*models.LoginToken, error) {
	var token models.LoginToken
	err := r.db.First(&token, id).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *LoginTokenRepository) MarkUsed(id uint) error {
	now := time.Now()
	return r.db.Model(&models.LoginToken{}).
		Where("id = ?", id).
		Update("used_at", &now).Error
}

// DeleteExpired removes tokens past their expiry, used or not.
func (r *LoginTokenRepository) DeleteExpired(before time.Time) error {
	return r.db.Where("expires_at < ?", before).Delete(&models.LoginToken{}).Error
}
