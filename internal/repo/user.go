package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/akruglov/shopfront/internal/hash"
	"github.com/akruglov/shopfront/internal/models"
)

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicateAccount
	}
	return nil
}

func (r *GormRepo) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &stored, nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true).Error
}
