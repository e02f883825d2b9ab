package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/akruglov/shopfront/internal/models"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
