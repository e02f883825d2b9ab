package repo

import (
	"context"

	"github.com/akruglov/shopfront/internal/models"
)

func (r *GormRepo) OrdersForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
