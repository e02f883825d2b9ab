package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akruglov/shopfront/internal/models"
)

// AddToCart inserts a line with quantity 1 or bumps the existing line by one,
// as a single upsert statement. The composite unique index on
// (user_id, product_id) makes this safe against concurrent adds for the same
// pair: no duplicate rows, no lost increments.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uint) (*models.CartLine, error) {
	var stored models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line := models.CartLine{
			UserID:    userID,
			ProductID: productID,
			Quantity:  1,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("quantity + 1"),
			}),
		}).Create(&line).Error; err != nil {
			return err
		}

		// The upsert does not report the post-increment quantity; read it
		// back inside the same transaction so a concurrent removal cannot
		// slip between the two statements.
		return tx.
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

type CartEntry struct {
	Line    models.CartLine
	Product models.Product
}

// CartLinesForUser returns the user's lines joined with their products,
// ordered by line id.
func (r *GormRepo) CartLinesForUser(ctx context.Context, userID uint) ([]CartEntry, error) {
	var lines []models.CartLine
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}

	entries := make([]CartEntry, 0, len(lines))
	for _, line := range lines {
		var product models.Product
		if err := r.DB.WithContext(ctx).First(&product, line.ProductID).Error; err != nil {
			return nil, err
		}
		entries = append(entries, CartEntry{Line: line, Product: product})
	}
	return entries, nil
}

// RemoveFromCart deletes the user's line for the product. Deleting an absent
// line is a no-op, so repeated removals are safe.
func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartLine{}).Error
}
