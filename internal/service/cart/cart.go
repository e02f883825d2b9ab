package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/akruglov/shopfront/internal/events"
	"github.com/akruglov/shopfront/internal/logging"
	"github.com/akruglov/shopfront/internal/models"
	"github.com/akruglov/shopfront/internal/repo"
)

type Service struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type LineView struct {
	Line      models.CartLine `json:"line"`
	Product   models.Product  `json:"product"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type View struct {
	Items         []LineView      `json:"items"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity uint            `json:"total_quantity"`
}

// Add puts one more unit of the product into the user's cart. The product
// must exist; repo.ErrNotFound is returned untouched for unknown ids.
func (s *Service) Add(ctx context.Context, userID, productID uint) (*models.CartLine, error) {
	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	line, err := s.Repo.AddToCart(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":      "cart_line_added",
		"userID":    userID,
		"productID": product.ID,
		"quantity":  line.Quantity,
	}, userID)

	return line, nil
}

// View joins the user's lines with their products and computes both totals.
// All money arithmetic goes through decimal and is rounded to the currency's
// two minor-unit places, so the sum cannot drift with ordering.
func (s *Service) View(ctx context.Context, userID uint) (*View, error) {
	entries, err := s.Repo.CartLinesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{
		Items:      make([]LineView, 0, len(entries)),
		TotalPrice: decimal.Zero,
	}
	for _, e := range entries {
		lineTotal := decimal.NewFromFloat(e.Product.Price).
			Mul(decimal.NewFromInt(int64(e.Line.Quantity))).
			Round(2)
		view.Items = append(view.Items, LineView{
			Line:      e.Line,
			Product:   e.Product,
			LineTotal: lineTotal,
		})
		view.TotalPrice = view.TotalPrice.Add(lineTotal)
		view.TotalQuantity += e.Line.Quantity
	}
	view.TotalPrice = view.TotalPrice.Round(2)
	return view, nil
}

func (s *Service) Remove(ctx context.Context, userID, productID uint) error {
	if err := s.Repo.RemoveFromCart(ctx, userID, productID); err != nil {
		return err
	}

	s.publish(ctx, map[string]any{
		"type":      "cart_line_removed",
		"userID":    userID,
		"productID": productID,
	}, userID)

	return nil
}

type OrderResult struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// CompleteOrder snapshots the cart into an order and clears the cart, all in
// one transaction. An empty cart returns (nil, nil) so a revisited success
// page stays a no-op.
func (s *Service) CompleteOrder(ctx context.Context, userID uint) (*OrderResult, error) {
	var result *OrderResult

	txErr := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.CartLine
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		total := decimal.Zero
		for _, line := range lines {
			var p models.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				return err
			}
			total = total.Add(
				decimal.NewFromFloat(p.Price).
					Mul(decimal.NewFromInt(int64(line.Quantity))).
					Round(2),
			)
		}

		order := models.Order{
			Reference: uuid.NewString(),
			UserID:    userID,
			Total:     total.Round(2).InexactFloat64(),
			Status:    "paid",
			CreatedAt: time.Now().Unix(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			item := models.OrderItem{
				OrderID:   order.ID,
				UserID:    userID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			items = append(items, item)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}

		result = &OrderResult{Order: order, Items: items}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if result != nil {
		s.publish(ctx, map[string]any{
			"type":      "order_created",
			"userID":    userID,
			"orderID":   result.Order.ID,
			"reference": result.Order.Reference,
			"total":     result.Order.Total,
		}, userID)
	}
	return result, nil
}

func (s *Service) publish(ctx context.Context, event map[string]any, userID uint) {
	if s.Events == nil {
		return
	}
	topic := events.TopicCartEvents
	if event["type"] == "order_created" {
		topic = events.TopicOrderEvents
	}
	if err := s.Events.Publish(ctx, topic, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event publish error", "error", err)
	}
}
