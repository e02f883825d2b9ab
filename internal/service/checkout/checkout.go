package checkout

import (
	"context"
	"errors"
	"strconv"

	"github.com/akruglov/shopfront/internal/repo"
	"github.com/akruglov/shopfront/internal/stripe"
)

// Bridge turns the user's cart into a hosted payment session. It never
// mutates the cart; that happens on the success callback.
type Bridge struct {
	Repo       *repo.GormRepo
	Client     *stripe.Client
	SuccessURL string
	CancelURL  string
}

var ErrEmptyCart = errors.New("cart is empty")

// SessionURL builds one line item per cart line and asks the processor for a
// session. Returns the URL the client must be redirected to.
func (b *Bridge) SessionURL(ctx context.Context, userID uint) (string, error) {
	entries, err := b.Repo.CartLinesForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", ErrEmptyCart
	}

	items := make([]stripe.LineItem, 0, len(entries))
	for _, e := range entries {
		ref := e.Product.PriceRef
		if ref == "" {
			ref = strconv.FormatUint(uint64(e.Product.ID), 10)
		}
		items = append(items, stripe.LineItem{
			PriceRef: ref,
			Quantity: e.Line.Quantity,
		})
	}

	session, err := b.Client.CreateCheckoutSession(ctx, items, b.SuccessURL, b.CancelURL)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}
