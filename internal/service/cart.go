package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/metrics"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

type CartService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Metrics *metrics.Metrics
}

type CartSummary struct {
	Lines []models.CartLine
	Total decimal.Decimal
}

func (c *CartSummary) Empty() bool { return len(c.Lines) == 0 }

func (c *CartSummary) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Item.Quantity
	}
	return n
}

func summarize(lines []models.CartLine) *CartSummary {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &CartSummary{Lines: lines, Total: total}
}

// Add puts one more copy of the book into the user's cart and returns the book.
func (s *CartService) Add(ctx context.Context, userID, bookID uint) (*models.Book, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add", "user_id", userID, "book_id", bookID)

	book, err := s.Repo.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book %d: %w", bookID, ErrNotFound)
		}
		return nil, err
	}

	item, err := s.Repo.AddToCart(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	l.Info("cart_item_added", "item_id", item.ID, "quantity", item.Quantity)
	s.Metrics.CartItemAdded()
	publish(ctx, s.Events, s.Metrics, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":     "cart_item_added",
		"user_id":  userID,
		"book_id":  bookID,
		"quantity": item.Quantity,
	})
	return book, nil
}

// ownedItem loads a cart item and checks it belongs to userID.
func (s *CartService) ownedItem(ctx context.Context, userID, itemID uint) (*models.CartItem, error) {
	item, err := s.Repo.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("cart item %d: %w", itemID, ErrForbidden)
	}
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteCartItem(ctx, item.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
		}
		return fmt.Errorf("delete cart item: %w", err)
	}

	publish(ctx, s.Events, s.Metrics, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":    "cart_item_removed",
		"user_id": userID,
		"book_id": item.BookID,
	})
	return nil
}

// ParseQuantity accepts only positive integers.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q <= 0 {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

// UpdateQuantity checks existence and ownership before it looks at the quantity.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uint, rawQuantity string) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	quantity, err := ParseQuantity(rawQuantity)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateCartQuantity(ctx, item.ID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
		}
		return fmt.Errorf("update quantity: %w", err)
	}

	publish(ctx, s.Events, s.Metrics, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":     "cart_item_updated",
		"user_id":  userID,
		"book_id":  item.BookID,
		"quantity": quantity,
	})
	return nil
}

func (s *CartService) Summary(ctx context.Context, userID uint) (*CartSummary, error) {
	lines, err := s.Repo.FindCartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return summarize(lines), nil
}

// Total is the sum of quantity times current price over the user's items.
func (s *CartService) Total(ctx context.Context, userID uint) (decimal.Decimal, error) {
	sum, err := s.Summary(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Total, nil
}
