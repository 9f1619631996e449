package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/metrics"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

// CheckoutService empties carts. No order record is kept.
type CheckoutService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Metrics *metrics.Metrics
}

func (s *CheckoutService) Summary(ctx context.Context, userID uint) (*CartSummary, error) {
	lines, err := s.Repo.FindCartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return summarize(lines), nil
}

func (s *CheckoutService) Complete(ctx context.Context, userID uint) (*CartSummary, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.complete", "user_id", userID)

	sum, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if removed == 0 {
		return nil, ErrEmptyCart
	}

	l.Info("checkout_completed", "items", removed, "total", sum.Total.StringFixed(2))
	s.Metrics.CheckoutCompleted()
	publish(ctx, s.Events, s.Metrics, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":    "checkout_completed",
		"user_id": userID,
		"items":   sum.Count(),
		"total":   sum.Total.StringFixed(2),
	})
	return sum, nil
}
