package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/goshop/storefront/internal/events"
	"github.com/goshop/storefront/internal/logging"
	"github.com/goshop/storefront/internal/models"
	"github.com/goshop/storefront/internal/repo"
	"github.com/goshop/storefront/internal/transport"
)

const (
	freeShippingAbove = 100.0
	flatShippingFee   = 9.99
	taxRate           = 0.08
)

type OrderService struct {
	Repo     *repo.GormRepo
	Producer events.Publisher
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *OrderService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.Publish(ctx, events.TopicOrderEvents, key, event); err != nil {
		// The order itself is already durable; the event stream catches up later.
		logging.FromContext(ctx).Warn("order_event_publish_failed", "error", err)
	}
}

// PlaceOrder validates the whole cart, then applies every stock
// decrement and the order insert as one transaction. A failed line rolls
// back all decrements.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no items in order", ErrValidation)
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "Credit Card"
	}

	var order *models.Order
	txErr := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var (
			itemsPrice float64
			items      []models.OrderItem
		)

		for _, line := range req.Items {
			product, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
				}
				return err
			}
			if product.Stock < line.Quantity {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
			}

			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Image:     product.Image,
				Price:     product.Price,
				Quantity:  line.Quantity,
			})
			itemsPrice += product.Price * float64(line.Quantity)
		}

		for _, line := range req.Items {
			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// A concurrent order won the stock between the check
					// and the decrement.
					return fmt.Errorf("%w for product %d", ErrInsufficientStock, line.ProductID)
				}
				return err
			}
		}

		itemsPrice = round2(itemsPrice)
		shippingPrice := flatShippingFee
		if itemsPrice > freeShippingAbove {
			shippingPrice = 0
		}
		taxPrice := round2(itemsPrice * taxRate)
		totalPrice := round2(itemsPrice + shippingPrice + taxPrice)

		order = &models.Order{
			UserID:          userID,
			Items:           items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			ItemsPrice:      itemsPrice,
			ShippingPrice:   shippingPrice,
			TaxPrice:        taxPrice,
			TotalPrice:      totalPrice,
			Status:          models.OrderStatusPending,
		}
		return tx.CreateOrder(ctx, order)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, fmt.Sprint(userID), map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalPrice,
	})
	return order, nil
}

// MarkPaid is idempotent: confirming an already-paid order returns it
// unchanged.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uint, result models.PaymentResult) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.IsPaid {
		return order, nil
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	order.Status = models.OrderStatusProcessing
	order.PaymentResult = result

	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, fmt.Sprint(order.UserID), map[string]any{
		"type":     "order_paid",
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return order, nil
}

// SetStatus enforces forward-only lifecycle transitions, with cancelled
// as the escape hatch for anything not yet delivered.
func (s *OrderService) SetStatus(ctx context.Context, orderID uint, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	if !models.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrValidation, order.Status, status)
	}

	order.Status = status
	if status == models.OrderStatusDelivered {
		now := time.Now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, fmt.Sprint(order.UserID), map[string]any{
		"type":     "order_status_changed",
		"order_id": order.ID,
		"status":   status,
	})
	return order, nil
}

// GetOrderFor returns the order when the requester owns it or is admin.
func (s *OrderService) GetOrderFor(ctx context.Context, orderID, userID uint, isAdmin bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}
