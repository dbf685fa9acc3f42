package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goshop/storefront/internal/models"
	"github.com/goshop/storefront/internal/transport"
)

func newOrderService(t *testing.T) (*OrderService, *fakePublisher) {
	pub := &fakePublisher{}
	return &OrderService{Repo: newTestRepo(t), Producer: pub}, pub
}

func lines(pairs ...[2]uint) []transport.OrderLine {
	out := make([]transport.OrderLine, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, transport.OrderLine{ProductID: p[0], Quantity: p[1]})
	}
	return out
}

func TestPlaceOrder_Totals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		price        float64
		qty          uint
		wantItems    float64
		wantShipping float64
		wantTax      float64
		wantTotal    float64
	}{
		{name: "below free shipping", price: 25, qty: 2, wantItems: 50, wantShipping: 9.99, wantTax: 4, wantTotal: 63.99},
		{name: "subtotal exactly 100 still pays shipping", price: 50, qty: 2, wantItems: 100, wantShipping: 9.99, wantTax: 8, wantTotal: 117.99},
		{name: "above free shipping", price: 60, qty: 2, wantItems: 120, wantShipping: 0, wantTax: 9.6, wantTotal: 129.6},
		{name: "tax rounds to two decimals", price: 19.99, qty: 1, wantItems: 19.99, wantShipping: 9.99, wantTax: 1.6, wantTotal: 31.58},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newOrderService(t)
			p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: tt.price, Category: "c", Stock: 10})

			order, err := svc.PlaceOrder(context.Background(), 1, transport.CreateOrderRequest{
				Items: lines([2]uint{p.ID, tt.qty}),
			})
			require.NoError(t, err)

			assert.InDelta(t, tt.wantItems, order.ItemsPrice, 1e-9)
			assert.InDelta(t, tt.wantShipping, order.ShippingPrice, 1e-9)
			assert.InDelta(t, tt.wantTax, order.TaxPrice, 1e-9)
			assert.InDelta(t, tt.wantTotal, order.TotalPrice, 1e-9)
			assert.Equal(t, models.OrderStatusPending, order.Status)
			assert.False(t, order.IsPaid)
		})
	}
}

func TestPlaceOrder_DecrementsStock(t *testing.T) {
	t.Parallel()

	svc, pub := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c", Stock: 2})

	order, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 2}),
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.EqualValues(t, 2, order.Items[0].Quantity)

	got, err := svc.Repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Stock)

	require.Len(t, pub.byType("order_created"), 1)
}

func TestPlaceOrder_InsufficientStock_LeavesStockUnchanged(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c", Stock: 2})

	_, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 3}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := svc.Repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Stock)
}

func TestPlaceOrder_LateLineFailureRollsBackEarlierDecrements(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	ok := seedProduct(t, svc.Repo, models.Product{Name: "ok", Description: "d", Price: 10, Category: "c", Stock: 5})
	short := seedProduct(t, svc.Repo, models.Product{Name: "short", Description: "d", Price: 10, Category: "c", Stock: 1})

	_, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{ok.ID, 3}, [2]uint{short.ID, 2}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := svc.Repo.GetProduct(context.Background(), ok.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.Stock, "first line's stock must be untouched after rollback")
}

func TestPlaceOrder_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c", Stock: 2})

	_, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 0}),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{9999, 1}),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrder_SnapshotSurvivesProductEdit(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "widget", Description: "d", Price: 10, Category: "c", Stock: 5})

	order, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 1}),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Model(&models.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{"name": "renamed", "price": 999.0}).Error)

	got, err := svc.Repo.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "widget", got.Items[0].Name)
	assert.InDelta(t, 10, got.Items[0].Price, 1e-9)
}

func TestMarkPaid(t *testing.T) {
	t.Parallel()

	svc, pub := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c", Stock: 5})
	order, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 1}),
	})
	require.NoError(t, err)

	result := models.PaymentResult{ID: "pay_123", Status: "COMPLETED", EmailAddress: "a@b.c"}
	paid, err := svc.MarkPaid(context.Background(), order.ID, result)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, models.OrderStatusProcessing, paid.Status)
	assert.Equal(t, "pay_123", paid.PaymentResult.ID)

	// Second confirmation must not overwrite anything or publish again.
	firstPaidAt := *paid.PaidAt
	again, err := svc.MarkPaid(context.Background(), order.ID, models.PaymentResult{ID: "pay_456"})
	require.NoError(t, err)
	assert.Equal(t, "pay_123", again.PaymentResult.ID)
	require.NotNil(t, again.PaidAt)
	assert.Equal(t, firstPaidAt.Unix(), again.PaidAt.Unix())
	assert.Len(t, pub.byType("order_paid"), 1)
}

func TestMarkPaid_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	_, err := svc.MarkPaid(context.Background(), 42, models.PaymentResult{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatus_Delivered(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c", Stock: 5})
	order, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 1}),
	})
	require.NoError(t, err)

	shipped, err := svc.SetStatus(context.Background(), order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, shipped.IsDelivered)
	assert.Nil(t, shipped.DeliveredAt)

	delivered, err := svc.SetStatus(context.Background(), order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.NotNil(t, delivered.DeliveredAt)
}

func TestSetStatus_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "pending to processing", from: models.OrderStatusPending, to: models.OrderStatusProcessing},
		{name: "processing to shipped", from: models.OrderStatusProcessing, to: models.OrderStatusShipped},
		{name: "pending to cancelled", from: models.OrderStatusPending, to: models.OrderStatusCancelled},
		{name: "delivered back to pending", from: models.OrderStatusDelivered, to: models.OrderStatusPending, wantErr: true},
		{name: "shipped back to processing", from: models.OrderStatusShipped, to: models.OrderStatusProcessing, wantErr: true},
		{name: "delivered to cancelled", from: models.OrderStatusDelivered, to: models.OrderStatusCancelled, wantErr: true},
		{name: "cancelled to shipped", from: models.OrderStatusCancelled, to: models.OrderStatusShipped, wantErr: true},
		{name: "unknown status", from: models.OrderStatusPending, to: "lost", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newOrderService(t)
			order := models.Order{UserID: 7, Status: tt.from, PaymentMethod: "Credit Card"}
			require.NoError(t, svc.Repo.DB.Create(&order).Error)

			_, err := svc.SetStatus(context.Background(), order.ID, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetOrderFor_Authorization(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c", Stock: 5})
	order, err := svc.PlaceOrder(context.Background(), 7, transport.CreateOrderRequest{
		Items: lines([2]uint{p.ID, 1}),
	})
	require.NoError(t, err)

	_, err = svc.GetOrderFor(context.Background(), order.ID, 7, false)
	require.NoError(t, err)

	_, err = svc.GetOrderFor(context.Background(), order.ID, 8, false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrderFor(context.Background(), order.ID, 8, true)
	require.NoError(t, err)
}
