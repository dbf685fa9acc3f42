package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/goshop/storefront/internal/logging"
	authmw "github.com/goshop/storefront/internal/middleware/auth"
	"github.com/goshop/storefront/internal/models"
	"github.com/goshop/storefront/internal/service"
	"github.com/goshop/storefront/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func orderID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.PlaceOrder(ctx, userID, req)
	if err != nil {
		l.Warn("create_order_failed", "user_id", userID, "error", err)
		return httpError(err, "cannot create order")
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalPrice)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_my_orders")

	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	orders, err := h.Svc.ListMyOrders(ctx, userID)
	if err != nil {
		l.Error("get_my_orders_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	orders, err := h.Svc.ListAllOrders(ctx)
	if err != nil {
		l.Error("get_orders_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := orderID(c)
	if err != nil {
		return err
	}
	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	order, err := h.Svc.GetOrderFor(ctx, id, userID, authmw.IsAdmin(c))
	if err != nil {
		l.Warn("get_order_failed", "order_id", id, "user_id", userID, "error", err)
		return httpError(err, "cannot get order")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) PayOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay_order")

	id, err := orderID(c)
	if err != nil {
		return err
	}

	var result models.PaymentResult
	if err := c.Bind(&result); err != nil {
		l.Warn("pay_order_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.MarkPaid(ctx, id, result)
	if err != nil {
		l.Warn("pay_order_failed", "order_id", id, "error", err)
		return httpError(err, "cannot mark order paid")
	}

	l.Info("pay_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) SetOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_status")

	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req transport.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_status_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.SetStatus(ctx, id, req.Status)
	if err != nil {
		l.Warn("set_status_failed", "order_id", id, "new_status", req.Status, "error", err)
		return httpError(err, "cannot update order status")
	}

	l.Info("set_status_success", "order_id", order.ID, "new_status", order.Status)
	return c.JSON(http.StatusOK, order)
}
