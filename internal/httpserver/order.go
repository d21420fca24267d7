package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	authmw "github.com/Skotchmaster/electro_shop/internal/middleware/auth"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Place(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	res, err := h.Svc.PlaceOrder(ctx, id.UserID, req)
	if err != nil {
		return err
	}

	msg := "Order placed successfully"
	if !res.CartCleared {
		msg = "Order placed successfully, but the cart could not be cleared"
	}
	return c.JSON(http.StatusCreated, transport.PlaceOrderResponse{
		Success:     true,
		OrderID:     res.Order.ID,
		Message:     msg,
		CartCleared: res.CartCleared,
	})
}

func (h *OrderHTTP) History(c echo.Context) error {
	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.History(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NotFound("Order not found")
	}
	order, err := h.Svc.GetOrder(c.Request().Context(), id.UserID, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
