package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	authmw "github.com/Skotchmaster/electro_shop/internal/middleware/auth"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.GetCart(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_add_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	cart, err := h.Svc.AddItem(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	productID, err := pathUUID(c, "productId")
	if err != nil {
		return err
	}
	cart, err := h.Svc.RemoveItem(c.Request().Context(), id.UserID, productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}
