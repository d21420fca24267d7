package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	resp, err := h.Svc.Login(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHTTP) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("admin_login_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	resp, err := h.Svc.AdminLogin(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
