package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	authmw "github.com/Skotchmaster/electro_shop/internal/middleware/auth"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type ProfileHTTP struct {
	Svc *service.ProfileService
}

func (h *ProfileHTTP) Get(c echo.Context) error {
	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	p, err := h.Svc.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update")

	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("profile_update_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	p, err := h.Svc.Update(ctx, id.UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.change_password")

	id, err := authmw.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	if err := h.Svc.ChangePassword(ctx, id.UserID, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password updated successfully"})
}
