package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("%s must be a valid id", name)
	}
	return id, nil
}

func (h *CatalogHTTP) List(c echo.Context) error {
	products, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) LowStock(c echo.Context) error {
	products, err := h.Svc.LowStock(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) RecentActivities(c echo.Context) error {
	activities, err := h.Svc.RecentActivities(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activities)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	q := c.QueryParam("q")
	if q == "" {
		return apperr.Validation("q is required")
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	total, items, err := h.Svc.Search(ctx, q, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Items: items})
}

func (h *CatalogHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return errBadBody
	}

	p, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted successfully"})
}
