package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/electro_shop/internal/authz"
	authmw "github.com/Skotchmaster/electro_shop/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/electro_shop/internal/middleware/logging"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
)

type Deps struct {
	Auth    *service.AuthService
	Profile *service.ProfileService
	Catalog *service.CatalogService
	Cart    *service.CartService
	Order   *service.OrderService

	Tokens *tokens.Service

	// Ready backs /health/ready. Nil means always ready.
	Ready func(ctx context.Context) error
}

type route struct {
	method  string
	path    string
	req     authz.Requirement
	handler echo.HandlerFunc
}

// Register mounts the API on e and installs the guard with a policy built from
// the same route table, so every route has exactly one declared requirement.
func Register(e *echo.Echo, d *Deps) *authz.Policy {
	authH := &AuthHTTP{Svc: d.Auth}
	profileH := &ProfileHTTP{Svc: d.Profile}
	catalogH := &CatalogHTTP{Svc: d.Catalog}
	cartH := &CartHTTP{Svc: d.Cart}
	orderH := &OrderHTTP{Svc: d.Order}

	routes := []route{
		{http.MethodGet, "/health/live", authz.Public, live},
		{http.MethodGet, "/health/ready", authz.Public, ready(d.Ready)},

		{http.MethodPost, "/api/auth/register", authz.Public, authH.Register},
		{http.MethodPost, "/api/auth/login", authz.Public, authH.Login},
		{http.MethodPost, "/api/auth/admin-login", authz.Public, authH.AdminLogin},

		{http.MethodGet, "/api/inventory", authz.Public, catalogH.List},
		{http.MethodGet, "/api/inventory/low-stock", authz.Public, catalogH.LowStock},
		{http.MethodGet, "/api/inventory/recent-activities", authz.Public, catalogH.RecentActivities},
		{http.MethodGet, "/api/inventory/search", authz.Public, catalogH.Search},
		{http.MethodPost, "/api/inventory/add", authz.AdminOnly, catalogH.Add},
		{http.MethodPut, "/api/inventory/update/:id", authz.AdminOnly, catalogH.Update},
		{http.MethodDelete, "/api/inventory/delete/:id", authz.AdminOnly, catalogH.Delete},

		// admins pass the guard so the cart service can refuse them with its own message
		{http.MethodGet, "/api/cart", authz.Authenticated, cartH.Get},
		{http.MethodPost, "/api/cart", authz.Authenticated, cartH.Add},
		{http.MethodPost, "/api/cart/add", authz.Authenticated, cartH.Add},
		{http.MethodDelete, "/api/cart/remove/:productId", authz.Authenticated, cartH.Remove},

		{http.MethodPost, "/api/orders", authz.UserOnly, orderH.Place},
		{http.MethodGet, "/api/orders/history", authz.UserOnly, orderH.History},
		{http.MethodGet, "/api/orders/:id", authz.UserOnly, orderH.Get},

		{http.MethodGet, "/api/profile", authz.UserOnly, profileH.Get},
		{http.MethodPut, "/api/profile", authz.UserOnly, profileH.Update},
		{http.MethodPut, "/api/profile/update", authz.UserOnly, profileH.Update},
		{http.MethodPut, "/api/profile/change-password", authz.UserOnly, profileH.ChangePassword},
	}

	policy := authz.NewPolicy()
	for _, r := range routes {
		policy.Set(r.method, r.path, r.req)
		e.Add(r.method, r.path, r.handler)
	}

	e.Use(authmw.NewGuard(d.Tokens, policy).Middleware)
	return policy
}

func live(c echo.Context) error { return c.NoContent(http.StatusOK) }

func ready(check func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "not ready"})
		}
		return c.NoContent(http.StatusOK)
	}
}

// New builds an echo instance with the common middleware chain and the API mounted.
func New(base *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(base)

	e.Pre(ecM.RemoveTrailingSlash())
	e.Use(ecM.Recover())
	e.Use(ecM.RequestID())
	e.Use(loggingmw.RequestLogger(base))
	e.Use(ecM.CORSWithConfig(ecM.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, authmw.TokenHeader},
	}))
	e.Use(ecM.Secure())

	Register(e, d)
	return e
}
