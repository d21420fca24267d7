package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/authz"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
)

const (
	TokenHeader = "x-access-token"
	identityKey = "identity"
)

// Guard verifies the session token and asks the policy whether the caller may reach the route.
// It runs after routing, so c.Path() holds the route template.
type Guard struct {
	Tokens *tokens.Service
	Policy *authz.Policy
}

func NewGuard(t *tokens.Service, p *authz.Policy) *Guard {
	return &Guard{Tokens: t, Policy: p}
}

func (g *Guard) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		method, path := c.Request().Method, c.Path()
		req, ok := g.Policy.Requirement(method, path)
		if !ok {
			// not a declared route; let the router's 404/405 handler answer
			return next(c)
		}
		if req == authz.Public {
			return next(c)
		}

		l := logging.FromContext(c.Request().Context()).With("middleware", "auth")

		id, err := g.Tokens.Verify(tokenFrom(c))
		if err != nil {
			l.Warn("auth_rejected", "route", path, "error", err)
			return err
		}

		if !g.Policy.Allow(method, path, id.Role) {
			l.Warn("auth_forbidden", "route", path, "role", id.Role)
			return tokens.RequireRole(id, string(req))
		}

		c.Set(identityKey, id)
		return next(c)
	}
}

func tokenFrom(c echo.Context) string {
	if v := c.Request().Header.Get(TokenHeader); v != "" {
		return v
	}
	if v := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(v, "Bearer ") {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return ""
}

// IdentityFrom returns the identity the guard attached, or a missing-token error.
func IdentityFrom(c echo.Context) (*tokens.Identity, error) {
	id, ok := c.Get(identityKey).(*tokens.Identity)
	if !ok || id == nil {
		return nil, apperr.NewAuth(apperr.AuthMissing, "no token provided")
	}
	return id, nil
}
