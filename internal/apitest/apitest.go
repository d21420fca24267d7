// Package apitest runs the real router over an in-memory database for HTTP and client tests.
package apitest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/electro_shop/internal/dbtest"
	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/httpserver"
	"github.com/Skotchmaster/electro_shop/internal/lock"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/internal/service"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

const (
	AdminEmail    = "admin@shop.test"
	AdminPassword = "admin-pw"
)

type Env struct {
	Server *httptest.Server
	Echo   *echo.Echo
	Repo   *repo.GormRepo
	Events *events.Memory
	Tokens *tokens.Service
	Deps   *httpserver.Deps
}

// Options tweak the services before the router is built.
type Options struct {
	Locker        lock.Locker
	PaymentSecret string
}

func New(t testing.TB) *Env {
	return NewWithOptions(t, Options{})
}

func NewWithOptions(t testing.TB, opt Options) *Env {
	t.Helper()

	db := dbtest.InitTestDB(t)
	r := repo.New(db)
	pub := &events.Memory{}
	tok := tokens.NewService([]byte("apitest-secret"), time.Hour)

	locker := opt.Locker
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	carts := &service.CartService{Repo: r, Locker: locker, Events: pub, Now: time.Now}

	deps := &httpserver.Deps{
		Auth:    &service.AuthService{Repo: r, Tokens: tok, Events: pub, HashCost: bcrypt.MinCost, Now: time.Now},
		Profile: &service.ProfileService{Repo: r, HashCost: bcrypt.MinCost},
		Catalog: &service.CatalogService{Repo: r, Events: pub, Now: time.Now},
		Cart:    carts,
		Order:   &service.OrderService{Repo: r, Carts: carts, Events: pub, Now: time.Now, PaymentSecret: opt.PaymentSecret},
		Tokens:  tok,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	_, err := deps.Auth.SeedAdmin(context.Background(), "root", AdminEmail, AdminPassword)
	require.NoError(t, err)

	e := httpserver.New(logging.Discard(), deps)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &Env{Server: srv, Echo: e, Repo: r, Events: pub, Tokens: tok, Deps: deps}
}

// Product inserts a catalog entry directly through the service layer.
func (env *Env) Product(t testing.TB, name string, qty int, price float64) *models.Product {
	t.Helper()
	p, err := env.Deps.Catalog.Create(context.Background(), transport.CreateProductRequest{
		Name: name, Quantity: &qty, Price: &price, Supplier: "Acme",
	})
	require.NoError(t, err)
	return p
}
