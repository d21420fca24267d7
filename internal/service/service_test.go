package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/electro_shop/internal/dbtest"
	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/lock"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

// tickingClock moves one second forward on every read.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	Repo    *repo.GormRepo
	Events  *events.Memory
	Tokens  *tokens.Service
	Auth    *AuthService
	Profile *ProfileService
	Catalog *CatalogService
	Cart    *CartService
	Order   *OrderService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(dbtest.InitTestDB(t))
	pub := &events.Memory{}
	clock := &tickingClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	tok := tokens.NewService([]byte("test-secret"), time.Hour)

	cart := &CartService{Repo: r, Locker: lock.NewKeyedMutex(), Events: pub, Now: clock.Now}
	return &testEnv{
		Repo:    r,
		Events:  pub,
		Tokens:  tok,
		Auth:    &AuthService{Repo: r, Tokens: tok, Events: pub, HashCost: bcrypt.MinCost, Now: clock.Now},
		Profile: &ProfileService{Repo: r, HashCost: bcrypt.MinCost},
		Catalog: &CatalogService{Repo: r, Events: pub, Now: clock.Now},
		Cart:    cart,
		Order:   &OrderService{Repo: r, Carts: cart, Events: pub, Now: clock.Now},
	}
}

func (env *testEnv) register(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	u, err := env.Auth.Register(context.Background(), transport.RegisterRequest{
		Username: username, Email: email, Password: password,
	})
	require.NoError(t, err)
	return u
}

func (env *testEnv) product(t *testing.T, name string, qty int, price float64) *models.Product {
	t.Helper()
	p, err := env.Catalog.Create(context.Background(), transport.CreateProductRequest{
		Name: name, Quantity: &qty, Price: &price, Supplier: "Acme",
	})
	require.NoError(t, err)
	return p
}

func userIdentity(id uuid.UUID) *tokens.Identity {
	return &tokens.Identity{UserID: id, Role: models.RoleUser}
}

func adminIdentity() *tokens.Identity {
	return &tokens.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
}
