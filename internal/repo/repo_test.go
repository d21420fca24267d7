package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/electro_shop/internal/dbtest"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(dbtest.InitTestDB(t))
}

func TestCreateUser_Conflict(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, &models.User{Username: "alice", Email: "a@x.io", PasswordHash: "h"}))

	tests := []struct {
		name string
		user models.User
	}{
		{"same email", models.User{Username: "alice2", Email: "a@x.io", PasswordHash: "h"}},
		{"same username", models.User{Username: "alice", Email: "b@x.io", PasswordHash: "h"}},
	}
	for _, tt := range tests {
		err := r.CreateUser(ctx, &tt.user)
		assert.True(t, apperr.IsDomainKind(err, apperr.Conflict), tt.name)
	}

	u, err := r.FindUserByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestUpdateUserProfile(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "a@x.io", PasswordHash: "h"}
	bob := &models.User{Username: "bob", Email: "b@x.io", PasswordHash: "h"}
	require.NoError(t, r.CreateUser(ctx, alice))
	require.NoError(t, r.CreateUser(ctx, bob))

	_, err := r.UpdateUserProfile(ctx, alice.ID, "bob", "a@x.io")
	assert.True(t, apperr.IsDomainKind(err, apperr.Conflict))

	u, err := r.UpdateUserProfile(ctx, alice.ID, "alice", "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", u.Email)

	_, err = r.UpdateUserProfile(ctx, uuid.New(), "carol", "c@x.io")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateAdminIfNotExists(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	created, err := r.CreateAdminIfNotExists(ctx, &models.Admin{Username: "admin2", Email: "admin@gmail.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.True(t, created)

	again := &models.Admin{Username: "admin2", Email: "admin@gmail.com", PasswordHash: "other"}
	created, err = r.CreateAdminIfNotExists(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "h", again.PasswordHash)

	a, err := r.FindAdminByEmail(ctx, "admin@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, a.Role)

	_, err = r.FindUserByEmail(ctx, "admin@gmail.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProducts_Projections(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, q := range []int{0, 10, 11, 50} {
		require.NoError(t, r.CreateProduct(ctx, &models.Product{
			Name:         fmt.Sprintf("p%d", i),
			Quantity:     q,
			Price:        1,
			LastModified: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	low, err := r.LowStockProducts(ctx, models.LowStockThreshold)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "p0", low[0].Name)
	assert.Equal(t, "p1", low[1].Name)

	recent, err := r.RecentProducts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"p3", "p2", "p1"}, []string{recent[0].Name, recent[1].Name, recent[2].Name})

	all, err := r.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPatchProduct(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	p := &models.Product{Name: "Kettle", Quantity: 5, Price: 20, Supplier: "Acme", LastModified: time.Unix(100, 0).UTC()}
	require.NoError(t, r.CreateProduct(ctx, p))

	qty := 7
	now := time.Unix(200, 0).UTC()
	got, err := r.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Quantity: &qty}, now)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, "Kettle", got.Name)
	assert.Equal(t, "Acme", got.Supplier)
	assert.True(t, got.LastModified.Equal(now))

	_, err = r.PatchProduct(ctx, uuid.New(), transport.PatchProductRequest{Quantity: &qty}, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	p := &models.Product{Name: "Kettle", Quantity: 5, Price: 20}
	require.NoError(t, r.CreateProduct(ctx, p))
	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	for _, p := range []models.Product{
		{Name: "Electric Kettle", Description: "1.5L", Quantity: 1, Price: 1},
		{Name: "Toaster", Description: "two slice, fits a kettle shelf", Quantity: 1, Price: 1},
		{Name: "Mixer", Supplier: "Kettlecorp", Quantity: 1, Price: 1},
		{Name: "Lamp", Quantity: 1, Price: 1},
	} {
		p := p
		require.NoError(t, r.CreateProduct(ctx, &p))
	}

	total, items, err := r.SearchProducts(ctx, "KETTLE", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)
}

func TestUpdateCart(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	_, err := r.UpdateCart(ctx, userID, false, func(c *models.Cart) error { return nil })
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cart, err := r.UpdateCart(ctx, userID, true, func(c *models.Cart) error {
		c.Items = append(c.Items, models.CartItem{ProductID: productID, Quantity: 2})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())

	stop := errors.New("stop")
	_, err = r.UpdateCart(ctx, userID, false, func(c *models.Cart) error {
		c.Items = nil
		return stop
	})
	assert.ErrorIs(t, err, stop)

	stored, err := r.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, productID, stored.Items[0].ProductID)

	cleared, err := r.UpdateCart(ctx, userID, false, func(c *models.Cart) error {
		c.Items = nil
		return nil
	})
	require.NoError(t, err)
	assert.NotNil(t, cleared.Items)
	assert.Empty(t, cleared.Items)
}

func TestOrders_Ownership(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &models.Order{UserID: alice, PaymentMethod: models.PaymentCOD, TotalAmount: 10, Status: models.OrderStatusPending, CreatedAt: base}
	second := &models.Order{UserID: alice, PaymentMethod: models.PaymentCOD, TotalAmount: 20, Status: models.OrderStatusPending, CreatedAt: base.Add(time.Hour)}
	require.NoError(t, r.CreateOrder(ctx, first))
	require.NoError(t, r.CreateOrder(ctx, second))

	list, err := r.ListOrders(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	none, err := r.ListOrders(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = r.GetOrder(ctx, bob, first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := r.GetOrder(ctx, alice, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.TotalAmount)
}
