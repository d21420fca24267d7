package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	ctx := context.Background()

	u := env.register(t, "alice", "a@x.com", "pw123")
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "pw123", u.PasswordHash)
	assert.Equal(t, []string{events.UserRegistered}, env.Events.Types(events.TopicUsers))

	tests := []struct {
		name       string
		req        transport.RegisterRequest
		wantStatus int
		wantMsg    string
	}{
		{"duplicate email", transport.RegisterRequest{Username: "alice2", Email: "a@x.com", Password: "pw"}, 400, "Email or username already exists"},
		{"duplicate username", transport.RegisterRequest{Username: "alice", Email: "other@x.com", Password: "pw"}, 400, "Email or username already exists"},
		{"missing password", transport.RegisterRequest{Username: "bob", Email: "b@x.com"}, 400, "password is required"},
		{"bad email", transport.RegisterRequest{Username: "bob", Email: "bob", Password: "pw"}, 400, "email must be a valid email"},
	}
	for _, tt := range tests {
		_, err := env.Auth.Register(ctx, tt.req)
		require.Error(t, err, tt.name)
		status, msg := apperr.Status(err)
		assert.Equal(t, tt.wantStatus, status, tt.name)
		assert.Equal(t, tt.wantMsg, msg, tt.name)
	}

	_, err := env.Auth.Register(ctx, transport.RegisterRequest{Username: "bob", Email: "b@x.com", Password: "pw"})
	assert.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	ctx := context.Background()
	u := env.register(t, "alice", "a@x.com", "pw123")

	resp, err := env.Auth.Login(ctx, transport.LoginRequest{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, models.RoleUser, resp.User.Role)

	id, err := env.Tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, models.RoleUser, id.Role)

	_, err = env.Auth.Login(ctx, transport.LoginRequest{Email: "a@x.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.Auth.Login(ctx, transport.LoginRequest{Email: "ghost@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.Auth.Login(ctx, transport.LoginRequest{Email: "a@x.com"})
	_, msg := apperr.Status(err)
	assert.Equal(t, "Email and password are required", msg)
}

func TestAuthService_AdminLogin_PoolsAreDisjoint(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "a@x.com", "pw123")
	created, err := env.Auth.SeedAdmin(ctx, "admin2", "admin@gmail.com", "mithun")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.Auth.SeedAdmin(ctx, "admin2", "admin@gmail.com", "changed")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = env.Auth.AdminLogin(ctx, transport.LoginRequest{Email: "a@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, ErrInvalidAdminCredentials)

	_, err = env.Auth.Login(ctx, transport.LoginRequest{Email: "admin@gmail.com", Password: "mithun"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.Auth.AdminLogin(ctx, transport.LoginRequest{Email: "admin@gmail.com", Password: "changed"})
	assert.ErrorIs(t, err, ErrInvalidAdminCredentials)

	resp, err := env.Auth.AdminLogin(ctx, transport.LoginRequest{Email: "admin@gmail.com", Password: "mithun"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, "admin2", resp.User.Username)

	id, err := env.Tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)
}
