package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/electro_shop/pkg/apperr"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

func TestProfileService(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	ctx := context.Background()

	alice := env.register(t, "alice", "a@x.com", "pw123")
	env.register(t, "bob", "b@x.com", "pw123")

	got, err := env.Profile.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = env.Profile.Get(ctx, uuid.New())
	status, msg := apperr.Status(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", msg)

	_, err = env.Profile.Update(ctx, alice.ID, transport.UpdateProfileRequest{Username: "bob", Email: "a@x.com"})
	assert.True(t, apperr.IsDomainKind(err, apperr.Conflict))

	updated, err := env.Profile.Update(ctx, alice.ID, transport.UpdateProfileRequest{Username: "alice_w", Email: "alice@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice_w", updated.Username)
	assert.Equal(t, "alice@x.com", updated.Email)
}

func TestProfileService_ChangePassword(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice", "a@x.com", "pw123")

	err := env.Profile.ChangePassword(ctx, alice.ID, transport.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpass"})
	_, msg := apperr.Status(err)
	assert.Equal(t, "Current password is incorrect", msg)

	require.NoError(t, env.Profile.ChangePassword(ctx, alice.ID, transport.ChangePasswordRequest{CurrentPassword: "pw123", NewPassword: "newpass"}))

	_, err = env.Auth.Login(ctx, transport.LoginRequest{Email: "a@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.Auth.Login(ctx, transport.LoginRequest{Email: "a@x.com", Password: "newpass"})
	assert.NoError(t, err)
}
