package shopclient

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/tokens"
)

func TestSessionValidUsesServerExpiryRule(t *testing.T) {
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := tokens.NewService([]byte("k"), time.Hour)
	svc.Now = func() time.Time { return issued }

	raw, exp, err := svc.Issue(uuid.New(), models.RoleUser)
	require.NoError(t, err)

	s := NewSession(nil)
	require.NoError(t, s.Save(SessionData{Token: raw}))

	assert.True(t, s.Valid(issued))
	assert.True(t, s.Valid(exp.Add(-time.Second)))
	assert.False(t, s.Valid(exp))
	assert.False(t, s.Valid(exp.Add(time.Minute)))
}

func TestSessionGarbageToken(t *testing.T) {
	s := NewSession(nil)
	assert.False(t, s.Valid(time.Now()))

	require.NoError(t, s.Save(SessionData{Token: "garbage"}))
	assert.False(t, s.Valid(time.Now()))
	assert.False(t, s.IsAdmin(time.Now()))
}

func TestMemoryStoreLifecycle(t *testing.T) {
	m := &MemoryStore{}
	_, err := m.Load()
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, m.Save(&SessionData{Token: "t"}))
	d, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "t", d.Token)

	require.NoError(t, m.Clear())
	_, err = m.Load()
	require.ErrorIs(t, err, ErrNoSession)
}
