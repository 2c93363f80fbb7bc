package session

import (
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	"GymFinance/pkg/log"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_PassesThroughExistingPrincipal(t *testing.T) {
	g := New(log.NewDiscardLogger(), "")

	user := entity.UserLoginData{ID: "u1", Email: "coach@gym.test", Username: "coach"}
	ctx, err := g.Ensure(contextPkg.WithPrincipal(context.Background(), user))

	require.NoError(t, err)
	got, ok := contextPkg.GetPrincipal(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestGuard_EstablishesServiceSession(t *testing.T) {
	g := New(log.NewDiscardLogger(), "test-secret")

	ctx, err := g.Ensure(context.Background())

	require.NoError(t, err)
	got, ok := contextPkg.GetPrincipal(ctx)
	require.True(t, ok)
	assert.Equal(t, "finance-service", got.ID)
}

func TestGuard_FailsWithoutSecret(t *testing.T) {
	g := New(log.NewDiscardLogger(), "")

	_, err := g.Ensure(context.Background())

	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestGuard_RenewsExpiredSession(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	g := New(log.NewDiscardLogger(), "test-secret", WithTTL(time.Minute), WithClock(clock)).(*guard)

	_, err := g.Ensure(context.Background())
	require.NoError(t, err)
	first := g.expiresAt

	_, err = g.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, g.expiresAt, "session reused while valid")

	now = now.Add(2 * time.Minute)
	_, err = g.Ensure(context.Background())
	require.NoError(t, err)
	assert.True(t, g.expiresAt.After(first), "session renewed after expiry")
}
