package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/portal/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestSaveAndGetRoute(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRoute(ctx, domain.NewRoute(9000, domain.SourceAPI, now)))

	got, err := store.GetRoute(ctx, "route-9000")
	require.NoError(t, err)
	assert.Equal(t, uint32(9000), got.Port)
	assert.Equal(t, ":9000", got.Dial)
	assert.Equal(t, "127.0.0.1:9000", got.Subject)
	assert.Equal(t, domain.SourceAPI, got.Source)
	assert.True(t, got.CreatedAt.Equal(now))

	members, err := mr.SMembers(KeyAllRoutes)
	require.NoError(t, err)
	assert.Equal(t, []string{"route-9000"}, members)
	assert.Zero(t, mr.TTL(RouteKey("route-9000")), "route records must not expire")
}

func TestGetRouteNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetRoute(context.Background(), "route-1")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestListRoutesSkipsDangling(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoute(ctx, domain.NewRoute(9000, domain.SourceAPI, time.Now())))
	require.NoError(t, store.SaveRoute(ctx, domain.NewRoute(9001, domain.SourceFile, time.Now())))
	mr.Del(RouteKey("route-9001"))

	routes, err := store.ListRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "route-9000", routes[0].ID)

	members, err := mr.SMembers(KeyAllRoutes)
	require.NoError(t, err)
	assert.Equal(t, []string{"route-9000"}, members)
}

func TestDeleteRoute(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoute(ctx, domain.NewRoute(9000, domain.SourceAPI, time.Now())))
	require.NoError(t, store.DeleteRoute(ctx, "route-9000"))
	require.NoError(t, store.DeleteRoute(ctx, "route-9000"), "deleting twice is fine")

	assert.False(t, mr.Exists(RouteKey("route-9000")))
	routes, err := store.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, store.Ping(ctx))
	assert.Error(t, store.SaveRoute(ctx, domain.NewRoute(9000, domain.SourceAPI, time.Now())))
	_, err := store.ListRoutes(ctx)
	assert.Error(t, err)
}
