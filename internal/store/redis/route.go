package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/portal/internal/domain"
)

// ErrRouteNotFound is returned by GetRoute for unknown ids.
var ErrRouteNotFound = errors.New("route not found")

// Store persists portal's route ledger in Redis.
// Records carry no TTL: a route lives until portal unregisters it.
type Store struct {
	client redis.UniversalClient
}

// NewStore creates a new Redis store
func NewStore(client redis.UniversalClient) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveRoute stores a route record and indexes its id
func (s *Store) SaveRoute(ctx context.Context, route *domain.Route) error {
	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("failed to marshal route: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, RouteKey(route.ID), data, 0)
		pipe.SAdd(ctx, AllRoutesKey(), route.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save route %s: %w", route.ID, err)
	}

	return nil
}

// GetRoute retrieves a route record by id
func (s *Store) GetRoute(ctx context.Context, id string) (*domain.Route, error) {
	data, err := s.client.Get(ctx, RouteKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route %s: %w", id, err)
	}

	return &route, nil
}

// ListRoutes returns every recorded route. Ids whose record vanished are
// dropped from the set on the way.
func (s *Store) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	ids, err := s.client.SMembers(ctx, AllRoutesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get route ids: %w", err)
	}

	routes := make([]*domain.Route, 0, len(ids))
	for _, id := range ids {
		route, err := s.GetRoute(ctx, id)
		if errors.Is(err, ErrRouteNotFound) {
			_ = s.client.SRem(ctx, AllRoutesKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, nil
}

// DeleteRoute removes a route record
func (s *Store) DeleteRoute(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, RouteKey(id))
		pipe.SRem(ctx, AllRoutesKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete route %s: %w", id, err)
	}

	return nil
}
