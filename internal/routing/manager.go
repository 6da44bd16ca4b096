package routing

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/portal/internal/caddy"
	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/index"
	"github.com/MrSnakeDoc/portal/internal/logger"
)

// Registrar is the proxy side of route management (see caddy.Registrar).
type Registrar interface {
	AddRoute(ctx context.Context, port uint32) error
	DeleteRoute(ctx context.Context, routeID string) error
	RemoveTLSSubject(ctx context.Context, port uint32) error
}

// Ledger persists route records across restarts (see store/redis.Store).
type Ledger interface {
	SaveRoute(ctx context.Context, route *domain.Route) error
	DeleteRoute(ctx context.Context, id string) error
}

// Manager decides what portal does around a registrar call: compensation
// on half-registered routes, TLS subject cleanup, and bookkeeping.
type Manager struct {
	registrar Registrar
	index     *index.MemoryIndex
	ledger    Ledger // nil when redis is disabled
	logger    logger.Logger
	now       func() time.Time
}

// NewManager wires a Manager. ledger may be nil.
func NewManager(reg Registrar, idx *index.MemoryIndex, ledger Ledger, log logger.Logger) *Manager {
	return &Manager{
		registrar: reg,
		index:     idx,
		ledger:    ledger,
		logger:    log,
		now:       time.Now,
	}
}

// Register asks the proxy to route 127.0.0.1 to port and records the result.
// A port already in the index is returned as is, without calling the proxy:
// posting it again would duplicate its TLS subject.
//
// If the route was created but its TLS subject could not be, the route is
// deleted again (best effort) and the registrar error is returned.
func (m *Manager) Register(ctx context.Context, port uint32, source string) (*domain.Route, error) {
	if existing, ok := m.index.Get(domain.RouteID(port)); ok {
		m.logger.Debug("route already registered",
			logger.String("route_id", existing.ID),
			logger.String("source", existing.Source))
		return existing, nil
	}
	return m.add(ctx, domain.NewRoute(port, source, m.now()))
}

// Reapply posts an indexed route to the proxy again, for when the proxy may
// have lost its config. The route and its subjects are removed first so the
// proxy ends up with exactly one of each. A route that can't be re-added is
// dropped from the index and ledger, Register can then try it afresh.
func (m *Manager) Reapply(ctx context.Context, port uint32, source string) (*domain.Route, error) {
	route := domain.NewRoute(port, source, m.now())
	existing, ok := m.index.Get(route.ID)
	if !ok {
		return m.add(ctx, route)
	}
	route.CreatedAt = existing.CreatedAt

	if err := m.registrar.DeleteRoute(ctx, route.ID); err != nil {
		return nil, err
	}
	m.removeSubject(ctx, route.ID, port)

	added, err := m.add(ctx, route)
	if err != nil {
		m.forget(ctx, route.ID)
		return nil, err
	}
	return added, nil
}

func (m *Manager) add(ctx context.Context, route *domain.Route) (*domain.Route, error) {
	if err := m.registrar.AddRoute(ctx, route.Port); err != nil {
		if errors.Is(err, caddy.ErrTLSSubjectRegistrationFailed) {
			m.rollback(ctx, route.ID)
		}
		return nil, err
	}

	m.index.Put(route)
	m.persist(ctx, route)

	m.logger.Info("route registered",
		logger.String("route_id", route.ID),
		logger.Uint32("port", route.Port),
		logger.String("source", route.Source))

	return route, nil
}

// rollback runs even when the caller gave up on ctx: the proxy must not keep
// a route without its subject.
func (m *Manager) rollback(ctx context.Context, routeID string) {
	m.logger.Warn("tls subject registration failed, removing half-registered route",
		logger.String("route_id", routeID))
	if err := m.registrar.DeleteRoute(context.WithoutCancel(ctx), routeID); err != nil {
		m.logger.Error("failed to remove half-registered route",
			logger.String("route_id", routeID),
			logger.Error(err))
	}
}

// Unregister deletes the route from the proxy, then its TLS subject.
//
// Subject removal needs the port: it comes from the index, or from the id
// itself when it follows the route-<port> scheme. Failing to remove the
// subject is logged, not returned.
func (m *Manager) Unregister(ctx context.Context, routeID string) error {
	if err := m.registrar.DeleteRoute(ctx, routeID); err != nil {
		return err
	}

	if port, ok := m.portOf(routeID); ok {
		m.removeSubject(ctx, routeID, port)
	} else {
		m.logger.Debug("unknown port for route, tls subject left in place",
			logger.String("route_id", routeID))
	}

	m.forget(ctx, routeID)

	m.logger.Info("route unregistered", logger.String("route_id", routeID))
	return nil
}

func (m *Manager) removeSubject(ctx context.Context, routeID string, port uint32) {
	if err := m.registrar.RemoveTLSSubject(ctx, port); err != nil {
		m.logger.Warn("route deleted but tls subject removal failed",
			logger.String("route_id", routeID),
			logger.Error(err))
	}
}

// forget drops the route from the index and the ledger.
func (m *Manager) forget(ctx context.Context, routeID string) {
	m.index.Delete(routeID)
	if m.ledger == nil {
		return
	}
	if err := m.ledger.DeleteRoute(ctx, routeID); err != nil {
		m.logger.Warn("failed to delete route from ledger",
			logger.String("route_id", routeID),
			logger.Error(err))
	}
}

func (m *Manager) portOf(routeID string) (uint32, bool) {
	if r, ok := m.index.Get(routeID); ok {
		return r.Port, true
	}
	port, err := domain.ParseRouteID(routeID)
	if err != nil {
		return 0, false
	}
	return port, true
}

func (m *Manager) persist(ctx context.Context, route *domain.Route) {
	if m.ledger == nil {
		return
	}
	if err := m.ledger.SaveRoute(ctx, route); err != nil {
		// The proxy already has the route; losing the record only matters on restart.
		m.logger.Warn("failed to save route to ledger",
			logger.String("route_id", route.ID),
			logger.Error(err))
	}
}

// Routes returns the managed routes ordered by port.
func (m *Manager) Routes() []*domain.Route {
	return m.index.All()
}

// Get returns a managed route by id.
func (m *Manager) Get(id string) (*domain.Route, bool) {
	return m.index.Get(id)
}
