package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/logger"
)

// RouteService is the route management surface used by handlers (routing.Manager).
type RouteService interface {
	Register(ctx context.Context, port uint32, source string) (*domain.Route, error)
	Unregister(ctx context.Context, routeID string) error
	Routes() []*domain.Route
	Get(id string) (*domain.Route, bool)
}

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	AllowedCIDRS  []string         // IPs/CIDRs allowed to reach the control endpoints
	TrustProxy    bool             // true if running behind a trusted reverse proxy
	Routes        RouteService     // route manager
	Caddy         Pinger           // Caddy admin API
	CaddyEndpoint string           // admin API base URL, reported by /infra
	Ledger        Pinger           // Redis ledger, nil when disabled
	LastSync      func() time.Time // last restore from the ledger, optional
	RoutesFile    string           // declared routes file, empty when disabled
	ReloadTrigger chan struct{}    // manual routes file reload (nil if no routes file)
}
