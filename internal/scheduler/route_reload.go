package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/index"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/sources/routesfile"
)

// ErrRoutesFile marks a reload that could not read or validate the file.
var ErrRoutesFile = errors.New("routes file unusable")

// RouteManager is what the reloader needs from routing.Manager
type RouteManager interface {
	Register(ctx context.Context, port uint32, source string) (*domain.Route, error)
	Reapply(ctx context.Context, port uint32, source string) (*domain.Route, error)
	Unregister(ctx context.Context, routeID string) error
}

// RouteReloader keeps the proxy in line with the declared routes file
type RouteReloader struct {
	loader        *routesfile.Loader
	manager       RouteManager
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewRouteReloader creates a new routes file reloader
func NewRouteReloader(
	routesFile string,
	manager RouteManager,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RouteReloader {
	return &RouteReloader{
		loader:        routesfile.NewLoader(routesFile),
		manager:       manager,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start applies the file once, then keeps re-applying it on a ticker or on
// manual trigger. The first pass re-posts every declared route since the
// proxy may have restarted with an empty config.
func (rr *RouteReloader) Start(ctx context.Context) error {
	if err := rr.reload(ctx, true); err != nil {
		// Per-route failures are retried on the next tick; a broken file is fatal.
		if errors.Is(err, ErrRoutesFile) {
			return fmt.Errorf("initial reload failed: %w", err)
		}
		rr.logger.Warn("initial reload incomplete", logger.Error(err))
	}

	ticker := time.NewTicker(rr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := rr.Reload(ctx); err != nil {
					rr.logger.Error("failed to reload routes", logger.Error(err))
				}
			case <-rr.manualTrigger:
				rr.logger.Info("manual reload triggered")
				if err := rr.Reload(ctx); err != nil {
					rr.logger.Error("failed to reload routes", logger.Error(err))
				}
			case <-rr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (rr *RouteReloader) Stop() {
	close(rr.stopCh)
}

// Reload registers declared ports that portal doesn't manage yet and
// unregisters file routes that disappeared from the file. Routes added
// through the API are never touched.
func (rr *RouteReloader) Reload(ctx context.Context) error {
	return rr.reload(ctx, false)
}

func (rr *RouteReloader) reload(ctx context.Context, force bool) error {
	rr.logger.Info("reloading routes file", logger.String("file", rr.loader.Path()))

	file, err := rr.loader.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRoutesFile, err)
	}
	ports, err := file.Ports()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRoutesFile, err)
	}

	declared := make(map[string]bool, len(ports))
	var errs error
	added, removed := 0, 0

	for _, port := range ports {
		id := domain.RouteID(port)
		declared[id] = true

		existing, ok := rr.index.Get(id)
		if ok && (existing.Source != domain.SourceFile || !force) {
			continue
		}

		apply := rr.manager.Register
		if ok {
			apply = rr.manager.Reapply
		}
		if _, err := apply(ctx, port, domain.SourceFile); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("register port %d: %w", port, err))
			continue
		}
		added++
	}

	for _, r := range rr.index.BySource(domain.SourceFile) {
		if declared[r.ID] {
			continue
		}
		if err := rr.manager.Unregister(ctx, r.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unregister %s: %w", r.ID, err))
			continue
		}
		removed++
	}

	rr.logger.Info("routes file applied",
		logger.Int("declared", len(ports)),
		logger.Int("registered", added),
		logger.Int("unregistered", removed),
		logger.Int("failures", len(multierr.Errors(errs))))

	return errs
}
