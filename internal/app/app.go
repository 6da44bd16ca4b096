package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/portal/internal/caddy"
	"github.com/MrSnakeDoc/portal/internal/config"
	"github.com/MrSnakeDoc/portal/internal/httpserver"
	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/index"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/redis"
	"github.com/MrSnakeDoc/portal/internal/routing"
	"github.com/MrSnakeDoc/portal/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/portal/internal/store/redis"
	"github.com/MrSnakeDoc/portal/internal/utils"
	"github.com/MrSnakeDoc/portal/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.RouteReloader // nil without a routes file
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	registrar := caddy.New(caddy.Options{
		Endpoint:  cfg.CaddyAdminURL,
		Server:    cfg.CaddyServer,
		TLSPolicy: cfg.CaddyTLSPolicy,
		Timeout:   cfg.CaddyTimeout,
	}, loggerClient)
	loggerClient.Info("caddy admin api configured",
		logger.String("endpoint", registrar.Endpoint()),
		logger.String("server", cfg.CaddyServer),
		logger.Int("tls_policy", cfg.CaddyTLSPolicy))

	memIndex := index.NewMemoryIndex()

	// The ledger is optional; when configured it must be reachable at startup.
	var (
		redisClient *goredis.Client
		ledger      routing.Ledger
		ledgerPing  deps.Pinger
	)
	if cfg.LedgerEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		loggerClient.Info("Redis initialized successfully")

		store := redisstore.NewStore(redisClient)
		ledger, ledgerPing = store, store

		if err := scheduler.NewRedisSyncer(store, memIndex, loggerClient).Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to sync routes from redis on startup",
				logger.Error(err))
		}
	} else {
		loggerClient.Info("redis not configured, routes are kept in memory only")
	}

	manager := routing.NewManager(registrar, memIndex, ledger, loggerClient)

	var (
		reloader      *scheduler.RouteReloader
		reloadTrigger chan struct{}
	)
	if cfg.RoutesFile != "" {
		loggerClient.Info("routes file configured, initializing routes reloader",
			logger.String("file", cfg.RoutesFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewRouteReloader(
			cfg.RoutesFile,
			manager,
			memIndex,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("routes file not configured, routes are managed through the API only")
	}

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Routes:        manager,
		Caddy:         registrar,
		CaddyEndpoint: registrar.Endpoint(),
		Ledger:        ledgerPing,
		LastSync:      memIndex.LastSync,
		RoutesFile:    cfg.RoutesFile,
		ReloadTrigger: reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		reloader:    reloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Portal %s (commit=%s, built=%s, go=%s) on %s",
		version.Version, version.Commit, version.BuildDate, version.GoVersion, a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start routes reloader: %w", err)
		}
		a.logger.Info("routes reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	_ = a.logger.Sync()
	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Portal stopped cleanly")
	return nil
}
