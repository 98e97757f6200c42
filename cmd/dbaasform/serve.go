package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/dbaas/databaseinfra/pkg/cache"
	"github.com/dbaas/databaseinfra/pkg/physical"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine, plan and environment catalogue",
		Long: `serve answers the queries of the database creation form:

  GET /engine/                 engines offered by the form
  GET /plan/?engine_id={id}    plans compatible with an engine
  GET /plan/{id}/              a plan and its environments

The catalogue is loaded from --seed at startup and reloaded on SIGHUP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.runServe(cmd.Context())
			return nil
		},
	}

	cacheDefaults := cache.CacheConfigFromEnv()
	f := cmd.Flags()
	f.String("listen", ":8080", "Address to listen on")
	f.String("db-type", "sqlite", "Database type (sqlite, postgres or mysql)")
	f.String("db-dsn", "dbaas.db", "Database connection string")
	f.String("seed", "", "Catalogue seed file, loaded at startup and on SIGHUP")
	f.Bool("cache-enabled", cacheDefaults.Enabled, "Cache catalogue responses")
	return cmd
}

// catalogueServer is the state of a running serve command.
type catalogueServer struct {
	store    *physical.Store
	lock     physical.Locker
	cache    *cache.CacheManager
	seedPath string
	handler  http.Handler
	logger   *slog.Logger
}

// newCatalogueServer opens and migrates the database, loads the seed and
// builds the router.
func (c *cli) newCatalogueServer(ctx context.Context, logger *slog.Logger) (*catalogueServer, error) {
	db, err := physical.OpenDatabase(c.settings.GetString("db-type"), c.settings.GetString("db-dsn"))
	if err != nil {
		return nil, err
	}
	lock, err := physical.NewLocker(db, physical.LockConfigFromEnv())
	if err != nil {
		return nil, err
	}
	store := physical.NewStore(db)
	err = lock.WithLock(ctx, store.AutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	cacheCfg := cache.CacheConfigFromEnv()
	cacheCfg.Enabled = c.settings.GetBool("cache-enabled")
	cm := cache.NewCacheManager(cacheCfg)

	s := &catalogueServer{
		store:    store,
		lock:     lock,
		cache:    cm,
		seedPath: c.settings.GetString("seed"),
		handler:  physical.Router(store, cm, logger),
		logger:   logger,
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// reload loads the seed file, if any, and drops every cached response.
func (s *catalogueServer) reload(ctx context.Context) error {
	if s.seedPath == "" {
		return nil
	}
	seed, err := physical.LoadSeedFile(s.seedPath)
	if err != nil {
		return err
	}
	err = s.lock.WithLock(ctx, func() error { return s.store.LoadSeed(seed) })
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}
	s.cache.InvalidateAll()
	s.logger.Info("loaded catalogue",
		"seed", s.seedPath,
		"engines", len(seed.Engines),
		"plans", len(seed.Plans),
		"environments", len(seed.Environments),
	)
	return nil
}

func (c *cli) runServe(ctx context.Context) {
	_ = flag.Set("logtostderr", "true")

	logger := c.logger
	slog.SetDefault(logger)

	listenAddr := c.settings.GetString("listen")
	logger.Info("starting catalogue server",
		"listen", listenAddr,
		"dbType", c.settings.GetString("db-type"),
	)

	srv, err := c.newCatalogueServer(ctx, logger)
	if err != nil {
		glog.Fatalf("Failed to start catalogue server: %v", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := srv.reload(ctx); err != nil {
					logger.Error("catalogue reload failed", "error", err)
				}
			}
		}
	}()

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("catalogue server ready", "listen", listenAddr)
	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	logger.Info("catalogue server stopped")
}
