package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"promptdir/internal/db"
	"promptdir/internal/events"
	"promptdir/internal/identity"
	"promptdir/internal/observability"
	"promptdir/internal/router"
	"promptdir/internal/services"
	"promptdir/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the promptdir HTTP API.

The schema is migrated on start. With redis.addr set, change events are shared
with other instances over redis pub/sub; otherwise they stay in process.

Examples:
  promptdir serve
  PROMPTDIR_DATABASE_DRIVER=sqlite PROMPTDIR_DATABASE_URL=promptdir.db promptdir serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, conn, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer closeDB(conn, log)

		if err := db.Migrate(conn); err != nil {
			return err
		}

		shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, version, log)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = shutdownTracing(sctx)
		}()

		var bus events.Bus
		if cfg.Redis.Addr != "" {
			bus, err = events.NewRedisBus(ctx, cfg.Redis.Addr, cfg.Redis.Channel, log)
			if err != nil {
				return err
			}
		} else {
			bus = events.NewMemoryBus()
		}
		defer bus.Close()

		verifier, err := identity.NewVerifier(cfg.Auth)
		if errors.Is(err, identity.ErrNoKey) {
			log.Warn("No JWT key configured; every request is anonymous")
			verifier = nil
		} else if err != nil {
			return err
		}

		cache, err := utils.NewCache(cfg.Cache.Size, cfg.Cache.TTL)
		if err != nil {
			return err
		}

		prompts := services.NewPromptService(conn, log, cache, bus)
		comments := services.NewCommentService(conn, log, bus)
		reconciler := services.NewReconciler(conn, log, cache)

		if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		g, gctx := errgroup.WithContext(ctx)
		engine := router.NewEngine(cfg, router.Deps{
			Log:      log,
			Verifier: verifier,
			Prompts:  prompts,
			Comments: comments,
			Bus:      bus,
			Stopping: gctx.Done(),
		})
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info("promptdir server starting", "addr", srv.Addr, "version", version)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			return reconciler.Run(gctx, cfg.Reconcile.Interval)
		})
		g.Go(func() error {
			return reconciler.Watch(gctx, bus)
		})
		g.Go(func() error {
			// Other instances' writes reach this instance's slug cache through the bus.
			return prompts.Watch(gctx, bus)
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("Shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		return g.Wait()
	},
}
