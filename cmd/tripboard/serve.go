package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/tripboard/internal/api"
	"github.com/alecgard/tripboard/internal/auth"
	"github.com/alecgard/tripboard/internal/metrics"
	"github.com/alecgard/tripboard/internal/notify"
	"github.com/alecgard/tripboard/internal/ratelimit"
	"github.com/alecgard/tripboard/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the companion server: the board over HTTP plus background reminders",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	m := metrics.New()
	a.client.SetMetrics(m)
	a.board.SetMetrics(m)
	a.counter.SetMetrics(m)
	if ps, ok := a.store.(*state.PostgresStore); ok {
		m.RegisterDBPoolCollector(ps.PoolStats)
	}

	if err := a.directory.Ensure(ctx); err != nil {
		slog.Warn("user directory unavailable at startup", "error", err)
	}

	reminders := notify.NewReminders(a.store, a.counter, a.dispatcher(), cfg.Location())
	reminders.SetMetrics(m)
	observer := notify.NewObserver(a.counter)

	viewer := func(ctx context.Context) string {
		u, err := a.sessions.Current(ctx)
		if err != nil {
			slog.Warn("reading session", "error", err)
		}
		return u.Identity()
	}

	poll := notify.NewSweeper("poll", cfg.Notify.UnreadPollInterval, func(ctx context.Context) error {
		if err := a.board.Refresh(ctx); err != nil {
			return err
		}
		notices, err := observer.Observe(ctx, a.board.All(ctx), viewer(ctx))
		for _, n := range notices {
			slog.Info("trip activity", "kind", n.Kind, "trip_id", n.Trip.ID)
		}
		return err
	})
	remind := notify.NewSweeper("reminders", cfg.Notify.SweepInterval, func(ctx context.Context) error {
		id := viewer(ctx)
		if id == "" {
			return nil
		}
		fired, err := reminders.Check(ctx, a.board.All(ctx), id, time.Now())
		if len(fired) > 0 {
			slog.Info("reminders sent", "count", len(fired))
		}
		return err
	})

	keys, err := auth.NewKeys(cfg.Server.AccessKeyHashes)
	if err != nil {
		return err
	}
	if keys.Empty() && cfg.Server.Host != "127.0.0.1" && cfg.Server.Host != "localhost" {
		slog.Warn("serving without access keys on a non-loopback address", "host", cfg.Server.Host)
	}

	httpLimiter := ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)
	prune := notify.NewSweeper("ratelimit-prune", cfg.RateLimit.Window, func(context.Context) error {
		if n := httpLimiter.Prune() + a.limiter.Prune(); n > 0 {
			slog.Debug("pruned rate limit buckets", "count", n)
		}
		return nil
	})

	go poll.Start(ctx)
	go remind.Start(ctx)
	go prune.Start(ctx)

	router := api.NewRouter(api.RouterDeps{
		Board:          a.board,
		Sessions:       a.sessions,
		Users:          a.directory,
		Geo:            a.geo,
		Unread:         a.counter,
		Metrics:        m,
		Limiter:        httpLimiter,
		AccessKeys:     keys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "api", cfg.API.BaseURL, "state", cfg.State.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	poll.Stop()
	remind.Stop()
	prune.Stop()

	return srv.Shutdown(shutdownCtx)
}
