package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecgard/tripboard/internal/board"
	"github.com/alecgard/tripboard/internal/config"
	"github.com/alecgard/tripboard/internal/crypto"
	"github.com/alecgard/tripboard/internal/directory"
	"github.com/alecgard/tripboard/internal/geo"
	"github.com/alecgard/tripboard/internal/notify"
	"github.com/alecgard/tripboard/internal/ratelimit"
	"github.com/alecgard/tripboard/internal/redisclient"
	"github.com/alecgard/tripboard/internal/remote"
	"github.com/alecgard/tripboard/internal/session"
	"github.com/alecgard/tripboard/internal/state"
)

const defaultConfigPath = "configs/tripboard.yaml"

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// setupLogger installs the default logger: JSON on stdout for the server,
// text on stderr for everything else.
func setupLogger(cfg *config.Config, asJSON bool) {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// app is the wired client shared by every command.
type app struct {
	cfg       *config.Config
	store     state.Store
	client    *remote.Client
	directory *directory.Directory
	sessions  *session.Manager
	geo       *geo.Loader
	board     *board.Board
	counter   *notify.Counter
	limiter   *ratelimit.Limiter

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, closeStore, err := state.Open(ctx, state.Options{
		Driver:      cfg.State.Driver,
		Path:        cfg.State.Path,
		DatabaseURL: cfg.State.DatabaseURL,
		RedisURL:    cfg.State.RedisURL,
		Namespace:   cfg.State.Namespace,
	})
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	cipher, err := crypto.NewCipher(cfg.State.EncryptionKey)
	if err != nil {
		a.close()
		return nil, err
	}

	a.client = remote.New(cfg.API.BaseURL, cfg.API.Timeout)
	a.client.SetUserAgent(cfg.API.UserAgent)

	a.directory = directory.New(a.client)
	if cfg.Directory.RedisURL != "" {
		rc, err := redisclient.New(ctx, cfg.Directory.RedisURL)
		if err != nil {
			slog.Warn("directory cache unavailable, using the API only", "error", err)
		} else {
			a.directory.SetCache(directory.NewRedisCache(rc, cfg.Directory.CacheTTL))
			a.closers = append(a.closers, func() { rc.Close() })
		}
	}

	a.sessions = session.NewManager(store, cipher, a.directory, session.StaticVerifier{DiscordID: cfg.Session.VerifyAs})
	a.geo = geo.NewLoader(a.client)
	a.limiter = ratelimit.New(cfg.Gesture.Rate, cfg.Gesture.Window)
	a.board = board.New(a.client, a.directory, a.sessions, a.geo)
	a.board.SetLimiter(a.limiter)
	a.counter = notify.NewCounter(store)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// loaded prepares the board for a read or gesture: the user directory is
// loaded best effort, then the trip list.
func (a *app) loaded(ctx context.Context) error {
	if err := a.directory.Ensure(ctx); err != nil {
		slog.Warn("user directory unavailable, showing stored names", "error", err)
	}
	return a.board.Refresh(ctx)
}

// withApp runs fn against a freshly wired client.
func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// dispatcher picks where reminders go.
func (a *app) dispatcher() notify.Dispatcher {
	if a.cfg.Notify.Dispatch {
		return notify.NewHTTPDispatcher(a.client)
	}
	return notify.LogDispatcher{}
}
