package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elum-utils/moderator"
	"github.com/elum-utils/moderator/adapters/logging"
	"github.com/elum-utils/moderator/adapters/metrics"
	"github.com/elum-utils/moderator/adapters/storage"
	"github.com/elum-utils/moderator/adapters/telegram"
	"github.com/elum-utils/moderator/ledger"
	"github.com/elum-utils/moderator/models"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:    "moderator",
		Usage:   "group chat advertising moderator bot",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"MODERATOR_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "markers-db",
			Usage:   "path to SQLite database with extra advertising markers",
			EnvVars: []string{"MODERATOR_MARKERS_DB"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		markersCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "poll the chat platform and moderate messages",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "telegram-token",
			Usage:    "Telegram bot token",
			Required: true,
			EnvVars:  []string{"MODERATOR_TELEGRAM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "telegram-api",
			Usage:   "Telegram Bot API base URL",
			Value:   "https://api.telegram.org",
			EnvVars: []string{"MODERATOR_TELEGRAM_API"},
		},
		&cli.StringFlag{
			Name:    "telegram-username",
			Usage:   "bot username commands must address; fetched with getMe when empty",
			EnvVars: []string{"MODERATOR_TELEGRAM_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "warning-scope",
			Usage:   "warning counter scope: chat (per chat and user) or global (per user)",
			Value:   "chat",
			EnvVars: []string{"MODERATOR_WARNING_SCOPE"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "number of events processed concurrently",
			Value:   16,
			EnvVars: []string{"MODERATOR_WORKERS"},
		},
		&cli.DurationFlag{
			Name:    "event-timeout",
			Usage:   "deadline for processing one event",
			Value:   30 * time.Second,
			EnvVars: []string{"MODERATOR_EVENT_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "markers-sync-interval",
			Usage:   "how often markers are reloaded from the database",
			Value:   5 * time.Minute,
			EnvVars: []string{"MODERATOR_MARKERS_SYNC_INTERVAL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "address for the Prometheus metrics endpoint; empty disables it",
			Value:   ":9090",
			EnvVars: []string{"MODERATOR_METRICS_LISTEN"},
		},
	},
	Action: runModerator,
}

func runModerator(cctx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSON(os.Stdout, cctx.String("log-level"))
	log := logging.NewSlog(logger)

	scope, err := ledger.ParseScope(cctx.String("warning-scope"))
	if err != nil {
		return err
	}
	workers, err := newWorkerPool(cctx.Int("workers"))
	if err != nil {
		return err
	}

	client, err := telegram.NewClient(telegram.Options{
		Token:   cctx.String("telegram-token"),
		BaseURL: cctx.String("telegram-api"),
	})
	if err != nil {
		return err
	}

	var st moderator.Storage
	if path := cctx.String("markers-db"); path != "" {
		adapter, closeDB, err := openMarkers(ctx, path)
		if err != nil {
			return err
		}
		defer closeDB()
		st = adapter
	}

	collector, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	m := moderator.New(moderator.Options{
		Gateway:      client,
		Storage:      st,
		Processed:    collector,
		Logger:       log,
		Scope:        scope,
		SyncInterval: cctx.Duration("markers-sync-interval"),
	})
	if err := collector.Attach(m); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if addr := cctx.String("metrics-listen"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("starting metrics endpoint", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics endpoint: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return ignoreCanceled(m.Run(ctx))
	})

	g.Go(func() error {
		timeout := cctx.Duration("event-timeout")

		poller := telegram.NewPoller(client, telegram.PollerOptions{
			Logger:   log,
			Username: cctx.String("telegram-username"),
		})
		logger.Info("moderator started", "version", versioninfo.Short(), "warning_scope", scope.String())
		err := poller.Run(ctx, func(ctx context.Context, event models.Event) {
			workers.Go(func() error {
				// events are processed after shutdown starts, so they get a fresh deadline
				evCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
				defer cancel()
				if err := m.Dispatch(evCtx, event); err != nil {
					logger.Warn("event processing failed", "err", err, "event", fmt.Sprintf("%T", event))
				}
				return nil
			})
		})
		_ = workers.Wait()
		return ignoreCanceled(err)
	})

	err = g.Wait()
	logger.Info("moderator stopped")
	return err
}

// newWorkerPool bounds concurrent event processing to n goroutines.
func newWorkerPool(n int) (*errgroup.Group, error) {
	if n < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", n)
	}
	g := new(errgroup.Group)
	g.SetLimit(n)
	return g, nil
}

func openMarkers(ctx context.Context, path string) (*storage.SQLAdapter, func(), error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open markers db: %w", err)
	}
	db.SetMaxOpenConns(1)
	adapter, err := storage.NewSQLAdapter(db, "")
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := adapter.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("markers schema: %w", err)
	}
	return adapter, func() { _ = db.Close() }, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
