// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Bot mode: Admin Telegram bot for subscribers, stats, and runtime tuning
//   - Reader mode: MTProto userbot that monitors groups and forwards orders
//   - All mode: Both of the above in a single process
//
// Each mode can be run independently or combined based on deployment needs.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/taxi-order-bot/internal/adminweb"
	"github.com/lueurxax/taxi-order-bot/internal/bot"
	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/discovery"
	"github.com/lueurxax/taxi-order-bot/internal/fastfilter"
	"github.com/lueurxax/taxi-order-bot/internal/ingest/reader"
	"github.com/lueurxax/taxi-order-bot/internal/keywords"
	"github.com/lueurxax/taxi-order-bot/internal/pipeline"
	"github.com/lueurxax/taxi-order-bot/internal/platform/config"
	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/platform/worker"
	"github.com/lueurxax/taxi-order-bot/internal/publish"
	"github.com/lueurxax/taxi-order-bot/internal/ratelimit"
	"github.com/lueurxax/taxi-order-bot/internal/rules"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

const errBotInit = "bot initialization failed: %w"

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// core bundles the shared stateful services used by every mode. In "all" mode
// the bot and the reader must see the same keyword store and runtime config so
// that admin edits take effect without a restart.
type core struct {
	keywords *keywords.Store
	runtime  *runtimeconfig.Service
}

// lateExecutor defers binding the publish layer. The pipeline has to exist
// before the MTProto reader, and the reader must exist before the action
// executor that sends through it, so the executor is bound last, before any
// goroutine starts.
type lateExecutor struct {
	actions *publish.Actions
}

func (e *lateExecutor) Execute(ctx context.Context, msg *domain.NormalizedMessage, decision domain.Decision) error {
	if e.actions == nil {
		return fmt.Errorf("executor not bound")
	}

	return e.actions.Execute(ctx, msg, decision)
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

func (a *App) initCore(ctx context.Context) (*core, error) {
	kw := keywords.NewStore(a.database)
	if err := kw.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("keyword store init: %w", err)
	}

	initial, err := a.cfg.InitialRuntime()
	if err != nil {
		return nil, fmt.Errorf("runtime defaults: %w", err)
	}

	runtime := runtimeconfig.NewService(initial, a.database, *a.logger)
	if err := runtime.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("runtime config init: %w", err)
	}

	return &core{keywords: kw, runtime: runtime}, nil
}

// RunBot runs the admin bot mode.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	c, err := a.initCore(ctx)
	if err != nil {
		return err
	}

	return a.runBot(ctx, c)
}

// RunReader runs the userbot reader mode.
func (a *App) RunReader(ctx context.Context) error {
	a.logger.Info().Msg("Starting reader mode")

	c, err := a.initCore(ctx)
	if err != nil {
		return err
	}

	return a.runReader(ctx, c)
}

// RunAll runs the reader and the admin bot in a single process.
func (a *App) RunAll(ctx context.Context) error {
	a.logger.Info().Msg("Starting combined mode")

	c, err := a.initCore(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.runReader(gctx, c) })
	g.Go(func() error { return a.runBot(gctx, c) })

	return g.Wait()
}

func (a *App) runBot(ctx context.Context, c *core) error {
	b, err := bot.New(a.cfg, a.database, c.keywords, c.runtime, a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}

func (a *App) runReader(ctx context.Context, c *core) error {
	if err := reader.SeedPriorityGroups(ctx, a.database, a.cfg.PriorityGroupLinks, a.logger); err != nil {
		return fmt.Errorf("seed priority groups: %w", err)
	}

	filter := fastfilter.New(a.cfg.MinTextLength, c.keywords, c.runtime)
	engine := rules.NewEngine(a.cfg.MinTextLength, c.keywords, c.runtime)

	exec := &lateExecutor{}
	pipe := pipeline.New(pipeline.Config{
		Workers:   a.cfg.WorkerCount,
		QueueSize: a.cfg.QueueMaxSize,
	}, filter, engine, exec, a.database, a.logger)

	rdr := reader.New(a.cfg, a.database, pipe, a.logger)

	cooldowns := ratelimit.NewCooldowns(ratelimit.NewWindowLimiter())
	actions := publish.NewActions(rdr, cooldowns, a.database, c.runtime, a.cfg.GlobalActionsMinute, a.logger)
	exec.actions = actions

	invites := reader.NewInviteManager(a.database, actions, a.logger)
	groups := discovery.NewManager(rdr, a.database, actions, c.runtime, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return pipe.Run(gctx) })
	g.Go(func() error {
		// Join loops need the live MTProto connection, so they start from
		// the reader's connected callback instead of the outer group.
		return rdr.Run(gctx, func(cctx context.Context) error {
			jg, jctx := errgroup.WithContext(cctx)

			jg.Go(func() error {
				return invites.Run(jctx, worker.IntervalConfig{
					Interval:   a.cfg.InviteSyncInterval,
					RunOnStart: true,
				})
			})
			jg.Go(func() error { return groups.Run(jctx, a.cfg.DiscoveryInterval) })

			return jg.Wait()
		})
	})

	if a.cfg.AdminWebEnabled {
		srv := adminweb.NewServer(a.cfg.AdminWebAddr, a.cfg.AdminWebToken, c.keywords, c.runtime, a.database, a.logger)
		g.Go(func() error { return srv.Start(gctx) })
	}

	return g.Wait()
}
