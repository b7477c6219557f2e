package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localpub/localpub/internal/config"
	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/dockersource"
	"github.com/localpub/localpub/internal/engine"
	"github.com/localpub/localpub/internal/httpserver"
	"github.com/localpub/localpub/internal/httpserver/deps"
	"github.com/localpub/localpub/internal/logger"
	"github.com/localpub/localpub/internal/netutil"
	"github.com/localpub/localpub/internal/responder"
	"github.com/localpub/localpub/internal/scheduler"
	"github.com/localpub/localpub/internal/sources/staticfile"
	"github.com/localpub/localpub/internal/table"
	"github.com/localpub/localpub/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	source    *dockersource.Source
	responder *responder.Zeroconf
	engine    *engine.Engine
	resyncer  *scheduler.Resyncer
	server    *httpserver.Server // nil when HTTP_LISTEN is empty
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Resolve the adapter policy once. Hot-plugged adapters are picked up on
	// the next daemon restart, not at runtime.
	adapters, err := netutil.ListAdapters()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate adapters: %w", err)
	}
	selection, err := netutil.Select(cfg.Adapters, cfg.ExcludedNets, adapters, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("adapter selection failed: %w", err)
	}
	loggerClient.Info("publishing on addresses",
		logger.Strings("ips", selection.IPs))

	// Connect to docker early - fail fast if unavailable.
	source, err := dockersource.New(context.Background(), loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to docker: %w", err)
	}
	loggerClient.Info("docker connection established")

	// Load static record definitions (if configured).
	var staticIntents []*domain.PublicationIntent
	if cfg.StaticRecordsFile != "" {
		recordsConfig, err := staticfile.NewLoader(cfg.StaticRecordsFile).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load static records: %w", err)
		}
		staticIntents, err = staticfile.NewMapper(loggerClient).MapRecords(recordsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to map static records: %w", err)
		}
		loggerClient.Info("static records loaded",
			logger.Int("count", len(staticIntents)),
			logger.String("file", cfg.StaticRecordsFile))
	}

	tbl := table.New()
	resp := responder.NewZeroconf(selection, loggerClient)

	// The resync channel is the fan-in for the periodic scheduler and the
	// manual HTTP trigger; the engine is its single consumer.
	resyncCh := make(chan struct{}, 1)

	eng := engine.New(source, resp, tbl, loggerClient, resyncCh, engine.Options{
		TTLSeconds:        cfg.TTLSeconds,
		Debug:             cfg.Debug,
		UnregisterTimeout: cfg.UnregisterTimeout,
		StaticIntents:     staticIntents,
	})

	resyncer := scheduler.NewResyncer(eng, loggerClient, cfg.ResyncInterval)

	var server *httpserver.Server
	if cfg.HTTPListen != "" {
		d := deps.Deps{
			Logger:        loggerClient,
			StartTime:     time.Now(),
			Version:       version.Version,
			Commit:        version.Commit,
			BuildDate:     version.BuildDate,
			GoVersion:     version.GoVersion,
			AllowedCIDRS:  cfg.HTTPAllowedCIDRS,
			Table:         tbl,
			Ready:         eng.Ready,
			ResyncTrigger: eng.TriggerResync,
		}
		server = httpserver.New(cfg.HTTPListen, loggerClient, d)
	} else {
		loggerClient.Info("HTTP_LISTEN not configured, ops endpoints disabled")
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		source:    source,
		responder: resp,
		engine:    eng,
		resyncer:  resyncer,
		server:    server,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("localpub %s starting (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Info("configuration",
		logger.Int("ttl_seconds", int(a.cfg.TTLSeconds)),
		logger.Duration("resync_interval", a.cfg.ResyncInterval),
		logger.Bool("debug", a.cfg.Debug))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCtx, cancelEngine := context.WithCancel(context.Background())
	defer cancelEngine()

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- a.engine.Run(engineCtx)
	}()

	if err := a.resyncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start resyncer: %w", err)
	}
	a.logger.Info("resyncer started",
		logger.Duration("interval", a.cfg.ResyncInterval))

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				serverErr <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	var runErr error
	engineStopped := false
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully...")
	case err := <-engineDone:
		engineStopped = true
		if err != nil {
			runErr = fmt.Errorf("engine error: %w", err)
		}
	case err := <-serverErr:
		runErr = err
	}

	a.resyncer.Stop()

	// Cancel the engine and wait for its final unregister sweep, bounded by
	// the shutdown budget.
	cancelEngine()
	if !engineStopped {
		select {
		case err := <-engineDone:
			if err != nil && runErr == nil {
				runErr = fmt.Errorf("engine error: %w", err)
			}
		case <-time.After(a.cfg.ShutdownTimeout):
			a.logger.Warn("engine did not stop within shutdown budget")
		}
	}

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			a.logger.Warnf("failed to stop http server: %v", err)
		}
	}

	// Anything the engine could not withdraw in time expires by TTL.
	a.responder.Close()

	if err := a.source.Close(); err != nil {
		a.logger.Warnf("failed to close docker client: %v", err)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("localpub stopped cleanly")
	return nil
}
