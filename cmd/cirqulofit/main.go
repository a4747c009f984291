package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"tailscale.com/tsnet"

	"github.com/claude/cirqulofit/internal/auth"
	"github.com/claude/cirqulofit/internal/config"
	"github.com/claude/cirqulofit/internal/gifs"
	"github.com/claude/cirqulofit/internal/mcp"
	"github.com/claude/cirqulofit/internal/metrics"
	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/profile"
	"github.com/claude/cirqulofit/internal/progression"
	"github.com/claude/cirqulofit/internal/server"
	"github.com/claude/cirqulofit/internal/session"
	"github.com/claude/cirqulofit/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	log.Info("CirquloFit starting", "version", Version, "store", cfg.Store.Driver)

	if *migrateOnly {
		if cfg.Store.Driver != config.DriverPostgres {
			log.Info("migrate-only: nothing to migrate", "store", cfg.Store.Driver)
			return
		}
		if err := store.RunMigrations(cfg.Store.Database.DSN(), cfg.Store.Database.Migrations); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// Open store
	kv, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()
	log.Info("store opened", "driver", cfg.Store.Driver)
	records := store.NewRecords(kv)

	// Metrics
	var (
		metricsManager *metrics.Manager
		promRegistry   *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		var extra []prometheus.Collector
		if pg, ok := kv.(*store.Postgres); ok {
			extra = append(extra, pgxpoolprometheus.NewCollector(pg.Pool, map[string]string{"db_name": cfg.Store.Database.Name}))
		}
		promRegistry = metrics.SetupPrometheus(extra...)
		metricsManager = metrics.NewManager("cirqulofit", "main", promRegistry)
		metricsManager.GaugeLifeSignal.Set(0)
	}

	// Restore the user and build the session machine
	opts := session.Options{Persister: records}
	if metricsManager != nil {
		opts.Recorder = metricsManager
	}
	machine := session.New(models.NewUser(), opts, log)

	user, ok, err := records.LoadUser(ctx)
	switch {
	case err != nil:
		log.Warn("failed to load saved user, starting fresh", "error", err)
	case ok:
		if fixed, changed := progression.Normalize(user); changed {
			log.Warn("saved user level disagrees with experience, normalizing",
				"level", user.Level, "experience", user.Experience,
				"new_level", fixed.Level, "new_experience", fixed.Experience)
			user = fixed
		}
		if _, err := machine.Dispatch(ctx, session.InitializeUser{User: user}); err != nil {
			return fmt.Errorf("restoring user: %w", err)
		}
		log.Info("user restored", "level", user.Level, "workouts", len(user.WorkoutHistory))
	}

	scheduler := session.NewScheduler(machine, cfg.Session.TickInterval, log)
	scheduler.Start(ctx)
	defer scheduler.Close()

	// Identity provider session
	gateway := auth.NewMaestro(cfg.Auth.MaestroURL, cfg.Auth.MaestroAPIURL, cfg.Auth.AppName, log)
	authSession := auth.NewSession(gateway, records, log)
	if st := authSession.Initialize(ctx); st.IsAuthenticated {
		log.Info("maestro session restored", "user", st.User.Username)
	}

	finder, err := gifs.NewFinder(cfg.Gifs, log)
	if err != nil {
		return fmt.Errorf("creating gif finder: %w", err)
	}
	if cfg.Gifs.APIKey == "" {
		log.Warn("tenor api key not set, exercise gifs are disabled")
	}

	// MCP over streamable HTTP
	mcpSrv := mcp.New(mcp.NewLocal(machine), Version, log)
	mcpHTTP := mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp"))

	srv := server.New(server.Deps{
		Machine:  machine,
		Auth:     authSession,
		Gateway:  gateway,
		Profile:  profile.NewClient(cfg.Profile.APIURL, records),
		Gifs:     finder,
		Metrics:  metricsManager,
		Registry: promRegistry,
		MCP:      mcpHTTP,
		APIKey:   cfg.Auth.APIKey,
		Log:      log,
	})

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Serve(listener)
	}()
	if metricsManager != nil {
		metricsManager.GaugeLifeSignal.Set(1)
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("shutting down")
	if metricsManager != nil {
		metricsManager.GaugeLifeSignal.Set(0)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
		log.Warn("mcp shutdown", "error", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	return nil
}
