package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"embedrc/internal/config"
	"embedrc/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve exposes resolution and provider management over HTTP. The provider
catalog is refreshed on the configured schedule and the configuration file
is reloaded when it changes.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	// Replaced apps are retired by the watcher; the last one is closed here.
	var mu sync.Mutex
	current := a
	defer func() {
		mu.Lock()
		current.Close()
		mu.Unlock()
	}()

	srv := server.New(server.Deps{Resolver: a.filter, Catalog: a.registry}, logger)

	if err := srv.StartRefresh(ctx, cfg.RefreshSchedule); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	rebuild := func(ctx context.Context) (server.Deps, func(), error) {
		next, err := config.LoadFile(path)
		if err != nil {
			return server.Deps{}, nil, err
		}
		applyFlags(cmd, next)
		if err := next.Validate(); err != nil {
			return server.Deps{}, nil, fmt.Errorf("invalid configuration: %w", err)
		}

		// The store is shared by path, so the replacement is opened while
		// the old app still serves requests.
		b, err := newApp(ctx, next, logger)
		if err != nil {
			return server.Deps{}, nil, err
		}
		if err := b.registry.Load(ctx, false); err != nil {
			b.Close()
			return server.Deps{}, nil, err
		}
		mu.Lock()
		old := current
		current = b
		mu.Unlock()
		return server.Deps{Resolver: b.filter, Catalog: b.registry}, func() { old.Close() }, nil
	}
	if err := srv.WatchConfig(ctx, path, rebuild); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("config watcher disabled")
	}

	return srv.Run(ctx, cfg.Listen)
}
