// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"embedrc/internal/config"
	"embedrc/internal/filter"
	"embedrc/internal/logging"
	"embedrc/internal/oembed"
	"embedrc/internal/registry"
	"embedrc/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig    string
	flagStore     string
	flagDataDir   string
	flagTargetTag string
	flagLazyLoad  bool
	flagNoRemote  bool
	flagJSON      bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logger is built from cfg once flags are parsed.
var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "embedrc",
	Short: "Resolve links into oEmbed embeds",
	Long: `embedrc finds the first link in a piece of text that belongs to a known
oEmbed provider, fetches the provider's embed markup and prints it, either
directly or wrapped in a lazy-loading preview card.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "embedrc", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/embedrc/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Store backend: sqlite | file")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory for the provider cache")
	rootCmd.PersistentFlags().StringVar(&flagTargetTag, "target-tag", "", "Elements filtered in HTML mode: a | div")
	rootCmd.PersistentFlags().BoolVar(&flagLazyLoad, "lazy-load", true, "Render preview cards instead of live embeds")
	rootCmd.PersistentFlags().BoolVar(&flagNoRemote, "no-remote", false, "Do not download the provider directory")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// configPath returns the --config value or the default location.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.ConfigPath()
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err = config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyFlags(cmd, cfg)

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = logging.New(logging.Options{Debug: cfg.Debug, LogFile: cfg.LogFile})
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return nil
}

// applyFlags copies explicitly set CLI flags over c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	if flagStore != "" {
		c.Store = flagStore
	}
	if flagDataDir != "" {
		c.DataDir = flagDataDir
	}
	if flagTargetTag != "" {
		c.TargetTag = flagTargetTag
	}
	if cmd.Flags().Changed("lazy-load") {
		c.LazyLoad = flagLazyLoad
	}
	if flagNoRemote {
		c.RemoteListEnabled = false
	}
	if flagDebug {
		c.Debug = true
	}
}

// app is the resolution context of one command invocation.
type app struct {
	store    store.Store
	registry *registry.Registry
	filter   *filter.Filter
}

// newApp opens the store and builds the registry and filter for c. The
// catalog is not loaded yet.
func newApp(ctx context.Context, c *config.Config, log zerolog.Logger) (*app, error) {
	dir, err := c.ExpandDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s, err := store.Open(ctx, c.Store, dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	reg := registry.New(registry.Options{
		RemoteEnabled: c.RemoteListEnabled,
		ProvidersURL:  c.ProvidersURL,
		Lifespan:      c.Lifespan(),
		Restrict:      c.RestrictProviders,
		Allowed:       c.AllowedProviders,
	}, s, registry.WithLogger(log.With().Str("component", "registry").Logger()))

	f := filter.New(reg, oembed.NewClient(), filter.Options{
		LazyLoad:  c.LazyLoad,
		TargetTag: c.TargetTag,
	}, log.With().Str("component", "filter").Logger())

	return &app{store: s, registry: reg, filter: f}, nil
}

// openApp builds the app for the loaded configuration and loads the
// provider catalog.
func openApp(ctx context.Context) (*app, error) {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.registry.Load(ctx, false); err != nil {
		a.Close()
		return nil, fmt.Errorf("loading providers: %w", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
