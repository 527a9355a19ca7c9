package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"embedrc/internal/registry"
)

var flagForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the provider catalog",
	Long: `Refresh reloads the provider catalog. Without --force a cached directory
younger than the cache lifespan is reused.`,
	Args: cobra.NoArgs,
	RunE: refreshRun,
}

func init() {
	refreshCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Download the directory even if the cache is fresh")
}

func refreshRun(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.registry.Load(cmd.Context(), flagForce); err != nil {
		return fmt.Errorf("refreshing providers: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d providers (%d enabled)\n",
		len(a.registry.Providers(registry.All)),
		len(a.registry.Providers(registry.Enabled)))
	return nil
}
