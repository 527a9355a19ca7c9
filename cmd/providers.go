package cmd

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"embedrc/internal/provider"
	"embedrc/internal/registry"
	"embedrc/internal/ui"
)

var (
	flagScope   string
	flagVerbose bool
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List and manage oEmbed providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	Args:  cobra.NoArgs,
	RunE:  providersListRun,
}

var providersEnableCmd = &cobra.Command{
	Use:   "enable <name|id>...",
	Short: "Enable providers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabledRun(cmd, args, true)
	},
}

var providersDisableCmd = &cobra.Command{
	Use:   "disable <name|id>...",
	Short: "Disable providers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabledRun(cmd, args, false)
	},
}

func init() {
	providersListCmd.Flags().StringVarP(&flagScope, "scope", "s", "all", "Providers to list: enabled | disabled | all")
	providersListCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show endpoints and schemes")

	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersEnableCmd)
	providersCmd.AddCommand(providersDisableCmd)
}

func providersListRun(cmd *cobra.Command, args []string) error {
	scope, err := registry.ParseScope(flagScope)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.registry.Providers(scope)
	if flagJSON {
		data, err := provider.Encode(list)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}

	ui.ProviderTable(cmd.OutOrStdout(), list, flagVerbose)
	return nil
}

func setEnabledRun(cmd *cobra.Command, args []string, enabled bool) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	all := a.registry.Providers(registry.All)
	for _, arg := range args {
		p, ok := findProvider(all, arg)
		if !ok {
			return fmt.Errorf("no provider named %q", arg)
		}
		if err := a.registry.SetEnabled(cmd.Context(), p.ID, enabled); err != nil {
			return err
		}
		logger.Debug().Str("provider", p.Name).Bool("enabled", enabled).Msg("provider updated")

		if flagJSON {
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"id": p.ID, "name": p.Name, "enabled": enabled}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", ui.State(enabled), p.Name)
	}
	return nil
}

// findProvider matches arg against IDs first, then names case-insensitively.
func findProvider(list []provider.Provider, arg string) (provider.Provider, bool) {
	for _, p := range list {
		if p.ID == arg {
			return p, true
		}
	}
	for _, p := range list {
		if strings.EqualFold(p.Name, arg) {
			return p, true
		}
	}
	return provider.Provider{}, false
}
