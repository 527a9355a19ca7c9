package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"embedrc/internal/ui"
)

var flagHTML bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [text...]",
	Short: "Resolve text into embed markup",
	Long: `Resolve looks for the first link in the text that matches an enabled
provider and prints the embed markup. Text is read from stdin when no
arguments are given. With --html every target element of an HTML fragment
is replaced instead.`,
	Args: cobra.ArbitraryArgs,
	RunE: resolveRun,
}

func init() {
	resolveCmd.Flags().BoolVar(&flagHTML, "html", false, "Filter an HTML fragment, replacing each target element")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	if flagHTML {
		fmt.Fprintln(out, a.filter.FilterText(cmd.Context(), text))
		ui.Warnings(os.Stderr, a.filter.Warnings())
		return nil
	}

	res := a.filter.ResolveResult(cmd.Context(), text)
	logger.Debug().Stringer("state", res.State).Str("provider", res.Provider).Msg("resolved")

	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"kind":         res.Kind.String(),
			"state":        res.State.String(),
			"markup":       res.Markup,
			"aspect_ratio": res.AspectRatio,
			"provider":     res.Provider,
			"request_url":  res.RequestURL,
			"warnings":     res.Warnings,
		})
	}

	ui.Warnings(os.Stderr, res.Warnings)
	if res.Markup == "" {
		return nil
	}
	fmt.Fprintln(out, res.Markup)
	return nil
}
