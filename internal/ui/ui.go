// Package ui renders command output for the terminal. Styling is dropped
// automatically when the output is not a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"embedrc/internal/provider"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// ProviderTable writes one row per provider: state, name, source and the
// number of endpoints. With verbose set, the endpoint URLs and schemes are
// listed under each row.
func ProviderTable(w io.Writer, providers []provider.Provider, verbose bool) {
	if len(providers) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No providers."))
		return
	}

	width := len("NAME")
	for _, p := range providers {
		width = max(width, lipgloss.Width(p.Name))
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		headerStyle.Render(pad("STATE", 8)),
		headerStyle.Render(pad("NAME", width)),
		headerStyle.Render(pad("SOURCE", 6)),
		headerStyle.Render("ID"))

	for _, p := range providers {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			State(p.Enabled),
			pad(p.Name, width),
			pad(p.Source.String(), 6),
			dimStyle.Render(p.ID))

		if !verbose {
			continue
		}
		for _, e := range p.Endpoints {
			fmt.Fprintf(w, "    %s\n", e.URL)
			for _, s := range e.Schemes {
				fmt.Fprintf(w, "      %s\n", dimStyle.Render(s))
			}
		}
	}
}

// State renders an enabled flag.
func State(enabled bool) string {
	if enabled {
		return enabledStyle.Render(pad("enabled", 8))
	}
	return disabledStyle.Render(pad("disabled", 8))
}

// Warnings writes warnings to w, one per line.
func Warnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, errorStyle.Render("warning:")+" "+msg)
	}
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
