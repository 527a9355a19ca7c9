package ui

import (
	"bytes"
	"strings"
	"testing"

	"embedrc/internal/provider"
)

func TestProviderTable(t *testing.T) {
	providers := []provider.Provider{
		{
			ID:      provider.IDFor("YouTube"),
			Name:    "YouTube",
			Enabled: true,
			Source:  provider.Remote,
			Endpoints: []*provider.Endpoint{
				{URL: "https://www.youtube.com/oembed", Schemes: []string{"https://*.youtube.com/watch*"}},
			},
		},
		{ID: provider.IDFor("Vimeo"), Name: "Vimeo", Source: provider.Local},
	}

	var buf bytes.Buffer
	ProviderTable(&buf, providers, false)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	for _, want := range []string{"NAME", "YouTube", "enabled", "remote", "Vimeo", "disabled", "local", provider.IDFor("Vimeo")} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "youtube.com/oembed") {
		t.Errorf("endpoints shown without verbose:\n%s", out)
	}

	buf.Reset()
	ProviderTable(&buf, providers, true)
	if !strings.Contains(buf.String(), "https://*.youtube.com/watch*") {
		t.Errorf("verbose output missing schemes:\n%s", buf.String())
	}
}

func TestProviderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	ProviderTable(&buf, nil, false)
	if !strings.Contains(buf.String(), "No providers.") {
		t.Errorf("got %q", buf.String())
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"ab", 4, "ab  "},
		{"abcd", 2, "abcd"},
		{"", 1, " "},
	}
	for _, tt := range tests {
		if got := pad(tt.in, tt.width); got != tt.want {
			t.Errorf("pad(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
