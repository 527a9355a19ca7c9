package provider

import (
	"strings"
	"testing"
)

func TestSchemeToRegex(t *testing.T) {
	tests := []struct {
		scheme   string
		expected string
	}{
		{"https://*.youtube.com/*", `(https?:\/\/).*?\.youtube\.com\/.*?`},
		{"http://vimeo.com/*", `(https?:\/\/)vimeo\.com\/.*?`},
		{"https://youtu.be/*", `(https?:\/\/)youtu\.be\/.*?`},
		{"https://*.youtube.com/playlist?list=*", `(https?:\/\/).*?\.youtube\.com\/playlist\?list=.*?`},
		{"https://example.com", `(https?:\/\/)example\.com`},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			got := SchemeToRegex(tt.scheme)
			if got != tt.expected {
				t.Errorf("SchemeToRegex(%q) = %q, want %q", tt.scheme, got, tt.expected)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		schemes []string
		text    string
		want    bool
	}{
		{"youtube watch", []string{"https://*.youtube.com/*"}, "https://www.youtube.com/watch?v=Dsws8T9_cEE", true},
		{"http text for https scheme", []string{"https://*.youtube.com/*"}, "http://www.youtube.com/watch?v=x", true},
		{"link inside html", []string{"https://vimeo.com/*"}, `<p><a href="http://vimeo.com/115538038">vimeo</a></p>`, true},
		{"other domain", []string{"https://vimeo.com/*"}, "https://www.youtube.com/watch?v=x", false},
		{"second scheme hits", []string{"https://vimeo.com/*", "https://youtu.be/*"}, "https://youtu.be/abc", true},
		{"no scheme", nil, "https://vimeo.com/1", false},
		{"plain text", []string{"https://vimeo.com/*"}, "just some words", false},
		{"malformed scheme without path", []string{"https://example.com"}, "see https://example.com today", true},
		{"query wildcard", []string{"https://*.youtube.com/playlist?list=*"}, "https://m.youtube.com/playlist?list=PL1", true},
		{"literal question mark required", []string{"https://*.youtube.com/playlist?list=*"}, "https://m.youtube.com/playlistXlist=PL1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(Compile(tt.schemes), tt.text)
			if got != tt.want {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.schemes, tt.text, got, tt.want)
			}
		})
	}
}

// Every declared scheme of the bundled list matches a URL built by
// filling its wildcards with literal text.
func TestBundledSchemesMatchSubstitutedURLs(t *testing.T) {
	providers, err := Bundled()
	if err != nil {
		t.Fatalf("Bundled() error: %v", err)
	}

	for _, p := range providers {
		for _, e := range p.Endpoints {
			for _, scheme := range e.Schemes {
				url := strings.ReplaceAll(scheme, "*", "abc123")
				if !Matches(Compile([]string{scheme}), url) {
					t.Errorf("%s: scheme %q does not match %q", p.Name, scheme, url)
				}
			}
		}
	}
}

func TestCompileIdempotent(t *testing.T) {
	schemes := []string{
		"https://*.youtube.com/watch*",
		"https://vimeo.com/album/*/video/*",
		"https://example.com",
		"spotify:*",
	}
	corpus := []string{
		"https://www.youtube.com/watch?v=1",
		"https://vimeo.com/album/1/video/2",
		"https://vimeo.com/1",
		"http://example.com",
		"spotify:track:1",
		"nothing here",
	}

	first := Compile(schemes)
	second := Compile(schemes)
	if len(first) != len(second) {
		t.Fatalf("compiled %d patterns, then %d", len(first), len(second))
	}
	for i := range first {
		for _, text := range corpus {
			if first[i].MatchString(text) != second[i].MatchString(text) {
				t.Errorf("pattern %d disagrees on %q", i, text)
			}
		}
	}
}

func TestEndpointFallsBackToProviderURL(t *testing.T) {
	p := Provider{
		Name:      "Example",
		URL:       "https://media.example.org/",
		Endpoints: []*Endpoint{{URL: "https://media.example.org/oembed"}},
	}

	if _, ok := p.Match("https://media.example.org/v/42"); !ok {
		t.Error("schemeless endpoint should match on the provider URL")
	}
	if _, ok := p.Match("https://other.example.org/v/42"); ok {
		t.Error("schemeless endpoint matched a foreign domain")
	}
}

func TestMatchFirstEndpointWins(t *testing.T) {
	first := &Endpoint{URL: "https://a.example/oembed", Schemes: []string{"https://a.example/*"}}
	second := &Endpoint{URL: "https://b.example/oembed", Schemes: []string{"https://a.example/v/*"}}
	p := Provider{Name: "A", Endpoints: []*Endpoint{first, second}}

	e, ok := p.Match("https://a.example/v/1")
	if !ok {
		t.Fatal("expected a match")
	}
	if e != first {
		t.Errorf("matched endpoint %q, want %q", e.URL, first.URL)
	}
}
