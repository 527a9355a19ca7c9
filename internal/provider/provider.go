// Package provider defines oEmbed providers, their endpoints and the
// URL scheme patterns used to decide which provider can embed a link.
package provider

import (
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Source identifies where a provider definition came from.
type Source int

const (
	Remote Source = iota
	Local
	Plugin
)

func (s Source) String() string {
	switch s {
	case Remote:
		return "remote"
	case Local:
		return "local"
	case Plugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// idNamespace seeds the name-derived provider IDs.
var idNamespace = uuid.MustParse("6f0f5a8e-3c1b-5b8e-9d0a-2f4c7b1e9a53")

// IDFor returns the stable identifier of the provider with the given name.
func IDFor(name string) string {
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// Provider is a single oEmbed provider.
type Provider struct {
	ID        string
	Name      string
	URL       string // provider base URL, the implicit scheme of schemeless endpoints
	Endpoints []*Endpoint
	Enabled   bool
	Source    Source
}

// Endpoint is a callable oEmbed API address of a provider.
type Endpoint struct {
	URL       string   // may contain the {format} placeholder
	Schemes   []string // empty means "match the provider URL"
	Formats   []string
	Discovery bool

	once     sync.Once
	patterns []*regexp.Regexp
}

// Patterns returns the compiled schemes of the endpoint. fallback is used
// as the sole scheme when the endpoint declares none. Patterns are compiled
// on first use and reused afterwards.
func (e *Endpoint) Patterns(fallback string) []*regexp.Regexp {
	e.once.Do(func() {
		schemes := e.Schemes
		if len(schemes) == 0 && fallback != "" {
			schemes = []string{fallback}
		}
		e.patterns = Compile(schemes)
	})
	return e.patterns
}

// SupportsJSON reports whether the endpoint lists json as a format.
// Endpoints that list no formats are assumed to speak json.
func (e *Endpoint) SupportsJSON() bool {
	if len(e.Formats) == 0 {
		return true
	}
	for _, f := range e.Formats {
		if strings.EqualFold(f, "json") {
			return true
		}
	}
	return false
}

// Match returns the first endpoint of p with a scheme found in text.
func (p *Provider) Match(text string) (*Endpoint, bool) {
	for _, e := range p.Endpoints {
		if Matches(e.Patterns(p.URL), text) {
			return e, true
		}
	}
	return nil, false
}
