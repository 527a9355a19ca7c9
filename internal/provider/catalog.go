package provider

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

//go:embed providers.json
var bundledJSON []byte

// rawProvider matches the JSON layout of the oembed.com provider directory.
type rawProvider struct {
	ProviderName string        `json:"provider_name"`
	ProviderURL  string        `json:"provider_url"`
	Endpoints    []rawEndpoint `json:"endpoints"`
}

type rawEndpoint struct {
	Schemes   []string `json:"schemes,omitempty"`
	URL       string   `json:"url"`
	Discovery bool     `json:"discovery,omitempty"`
	Formats   []string `json:"formats,omitempty"`
}

// Parse decodes a provider directory document. Entries without a name or
// without any usable endpoint are dropped; the first entry wins when a
// name repeats.
func Parse(data []byte, source Source) ([]Provider, error) {
	var raw []rawProvider
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing provider list: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	providers := make([]Provider, 0, len(raw))
	for _, r := range raw {
		name := strings.TrimSpace(r.ProviderName)
		if name == "" || seen[name] {
			continue
		}

		var endpoints []*Endpoint
		for _, re := range r.Endpoints {
			if re.URL == "" {
				continue
			}
			endpoints = append(endpoints, &Endpoint{
				URL:       re.URL,
				Schemes:   re.Schemes,
				Formats:   re.Formats,
				Discovery: re.Discovery,
			})
		}
		if len(endpoints) == 0 {
			continue
		}

		seen[name] = true
		providers = append(providers, Provider{
			ID:        IDFor(name),
			Name:      name,
			URL:       r.ProviderURL,
			Endpoints: endpoints,
			Enabled:   true,
			Source:    source,
		})
	}
	return providers, nil
}

// Encode serializes providers back into the directory layout.
func Encode(providers []Provider) ([]byte, error) {
	raw := make([]rawProvider, 0, len(providers))
	for _, p := range providers {
		r := rawProvider{ProviderName: p.Name, ProviderURL: p.URL}
		for _, e := range p.Endpoints {
			r.Endpoints = append(r.Endpoints, rawEndpoint{
				Schemes:   e.Schemes,
				URL:       e.URL,
				Discovery: e.Discovery,
				Formats:   e.Formats,
			})
		}
		raw = append(raw, r)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding provider list: %w", err)
	}
	return data, nil
}

// Bundled returns the provider list shipped with the binary.
func Bundled() ([]Provider, error) {
	return Parse(bundledJSON, Local)
}

// Names returns the provider names in order.
func Names(providers []Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name
	}
	return names
}
