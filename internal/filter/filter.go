// Package filter runs the embed resolution pipeline: match text against
// the enabled providers, fetch the oEmbed response and render it.
package filter

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"embedrc/internal/oembed"
	"embedrc/internal/provider"
	"embedrc/internal/registry"
	"embedrc/internal/render"
)

// State is a step of a single resolution.
type State int

const (
	Start State = iota
	Matching
	Fetching
	Rendering
	Done
	Empty
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case Matching:
		return "matching"
	case Fetching:
		return "fetching"
	case Rendering:
		return "rendering"
	case Done:
		return "done"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Kind is the form of a resolved embed.
type Kind int

const (
	KindEmpty Kind = iota
	KindEmbed
	KindPreload
)

func (k Kind) String() string {
	switch k {
	case KindEmbed:
		return "embed"
	case KindPreload:
		return "preload"
	default:
		return "empty"
	}
}

// Result is the outcome of one resolution.
type Result struct {
	Kind        Kind
	State       State
	Markup      string
	AspectRatio float64 // set for preload cards
	Provider    string
	RequestURL  string
	Raw         oembed.Response
	Warnings    []string // recorded by this resolution only
}

// Catalog is the provider source of a Filter.
type Catalog interface {
	Ensure(ctx context.Context) error
	Providers(scope registry.Scope) []provider.Provider
}

// Target tags for FilterText.
const (
	TargetAnchor = "a"
	TargetDiv    = "div"
)

// Options control rendering.
type Options struct {
	LazyLoad  bool
	TargetTag string // "a" or "div"
	Params    string // extra player parameters for direct embeds
}

// maxWarnings bounds the undrained warnings of a Filter.
const maxWarnings = 64

// Filter resolves embeds for one process or session.
type Filter struct {
	catalog  Catalog
	fetcher  oembed.Fetcher
	renderer *render.Renderer
	opts     Options
	log      zerolog.Logger

	mu       sync.Mutex
	warnings []string
}

// New creates a Filter over catalog using fetcher for oEmbed requests.
func New(catalog Catalog, fetcher oembed.Fetcher, opts Options, log zerolog.Logger) *Filter {
	if opts.TargetTag == "" {
		opts.TargetTag = TargetAnchor
	}
	f := &Filter{
		catalog: catalog,
		fetcher: fetcher,
		opts:    opts,
		log:     log,
	}
	f.renderer = render.New(f.warn)
	return f
}

// Resolve returns the embed markup for text, or "" when nothing embeds.
func (f *Filter) Resolve(ctx context.Context, text string) string {
	return f.ResolveResult(ctx, text).Markup
}

// ResolveResult runs the pipeline for text. Providers are tried in
// registration order and the first scheme found in text wins.
func (f *Filter) ResolveResult(ctx context.Context, text string) Result {
	res := Result{State: Start}

	if err := f.catalog.Ensure(ctx); err != nil {
		f.log.Error().Err(err).Msg("provider catalog unavailable")
		res.State = Empty
		return res
	}

	res.State = Matching
	p, e, ok := f.match(text)
	if !ok {
		res.State = Empty
		return res
	}
	res.Provider = p.Name

	res.State = Fetching
	if !e.SupportsJSON() {
		f.log.Debug().Str("provider", p.Name).Strs("formats", e.Formats).Msg("endpoint does not list json, requesting it anyway")
	}
	res.RequestURL = oembed.RequestURL(e, strings.TrimSpace(text))
	resp, err := f.fetcher.Fetch(ctx, res.RequestURL)
	if err != nil {
		f.log.Warn().Err(err).Str("provider", p.Name).Str("url", res.RequestURL).Msg("oembed fetch failed")
		f.warn(render.ConnectionError)
		res.Warnings = append(res.Warnings, render.ConnectionError)
		res.State = Empty
		return res
	}
	res.Raw = resp

	res.State = Rendering
	if f.opts.LazyLoad {
		res.Kind = KindPreload
		res.AspectRatio = render.CardAspectRatio(resp)
		res.Markup = f.renderer.PreloadCard(resp, f.opts.Params)
	} else {
		res.Kind = KindEmbed
		res.Markup = f.renderer.DirectEmbed(resp, f.opts.Params)
	}
	if res.Markup == "" {
		res.Kind = KindEmpty
		res.State = Empty
		return res
	}

	res.State = Done
	f.log.Debug().Str("provider", p.Name).Stringer("kind", res.Kind).Msg("embed resolved")
	return res
}

func (f *Filter) match(text string) (provider.Provider, *provider.Endpoint, bool) {
	for _, p := range f.catalog.Providers(registry.Enabled) {
		if e, ok := p.Match(text); ok {
			return p, e, true
		}
	}
	return provider.Provider{}, nil, false
}

// FilterText replaces every target element of an HTML fragment that
// resolves to an embed. Anchors are resolved by their href, divs of class
// "oembed" by their text. The fragment is returned unchanged when
// nothing resolves.
func (f *Filter) FilterText(ctx context.Context, fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		f.log.Warn().Err(err).Msg("parsing fragment")
		return fragment
	}

	selector := "a[href]"
	if f.opts.TargetTag == TargetDiv {
		selector = "div.oembed"
	}

	replaced := 0
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		candidate := s.AttrOr("href", "")
		if f.opts.TargetTag == TargetDiv {
			candidate = strings.TrimSpace(s.Text())
		}

		if markup := f.Resolve(ctx, candidate); markup != "" {
			s.ReplaceWithHtml(markup)
			replaced++
		}
	})
	if replaced == 0 {
		return fragment
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		f.log.Warn().Err(err).Msg("serializing fragment")
		return fragment
	}
	return out
}

// Warnings returns the warnings recorded since the previous call and
// clears them. At most maxWarnings of the newest are kept.
func (f *Filter) Warnings() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.warnings
	f.warnings = nil
	return out
}

func (f *Filter) warn(msg string) {
	f.mu.Lock()
	if len(f.warnings) >= maxWarnings {
		f.warnings = append(f.warnings[:0], f.warnings[len(f.warnings)-maxWarnings+1:]...)
	}
	f.warnings = append(f.warnings, msg)
	f.mu.Unlock()
}
