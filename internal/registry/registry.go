// Package registry holds the active set of oEmbed providers and keeps it
// loaded from the remote directory, the cached copy of it, or the bundled
// fallback list.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"embedrc/internal/httputil"
	"embedrc/internal/provider"
	"embedrc/internal/store"
)

// Store keys.
const (
	keyCached       = "providers_cached"
	keyCachedAt     = "providers_cached_at"
	keyAllowedCache = "providers_allowed_cache"
	keyEnabled      = "provider_enabled:"
)

// DownloadTimeout bounds the provider directory download.
const DownloadTimeout = 15 * time.Second

var (
	// ErrNoProviderData means every provider source came up empty.
	ErrNoProviderData = errors.New("no provider data available")
	// ErrUnknownProvider is returned for IDs not in the catalog.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Scope selects providers by enabled state.
type Scope int

const (
	Enabled Scope = iota
	Disabled
	All
)

// ParseScope maps "enabled", "disabled" or "all" to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "enabled", "":
		return Enabled, nil
	case "disabled":
		return Disabled, nil
	case "all":
		return All, nil
	default:
		return 0, fmt.Errorf("unknown scope %q (valid: enabled, disabled, all)", s)
	}
}

// Options are the registry's configuration values.
type Options struct {
	RemoteEnabled bool
	ProvidersURL  string
	Lifespan      time.Duration // 0: the cache is never fresh
	Restrict      bool
	Allowed       []string
}

// Registry is the provider catalog of one resolution context.
type Registry struct {
	opts    Options
	store   store.Store
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time
	bundled func() ([]provider.Provider, error)
	plugins []provider.Provider

	mu        sync.RWMutex
	providers []provider.Provider
	loadedAt  time.Time
}

// Option customizes a Registry.
type Option func(*Registry)

// WithHTTPClient sets the client used for the directory download.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.client = c }
}

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithBundled overrides the last-resort provider list.
func WithBundled(f func() ([]provider.Provider, error)) Option {
	return func(r *Registry) { r.bundled = f }
}

// New creates an empty registry; call Load before use.
func New(opts Options, s store.Store, options ...Option) *Registry {
	r := &Registry{
		opts:    opts,
		store:   s,
		client:  httputil.NewClient(DownloadTimeout, DownloadTimeout),
		log:     zerolog.Nop(),
		now:     time.Now,
		bundled: provider.Bundled,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// RegisterPlugin adds a provider implemented in code. Plugins are appended
// after the catalog on every load, with Source set to Plugin.
func (r *Registry) RegisterPlugin(p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Source = provider.Plugin
	p.Enabled = true
	if p.ID == "" {
		p.ID = provider.IDFor(p.Name)
	}
	r.plugins = append(r.plugins, p)
}

// Load rebuilds the active provider list. Sources are tried in order until
// one yields providers: the cache while within its lifespan (skipped when
// force is set), the remote directory, the cache regardless of age, and
// finally the bundled list.
func (r *Registry) Load(ctx context.Context, force bool) error {
	var list []provider.Provider

	if r.opts.RemoteEnabled {
		if !force {
			list = r.cached(ctx, false)
		}
		if len(list) == 0 {
			var err error
			list, err = r.download(ctx)
			if err != nil {
				r.log.Warn().Err(err).Str("url", r.opts.ProvidersURL).Msg("provider directory download failed, using cached copy")
				list = r.cached(ctx, true)
			}
		}
	}

	if len(list) == 0 {
		bundled, err := r.bundled()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNoProviderData, err)
		}
		if len(bundled) == 0 {
			return ErrNoProviderData
		}
		r.log.Debug().Int("providers", len(bundled)).Msg("using bundled provider list")
		list = bundled
	}

	r.mu.RLock()
	list = mergePlugins(list, r.plugins)
	r.mu.RUnlock()

	r.cacheAllowedNames(ctx, list)
	if r.opts.Restrict {
		list = restrict(list, r.opts.Allowed)
	}

	if err := r.applyEnabled(ctx, list); err != nil {
		return err
	}

	r.mu.Lock()
	r.providers = list
	r.loadedAt = r.now()
	r.mu.Unlock()

	ev := r.log.Debug()
	if force {
		ev = r.log.Info()
	}
	ev.Int("providers", len(list)).Bool("forced", force).Msg("provider catalog loaded")
	return nil
}

// Ensure loads the catalog when it has never been loaded or the cache
// window it was loaded in has passed. A failed refresh keeps the current
// catalog.
func (r *Registry) Ensure(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.providers != nil
	stale := r.opts.RemoteEnabled && r.opts.Lifespan > 0 && r.now().Sub(r.loadedAt) > r.opts.Lifespan
	r.mu.RUnlock()

	if loaded && !stale {
		return nil
	}
	if err := r.Load(ctx, false); err != nil {
		if loaded {
			r.log.Warn().Err(err).Msg("provider refresh failed, keeping current catalog")
			return nil
		}
		return err
	}
	return nil
}

// Providers returns the providers in scope, in registration order.
func (r *Registry) Providers(scope Scope) []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]provider.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		switch {
		case scope == All,
			scope == Enabled && p.Enabled,
			scope == Disabled && !p.Enabled:
			out = append(out, p)
		}
	}
	return out
}

// SetEnabled persists the enabled flag of provider id. The provider stays
// in the catalog either way.
func (r *Registry) SetEnabled(ctx context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.providers {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}

	value := "0"
	if enabled {
		value = "1"
	}
	if err := r.store.Set(ctx, keyEnabled+id, value); err != nil {
		return fmt.Errorf("saving enabled flag: %w", err)
	}
	r.providers[idx].Enabled = enabled
	return nil
}

// AllowedNames returns every provider name seen at the last load, before
// the allow-list was applied.
func (r *Registry) AllowedNames(ctx context.Context) ([]string, error) {
	raw, ok, err := r.store.Get(ctx, keyAllowedCache)
	if err != nil || !ok {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("parsing allowed provider cache: %w", err)
	}
	return names, nil
}

// cached returns the stored directory copy, or nil when absent, unreadable
// or (unless ignoreLifespan) older than the configured lifespan.
func (r *Registry) cached(ctx context.Context, ignoreLifespan bool) []provider.Provider {
	blob, ok, err := r.store.Get(ctx, keyCached)
	if err != nil {
		r.log.Warn().Err(err).Msg("reading cached provider list")
		return nil
	}
	if !ok || blob == "" {
		return nil
	}

	if !ignoreLifespan {
		if r.opts.Lifespan <= 0 {
			return nil
		}
		raw, ok, err := r.store.Get(ctx, keyCachedAt)
		if err != nil || !ok {
			return nil
		}
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil
		}
		if r.now().Sub(time.Unix(secs, 0)) > r.opts.Lifespan {
			return nil
		}
	}

	list, err := provider.Parse([]byte(blob), provider.Remote)
	if err != nil {
		r.log.Warn().Err(err).Msg("cached provider list is corrupt")
		return nil
	}
	r.log.Debug().Int("providers", len(list)).Bool("stale", ignoreLifespan).Msg("using cached provider list")
	return list
}

// download fetches the remote directory and caches it on success.
func (r *Registry) download(ctx context.Context) ([]provider.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, DownloadTimeout)
	defer cancel()

	body, err := httputil.GetJSON(ctx, r.client, r.opts.ProvidersURL)
	if err != nil {
		return nil, fmt.Errorf("downloading providers: %w", err)
	}

	list, err := provider.Parse(body, provider.Remote)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("downloading providers: empty list")
	}

	if err := r.store.Set(ctx, keyCached, string(body)); err != nil {
		r.log.Warn().Err(err).Msg("caching provider list")
	} else if err := r.store.Set(ctx, keyCachedAt, strconv.FormatInt(r.now().Unix(), 10)); err != nil {
		r.log.Warn().Err(err).Msg("caching provider list timestamp")
	}

	r.log.Debug().Int("providers", len(list)).Msg("downloaded provider directory")
	return list, nil
}

func (r *Registry) cacheAllowedNames(ctx context.Context, list []provider.Provider) {
	data, err := json.Marshal(provider.Names(list))
	if err != nil {
		return
	}
	if err := r.store.Set(ctx, keyAllowedCache, string(data)); err != nil {
		r.log.Warn().Err(err).Msg("caching provider names")
	}
}

// applyEnabled copies the persisted enabled flags onto list. Providers
// without a stored flag stay enabled.
func (r *Registry) applyEnabled(ctx context.Context, list []provider.Provider) error {
	for i := range list {
		v, ok, err := r.store.Get(ctx, keyEnabled+list[i].ID)
		if err != nil {
			return fmt.Errorf("reading enabled flag of %s: %w", list[i].Name, err)
		}
		if ok {
			list[i].Enabled = v == "1"
		}
	}
	return nil
}

// mergePlugins appends plugins after list; a plugin whose name is taken
// gets its source appended to the name.
func mergePlugins(list, plugins []provider.Provider) []provider.Provider {
	if len(plugins) == 0 {
		return list
	}
	names := make(map[string]bool, len(list))
	for _, p := range list {
		names[p.Name] = true
	}
	out := append([]provider.Provider(nil), list...)
	for _, p := range plugins {
		if names[p.Name] {
			p.Name = fmt.Sprintf("%s (plugin::%s)", p.Name, p.Name)
			p.ID = provider.IDFor(p.Name)
		}
		names[p.Name] = true
		out = append(out, p)
	}
	return out
}

// restrict keeps only providers whose name is in allowed.
func restrict(list []provider.Provider, allowed []string) []provider.Provider {
	keep := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		keep[name] = true
	}
	out := make([]provider.Provider, 0, len(allowed))
	for _, p := range list {
		if keep[p.Name] {
			out = append(out, p)
		}
	}
	return out
}
