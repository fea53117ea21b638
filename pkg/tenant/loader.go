package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Loader resolves tenant identifiers through a Provider with a
// read-through cache in front. It is the non-HTTP counterpart of a
// tenant resolution middleware: dispatch callers use it to turn an
// identifier from their transport into a context-ready Tenant.
type Loader struct {
	provider      Provider
	cache         Cache
	cacheTTL      time.Duration
	requireActive bool
	logger        *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) LoaderOption {
	return func(l *Loader) {
		if cache != nil {
			l.cache = cache
		}
	}
}

// WithCacheTTL sets how long loaded tenants stay cached.
func WithCacheTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		if ttl > 0 {
			l.cacheTTL = ttl
		}
	}
}

// WithRequireActive makes Load reject inactive tenants with
// ErrInactiveTenant.
func WithRequireActive(require bool) LoaderOption {
	return func(l *Loader) {
		l.requireActive = require
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a cached tenant loader over the provider.
func NewLoader(provider Provider, opts ...LoaderOption) (*Loader, error) {
	if provider == nil {
		return nil, ErrProviderNil
	}

	l := &Loader{
		provider: provider,
		cacheTTL: 5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = NewInMemoryCache()
	}
	return l, nil
}

// Load resolves an identifier to a tenant, serving repeat lookups from
// the cache.
func (l *Loader) Load(ctx context.Context, identifier string) (*Tenant, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrInvalidIdentifier
	}

	if t, ok := l.cache.Get(ctx, identifier); ok {
		return l.checkActive(t)
	}

	t, err := l.provider.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("tenant: load %q: %w", identifier, err)
	}

	l.cache.Set(ctx, identifier, t, l.cacheTTL)
	return l.checkActive(t)
}

// Context resolves an identifier and returns a child context carrying
// the tenant.
func (l *Loader) Context(ctx context.Context, identifier string) (context.Context, error) {
	t, err := l.Load(ctx, identifier)
	if err != nil {
		return ctx, err
	}
	return WithTenant(ctx, t), nil
}

// Invalidate drops an identifier from the cache, e.g. after the tenant
// record changed.
func (l *Loader) Invalidate(ctx context.Context, identifier string) {
	l.cache.Delete(ctx, identifier)
}

// Close releases the loader's cache resources.
func (l *Loader) Close() error {
	return l.cache.Close()
}

func (l *Loader) checkActive(t *Tenant) (*Tenant, error) {
	if l.requireActive && !t.Active {
		return nil, ErrInactiveTenant
	}
	return t, nil
}
