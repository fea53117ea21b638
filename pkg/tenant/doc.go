// Package tenant provides multi-tenancy primitives for notification
// components: a minimal tenant model, context propagation, and a cached
// loader over a pluggable data source.
//
// # Architecture
//
// The package is built around three core concepts:
//
// 1. Provider - loads full tenant information from a data source
// 2. Loader - read-through cached resolution of identifiers to tenants
// 3. Context helpers - propagate the resolved tenant through call chains
//
// Every tenant-scoped operation (segment lookup by slug, delivery
// logging, topic naming) reads the tenant from the context rather than
// taking it as an ambient global.
//
// # Usage
//
//	import "github.com/dmitrymomot/notifykit/pkg/tenant"
//
//	provider := &myTenantProvider{}
//	loader, err := tenant.NewLoader(provider,
//		tenant.WithCacheTTL(10*time.Minute),
//		tenant.WithRequireActive(true),
//	)
//	if err != nil {
//		// handle error
//	}
//	defer loader.Close()
//
//	ctx, err := loader.Context(ctx, "acme")
//	if err != nil {
//		// handle error
//	}
//
//	// Downstream components:
//	id, ok := tenant.IDFromContext(ctx)
//
// When only the id is known (e.g. a worker re-hydrating a stored
// notification), WithTenantID attaches it directly without a lookup.
//
// # Caching
//
// The loader caches resolved tenants to reduce database lookups. The
// default in-memory cache handles TTL expiration and concurrent access.
// Custom cache implementations can be provided via the Cache interface
// for Redis or other backends.
//
// # Error Handling
//
// The package defines specific errors for common failure scenarios:
//
//   - ErrTenantNotFound: Tenant does not exist
//   - ErrInactiveTenant: Tenant exists but is not active
//   - ErrNoTenantInContext: Required tenant is missing from context
//   - ErrInvalidIdentifier: Malformed tenant identifier
package tenant
