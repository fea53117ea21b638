package segment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

// Resolver compiles segments against an audience store and caches compiled
// predicates. Cache entries are keyed by segment id and update time, so an
// edited segment never serves a stale predicate.
type Resolver struct {
	audience AudienceStore
	preds    *cache.LRUCache[string, Predicate]
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverOptions)

type resolverOptions struct {
	cacheSize int
}

// WithPredicateCacheSize sets the capacity of the compiled-predicate cache.
// Default is 256.
func WithPredicateCacheSize(n int) ResolverOption {
	return func(o *resolverOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// NewResolver creates a resolver over the given audience store.
func NewResolver(audience AudienceStore, opts ...ResolverOption) (*Resolver, error) {
	if audience == nil {
		return nil, ErrStoreNil
	}

	options := &resolverOptions{cacheSize: 256}
	for _, opt := range opts {
		opt(options)
	}

	return &Resolver{
		audience: audience,
		preds:    cache.NewLRUCache[string, Predicate](options.cacheSize),
	}, nil
}

// MatchingIDs returns the ids of audience records matching the segment.
func (r *Resolver) MatchingIDs(ctx context.Context, seg *Segment) ([]uuid.UUID, error) {
	p, err := r.predicate(seg)
	if err != nil {
		return nil, err
	}
	return r.audience.Query(ctx, p)
}

// MatchCount returns the number of audience records matching the segment.
func (r *Resolver) MatchCount(ctx context.Context, seg *Segment) (int, error) {
	p, err := r.predicate(seg)
	if err != nil {
		return 0, err
	}
	return r.audience.Count(ctx, p)
}

// RefreshCount recomputes and stamps the segment's cached audience count.
// The caller persists the updated segment.
func (r *Resolver) RefreshCount(ctx context.Context, seg *Segment) error {
	count, err := r.MatchCount(ctx, seg)
	if err != nil {
		return err
	}
	seg.SetCachedCount(count)
	return nil
}

func (r *Resolver) predicate(seg *Segment) (Predicate, error) {
	key := fmt.Sprintf("%s:%d", seg.ID, seg.UpdatedAt.UnixNano())
	if p, ok := r.preds.Get(key); ok {
		return p, nil
	}

	p, err := Compile(seg.Conditions, r.audience.Fields())
	if err != nil {
		return nil, err
	}
	r.preds.Put(key, p)
	return p, nil
}
