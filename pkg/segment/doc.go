// Package segment provides reusable audience definitions expressed as
// recursive condition trees, and a compiler that turns a tree into a
// storage-agnostic predicate.
//
// A segment stores a boolean expression over audience record fields as a
// tree of groups (and/or) and leaves (field comparisons). The compiler
// translates the tree into a Predicate AST that can be evaluated in memory
// against map records or translated into a concrete storage query by an
// adapter, which keeps the compiler testable without a live database.
//
// # Usage
//
//	fields := store.Fields()
//	pred, err := segment.Compile(seg.Conditions, fields)
//	if err != nil {
//		// malformed condition tree
//	}
//	ids, err := store.Query(ctx, pred)
//
// A Resolver ties a compiled segment to an AudienceStore and caches compiled
// predicates, invalidated whenever the segment definition changes:
//
//	resolver := segment.NewResolver(store)
//	ids, err := resolver.MatchingIDs(ctx, seg)
//
// # Condition tree shape
//
// The persisted JSON form is:
//
//	Group = { "operator": "and"|"or", "conditions": [ Leaf | Group, ... ] }
//	Leaf  = { "field": "...", "filterType": "text"|"number"|"date"|"set",
//	          "type": "<operator>", "filter": v, "filterTo": v, "values": [...] }
//
// An empty or absent tree matches the whole audience. A leaf referencing an
// unknown field contributes no constraint. Malformed leaves (unparsable
// dates, unknown filter types or operators) fail compilation with
// ErrInvalidCondition rather than being silently dropped.
package segment
