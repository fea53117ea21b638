// Package recipient manages the provider addresses a notification can be
// delivered to: push device tokens, phone numbers, or any other opaque
// address a provider understands.
//
// Addresses are unique per (tenant, address) and owned by a user. A
// Directory resolves user ids to their addresses for a channel and maps
// topic slugs to tenant-qualified provider topic names.
//
// The HealthTracker consumes per-address failure text reported by a
// provider after a dispatch and removes addresses reported as permanently
// undeliverable. The removal is deliberately decoupled from the dispatch
// that triggered it: a concurrent send racing a removal may still have
// succeeded, which is acceptable because removal only prevents future
// sends.
//
// # Usage
//
//	store := recipient.NewMemoryStore()
//	directory := recipient.NewDirectory(store)
//	tracker := recipient.NewHealthTracker(store)
//
//	addrs, err := directory.Addresses(ctx, "push", userIDs)
//	removed := tracker.HandleFailures(ctx, outcome.Failures())
package recipient
