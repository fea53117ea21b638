// Package dispatch resolves an audience to concrete provider addresses and
// delivers a message across them, respecting provider batch-size ceilings
// and aggregating per-recipient results.
//
// An audience is a single user, a list of users, a provider topic, or a
// segment reference. Users and segments resolve to addresses through the
// recipient directory; topics pass straight through to the provider's
// topic-send primitive, which fans out on the provider side.
//
// Individual sends are partitioned into provider-limit-sized chunks, each
// sent independently and concurrently. A transport failure for one chunk
// marks every address in it as failed with the transport's error text and
// never aborts the remaining chunks. The aggregated outcome always
// satisfies SuccessCount+FailureCount == number of addresses attempted.
//
// After every dispatch the engine hands the failure map to the recipient
// health tracker (permanent-invalid cleanup) and the outcome to the
// delivery log, both best effort.
//
// Dispatch is not idempotent: calling it twice sends twice. Callers that
// need exactly-once behavior (queued jobs) must prevent duplicate
// invocation themselves.
//
// # Usage
//
//	engine, err := dispatch.NewEngine(directory,
//		dispatch.WithProvider(dispatch.ChannelPush, fcmClient),
//		dispatch.WithSegments(segmentStore, resolver),
//		dispatch.WithHealthTracker(tracker),
//		dispatch.WithRecorder(recorder),
//	)
//
//	outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush,
//		dispatch.ToSegmentSlug("vip-users"), msg)
package dispatch
