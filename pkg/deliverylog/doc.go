// Package deliverylog persists immutable snapshots of dispatch outcomes.
//
// A single-recipient send produces one entry per call; batch and topic
// sends produce one aggregate entry embedding recipient, success and
// failure counts. Recording is best effort by design: the Recorder never
// propagates storage errors into the dispatch path, and returns nothing at
// all when logging is disabled.
//
// Message payloads are only persisted when the payload switch is on, so
// installations can trade debuggability against storage size and privacy.
//
// Retention is a separate periodic maintenance action (Sweep) that bulk
// deletes entries older than the configured age. It is never part of the
// per-call path.
package deliverylog
