// Package schedule manages deferred notifications: creating them in a
// pending state, cancelling them while still pending, and executing them
// when due through a dispatch collaborator.
//
// Execution is race-safe against concurrent cancellation. The worker
// re-fetches a notification right before sending and silently skips
// anything no longer pending, and the terminal transitions (sent,
// cancelled, failed) are conditional writes that no-op once another actor
// has resolved the notification first.
//
// The Runner polls the store on a fixed interval and executes due
// notifications with bounded concurrency:
//
//	ctrl, _ := schedule.NewController(store, dispatcher)
//	runner, _ := schedule.NewRunner(ctrl,
//		schedule.WithPollInterval(30*time.Second),
//		schedule.WithMaxConcurrent(4),
//	)
//	eg.Go(runner.Run(ctx))
package schedule
