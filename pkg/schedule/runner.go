package schedule

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Runner polls the store and executes due notifications with bounded
// concurrency.
type Runner struct {
	ctrl *Controller
	sem  chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
	// Protects the stopping flag and WaitGroup additions so Stop never
	// races a late wg.Add.
	stopMu sync.Mutex

	pollInterval time.Duration
	logger       *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerOptions)

type runnerOptions struct {
	pollInterval  time.Duration
	maxConcurrent int
	logger        *slog.Logger
}

// WithPollInterval sets how often the runner checks for due
// notifications.
func WithPollInterval(d time.Duration) RunnerOption {
	return func(o *runnerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithMaxConcurrent bounds how many notifications execute at once.
func WithMaxConcurrent(n int) RunnerOption {
	return func(o *runnerOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithRunnerLogger sets the logger for the Runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(o *runnerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewRunner creates a poll-loop runner over a controller.
func NewRunner(ctrl *Controller, opts ...RunnerOption) (*Runner, error) {
	if ctrl == nil {
		return nil, ErrControllerNil
	}

	options := &runnerOptions{
		pollInterval:  30 * time.Second,
		maxConcurrent: 4,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Runner{
		ctrl:         ctrl,
		sem:          make(chan struct{}, options.maxConcurrent),
		pollInterval: options.pollInterval,
		logger:       options.logger,
	}, nil
}

// Start begins polling in the background.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrRunnerStarted
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.stopping.Store(false)
	go r.loop()

	r.logger.InfoContext(ctx, "schedule runner started",
		slog.Duration("poll_interval", r.pollInterval),
		slog.Int("max_concurrent", cap(r.sem)))
	return nil
}

// Stop shuts the runner down and waits for in-flight executions.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrRunnerNotStarted
	}

	r.stopMu.Lock()
	r.stopping.Store(true)
	r.stopMu.Unlock()

	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()

	r.logger.Info("schedule runner stopped")
	return nil
}

// Run returns a function suitable for errgroup: start, block on ctx,
// stop.
func (r *Runner) Run(ctx context.Context) func() error {
	return func() error {
		if err := r.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return r.Stop()
	}
}

func (r *Runner) loop() {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Runner) poll() {
	due, err := r.ctrl.Due(r.ctx, time.Now())
	if err != nil {
		r.logger.LogAttrs(r.ctx, slog.LevelError, "Failed to query due notifications",
			logger.Error(err))
		return
	}

	for _, n := range due {
		select {
		case r.sem <- struct{}{}:
		case <-r.ctx.Done():
			return
		}

		r.stopMu.Lock()
		if r.stopping.Load() {
			r.stopMu.Unlock()
			<-r.sem
			return
		}
		r.wg.Add(1)
		r.stopMu.Unlock()

		go func(id uuid.UUID) {
			defer r.wg.Done()
			defer func() { <-r.sem }()

			// Detached from the poll context: Stop cancels r.ctx before
			// waiting, and an execution already in flight must finish and
			// record its real outcome instead of failing as cancelled.
			ctx := context.WithoutCancel(r.ctx)
			if err := r.ctrl.Execute(ctx, id); err != nil {
				r.logger.LogAttrs(ctx, slog.LevelError, "Failed to execute scheduled notification",
					logger.NotificationID(id),
					logger.Error(err))
			}
		}(n.ID)
	}
}
