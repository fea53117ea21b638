package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

// Dispatcher is what the controller needs from the dispatch engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, ch dispatch.Channel, audience dispatch.Audience, msg dispatch.Message) (*dispatch.Outcome, error)
}

// TemplateRenderer resolves a template reference into concrete content.
// Template storage lives outside this package.
type TemplateRenderer interface {
	Render(ctx context.Context, templateID uuid.UUID, vars map[string]string) (*Content, error)
}

// Controller manages the scheduled notification lifecycle.
type Controller struct {
	store      Store
	dispatcher Dispatcher
	renderer   TemplateRenderer
	logger     *slog.Logger

	tolerance     time.Duration
	batchSize     int
	retryAttempts uint64
	retryBackoff  time.Duration

	now func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithRenderer enables template-based notifications.
func WithRenderer(r TemplateRenderer) ControllerOption {
	return func(c *Controller) {
		c.renderer = r
	}
}

// WithTolerance sets how far past its scheduled time a notification is
// still considered due rather than stale.
func WithTolerance(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.tolerance = d
		}
	}
}

// WithBatchSize caps how many due notifications one poll returns.
func WithBatchSize(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithRetry sets the send retry budget: attempts additional tries after
// the first, spaced by a constant backoff.
func WithRetry(attempts uint64, backoff time.Duration) ControllerOption {
	return func(c *Controller) {
		c.retryAttempts = attempts
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithControllerLogger sets the logger for the Controller.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a schedule controller.
func NewController(store Store, dispatcher Dispatcher, opts ...ControllerOption) (*Controller, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if dispatcher == nil {
		return nil, ErrDispatcherNil
	}

	c := &Controller{
		store:         store,
		dispatcher:    dispatcher,
		logger:        slog.Default(),
		tolerance:     15 * time.Minute,
		batchSize:     100,
		retryAttempts: 2,
		retryBackoff:  5 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create validates and stores a pending notification.
func (c *Controller) Create(ctx context.Context, params CreateParams) (*Notification, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !params.Channel.Valid() {
		return nil, fmt.Errorf("%w: %q", dispatch.ErrInvalidChannel, params.Channel)
	}

	n := Notification{
		ID:           uuid.New(),
		TenantID:     params.TenantID,
		UserID:       params.UserID,
		Channel:      params.Channel,
		Content:      params.Content,
		TemplateID:   params.TemplateID,
		TemplateVars: params.TemplateVars,
		ScheduledAt:  params.ScheduledAt,
		CreatedAt:    c.now(),
	}
	if err := c.store.Create(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Cancel cancels a pending notification whose send time has not arrived
// yet. Anything else returns ErrNotCancellable and leaves the
// notification untouched.
func (c *Controller) Cancel(ctx context.Context, id uuid.UUID, actor, reason string) error {
	n, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}

	now := c.now()
	if !n.CanBeCancelled(now) {
		return fmt.Errorf("%w: status %s", ErrNotCancellable, n.Status())
	}

	// The pre-check can lose to a concurrent worker; the conditional
	// write is the authority.
	ok, err := c.store.MarkCancelled(ctx, id, now, actor, reason)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: resolved concurrently", ErrNotCancellable)
	}
	return nil
}

// Due returns the notifications ready to execute at the given moment.
func (c *Controller) Due(ctx context.Context, now time.Time) ([]Notification, error) {
	return c.store.Due(ctx, now, c.tolerance, c.batchSize)
}

// Execute sends one due notification. The notification is re-fetched
// first and silently skipped when no longer pending, so a cancel that
// landed after enqueueing wins without an error. Send failures burn the
// retry budget and then resolve the notification as failed.
func (c *Controller) Execute(ctx context.Context, id uuid.UUID) error {
	n, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.Status() != StatusPending {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "Skipping resolved notification",
			logger.NotificationID(n.ID),
			slog.String("status", string(n.Status())),
		)
		return nil
	}

	msg, err := c.buildMessage(ctx, n)
	if err != nil {
		if _, markErr := c.store.MarkFailed(ctx, id, c.now(), err.Error()); markErr != nil {
			return errors.Join(err, markErr)
		}
		return err
	}

	ctx = tenant.WithTenantID(ctx, n.TenantID)
	sendErr := retry.Do(ctx, retry.WithMaxRetries(c.retryAttempts, retry.NewConstant(c.retryBackoff)),
		func(ctx context.Context) error {
			outcome, err := c.dispatcher.Dispatch(ctx, n.Channel, dispatch.ToUser(n.UserID), *msg)
			if err != nil {
				return retry.RetryableError(err)
			}
			if !outcome.Success {
				return retry.RetryableError(errors.New(outcome.Error))
			}
			return nil
		})

	if sendErr != nil {
		// A cancelled or expired context is the caller shutting down, not
		// a delivery verdict. Leave the notification pending so the next
		// poll attempts it.
		if errors.Is(sendErr, context.Canceled) || errors.Is(sendErr, context.DeadlineExceeded) {
			return sendErr
		}
		c.logger.LogAttrs(ctx, slog.LevelWarn, "Scheduled notification failed",
			logger.NotificationID(n.ID),
			logger.TenantID(n.TenantID),
			logger.Error(sendErr),
		)
		_, err := c.store.MarkFailed(ctx, id, c.now(), sendErr.Error())
		return err
	}

	if _, err := c.store.MarkSent(ctx, id, c.now()); err != nil {
		return err
	}

	c.logger.LogAttrs(ctx, slog.LevelInfo, "Scheduled notification sent",
		logger.NotificationID(n.ID),
		logger.TenantID(n.TenantID),
		logger.Channel(n.Channel.String()),
	)
	return nil
}

// ExecuteDue runs one poll cycle sequentially: fetch due notifications
// and execute each. The Runner is the concurrent variant.
func (c *Controller) ExecuteDue(ctx context.Context) (int, error) {
	due, err := c.Due(ctx, c.now())
	if err != nil {
		return 0, err
	}

	executed := 0
	var errs []error
	for _, n := range due {
		if err := c.Execute(ctx, n.ID); err != nil {
			errs = append(errs, fmt.Errorf("notification %s: %w", n.ID, err))
			continue
		}
		executed++
	}
	return executed, errors.Join(errs...)
}

func (c *Controller) buildMessage(ctx context.Context, n *Notification) (*dispatch.Message, error) {
	content := n.Content
	if content == nil {
		if n.TemplateID == nil {
			return nil, ErrMissingContent
		}
		if c.renderer == nil {
			return nil, ErrNoTemplateRenderer
		}
		rendered, err := c.renderer.Render(ctx, *n.TemplateID, n.TemplateVars)
		if err != nil {
			return nil, fmt.Errorf("schedule: render template: %w", err)
		}
		content = rendered
	}

	return &dispatch.Message{
		Title:     content.Title,
		Body:      content.Body,
		ImageURL:  content.ImageURL,
		ActionURL: content.ActionURL,
		Data:      content.Data,
	}, nil
}
