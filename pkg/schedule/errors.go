package schedule

import "errors"

var (
	// ErrStoreNil is returned when a nil store is provided to
	// NewController.
	ErrStoreNil = errors.New("schedule: store cannot be nil")

	// ErrDispatcherNil is returned when a nil dispatcher is provided to
	// NewController.
	ErrDispatcherNil = errors.New("schedule: dispatcher cannot be nil")

	// ErrControllerNil is returned when a nil controller is provided to
	// NewRunner.
	ErrControllerNil = errors.New("schedule: controller cannot be nil")

	// ErrMissingRecipient is returned when a notification is created
	// without a recipient.
	ErrMissingRecipient = errors.New("schedule: recipient is required")

	// ErrMissingContent is returned when a notification is created with
	// neither inline content nor a template, or with both.
	ErrMissingContent = errors.New("schedule: exactly one of content or template is required")

	// ErrMissingScheduleTime is returned when a notification is created
	// without a scheduled time.
	ErrMissingScheduleTime = errors.New("schedule: scheduled time is required")

	// ErrNotificationNotFound is returned when a notification does not
	// exist.
	ErrNotificationNotFound = errors.New("schedule: notification not found")

	// ErrNotCancellable is returned when a cancel targets a notification
	// that is not pending or whose send time has already arrived.
	ErrNotCancellable = errors.New("schedule: notification cannot be cancelled")

	// ErrNoTemplateRenderer is returned when a template-based notification
	// is executed but the controller has no renderer.
	ErrNoTemplateRenderer = errors.New("schedule: no template renderer configured")

	// ErrRunnerStarted is returned when Start is called on a running
	// runner.
	ErrRunnerStarted = errors.New("schedule: runner already started")

	// ErrRunnerNotStarted is returned when Stop is called on a runner that
	// was never started.
	ErrRunnerNotStarted = errors.New("schedule: runner not started")
)
