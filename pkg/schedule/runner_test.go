package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/schedule"
)

func TestRunner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("nil controller", func(t *testing.T) {
		t.Parallel()

		runner, err := schedule.NewRunner(nil)
		require.ErrorIs(t, err, schedule.ErrControllerNil)
		assert.Nil(t, runner)
	})

	t.Run("executes due notifications", func(t *testing.T) {
		t.Parallel()

		store := schedule.NewMemoryStore()
		sent := make(chan struct{}, 1)

		dispatcher := &mockDispatcher{}
		dispatcher.On("Dispatch", mock.Anything, dispatch.ChannelPush, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { sent <- struct{}{} }).
			Return(&dispatch.Outcome{Success: true, SuccessCount: 1}, nil)

		ctrl, err := schedule.NewController(store, dispatcher)
		require.NoError(t, err)

		n, err := ctrl.Create(ctx, pendingParams(time.Now().Add(-time.Minute)))
		require.NoError(t, err)

		runner, err := schedule.NewRunner(ctrl,
			schedule.WithPollInterval(10*time.Millisecond),
			schedule.WithMaxConcurrent(2))
		require.NoError(t, err)

		require.NoError(t, runner.Start(ctx))

		select {
		case <-sent:
		case <-time.After(2 * time.Second):
			t.Fatal("notification was not executed")
		}

		require.NoError(t, runner.Stop())

		stored, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusSent, stored.Status())
	})

	t.Run("stop waits for in-flight execution to record its outcome", func(t *testing.T) {
		t.Parallel()

		store := schedule.NewMemoryStore()
		started := make(chan struct{}, 4)
		release := make(chan struct{})

		dispatcher := &mockDispatcher{}
		dispatcher.On("Dispatch", mock.Anything, dispatch.ChannelPush, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				select {
				case started <- struct{}{}:
				default:
				}
				<-release
			}).
			Return(&dispatch.Outcome{Success: true, SuccessCount: 1}, nil)

		ctrl, err := schedule.NewController(store, dispatcher)
		require.NoError(t, err)

		n, err := ctrl.Create(ctx, pendingParams(time.Now().Add(-time.Minute)))
		require.NoError(t, err)

		runner, err := schedule.NewRunner(ctrl, schedule.WithPollInterval(10*time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, runner.Start(ctx))

		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("notification was not picked up")
		}

		// Stop while the dispatch is blocked mid-flight, then let it finish.
		stopped := make(chan error, 1)
		go func() { stopped <- runner.Stop() }()
		close(release)

		select {
		case err := <-stopped:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("runner did not stop")
		}

		stored, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusSent, stored.Status())
		assert.Empty(t, stored.FailureError)
	})

	t.Run("start twice fails", func(t *testing.T) {
		t.Parallel()

		ctrl, err := schedule.NewController(schedule.NewMemoryStore(), &mockDispatcher{})
		require.NoError(t, err)

		runner, err := schedule.NewRunner(ctrl, schedule.WithPollInterval(time.Hour))
		require.NoError(t, err)

		require.NoError(t, runner.Start(ctx))
		require.ErrorIs(t, runner.Start(ctx), schedule.ErrRunnerStarted)
		require.NoError(t, runner.Stop())
	})

	t.Run("stop without start fails", func(t *testing.T) {
		t.Parallel()

		ctrl, err := schedule.NewController(schedule.NewMemoryStore(), &mockDispatcher{})
		require.NoError(t, err)

		runner, err := schedule.NewRunner(ctrl)
		require.NoError(t, err)

		require.ErrorIs(t, runner.Stop(), schedule.ErrRunnerNotStarted)
	})
}
