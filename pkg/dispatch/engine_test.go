package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/deliverylog"
	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/segment"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Addresses(ctx context.Context, channel string, userIDs []uuid.UUID) ([]string, error) {
	args := m.Called(ctx, channel, userIDs)
	if addrs := args.Get(0); addrs != nil {
		return addrs.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) TopicName(ctx context.Context, slug string) (string, error) {
	args := m.Called(ctx, slug)
	return args.String(0), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) MatchingIDs(ctx context.Context, seg *segment.Segment) ([]uuid.UUID, error) {
	args := m.Called(ctx, seg)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSegmentStore struct {
	mock.Mock
}

func (m *mockSegmentStore) Get(ctx context.Context, id uuid.UUID) (*segment.Segment, error) {
	args := m.Called(ctx, id)
	if seg := args.Get(0); seg != nil {
		return seg.(*segment.Segment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSegmentStore) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*segment.Segment, error) {
	args := m.Called(ctx, tenantID, slug)
	if seg := args.Get(0); seg != nil {
		return seg.(*segment.Segment), args.Error(1)
	}
	return nil, args.Error(1)
}

func newSegment(name string) *segment.Segment {
	cond := segment.Group("and")
	seg := segment.New(uuid.New(), name, &cond)
	return &seg
}

func addresses(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("token-%04d", i)
	}
	return out
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("nil directory", func(t *testing.T) {
		t.Parallel()

		engine, err := dispatch.NewEngine(nil)
		require.ErrorIs(t, err, dispatch.ErrDirectoryNil)
		assert.Nil(t, engine)
	})
}

func TestEngineDispatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userID := uuid.New()

	t.Run("invalid channel", func(t *testing.T) {
		t.Parallel()

		engine, err := dispatch.NewEngine(&mockDirectory{})
		require.NoError(t, err)

		_, err = engine.Dispatch(ctx, dispatch.Channel("carrier-pigeon"), dispatch.ToUser(userID), dispatch.Message{})
		require.ErrorIs(t, err, dispatch.ErrInvalidChannel)
	})

	t.Run("no provider for channel", func(t *testing.T) {
		t.Parallel()

		engine, err := dispatch.NewEngine(&mockDirectory{})
		require.NoError(t, err)

		_, err = engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.ErrorIs(t, err, dispatch.ErrNoProvider)
	})

	t.Run("single user success", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", []uuid.UUID{userID}).
			Return([]string{"token-a", "token-b"}, nil)

		client := dispatch.NewRecordingClient()
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{Title: "hi"})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, 2, outcome.SuccessCount)
		assert.Zero(t, outcome.FailureCount)
		assert.Len(t, client.Sent, 2)
		dir.AssertExpectations(t)
	})

	t.Run("empty audience fails soft", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).Return([]string{}, nil)

		engine, err := dispatch.NewEngine(dir,
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, "no matching recipients", outcome.Error)
		assert.Zero(t, outcome.Attempted())
	})

	t.Run("chunks by provider send limit", func(t *testing.T) {
		t.Parallel()

		addrs := addresses(1200)
		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).Return(addrs, nil)

		client := dispatch.NewRecordingClient(dispatch.WithLimits(dispatch.Limits{Send: 500, TopicManage: 1000}))
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, 1200, outcome.SuccessCount)
		assert.Equal(t, 3, client.Batches())
	})

	t.Run("failed chunk fails only its addresses", func(t *testing.T) {
		t.Parallel()

		addrs := addresses(1200)
		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).Return(addrs, nil)

		client := dispatch.NewRecordingClient(
			dispatch.WithLimits(dispatch.Limits{Send: 500, TopicManage: 1000}),
			dispatch.FailBatch(1, errors.New("connection reset")),
		)
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, 700, outcome.SuccessCount)
		assert.Equal(t, 500, outcome.FailureCount)
		assert.Equal(t, len(addrs), outcome.SuccessCount+outcome.FailureCount)
		for _, res := range outcome.Failures() {
			assert.Equal(t, "connection reset", res)
		}
	})

	t.Run("per address failures aggregate", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).
			Return([]string{"token-a", "token-b", "token-c"}, nil)

		client := dispatch.NewRecordingClient(
			dispatch.FailAddress("token-b", "messaging/registration-token-not-registered"),
		)
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, 2, outcome.SuccessCount)
		assert.Equal(t, 1, outcome.FailureCount)
		assert.Equal(t, map[string]string{
			"token-b": "messaging/registration-token-not-registered",
		}, outcome.Failures())
	})

	t.Run("segment audience without resolver", func(t *testing.T) {
		t.Parallel()

		engine, err := dispatch.NewEngine(&mockDirectory{},
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()))
		require.NoError(t, err)

		_, err = engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToSegmentID(uuid.New()), dispatch.Message{})
		require.ErrorIs(t, err, dispatch.ErrNoSegments)
	})

	t.Run("segment audience resolves to users", func(t *testing.T) {
		t.Parallel()

		seg := newSegment("VIP Users")
		matched := []uuid.UUID{uuid.New(), uuid.New()}

		store := &mockSegmentStore{}
		store.On("Get", mock.Anything, seg.ID).Return(seg, nil)

		resolver := &mockResolver{}
		resolver.On("MatchingIDs", mock.Anything, seg).Return(matched, nil)

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", matched).
			Return([]string{"token-a", "token-b"}, nil)

		engine, err := dispatch.NewEngine(dir,
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()),
			dispatch.WithSegments(store, resolver))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToSegmentID(seg.ID), dispatch.Message{})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, 2, outcome.SuccessCount)
		store.AssertExpectations(t)
		resolver.AssertExpectations(t)
	})

	t.Run("segment slug needs tenant context", func(t *testing.T) {
		t.Parallel()

		resolver := &mockResolver{}
		engine, err := dispatch.NewEngine(&mockDirectory{},
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()),
			dispatch.WithSegments(&mockSegmentStore{}, resolver))
		require.NoError(t, err)

		_, err = engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToSegmentSlug("vip-users"), dispatch.Message{})
		require.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("segment with no matches fails soft", func(t *testing.T) {
		t.Parallel()

		seg := newSegment("Nobody")
		store := &mockSegmentStore{}
		store.On("Get", mock.Anything, seg.ID).Return(seg, nil)

		resolver := &mockResolver{}
		resolver.On("MatchingIDs", mock.Anything, seg).Return([]uuid.UUID{}, nil)

		engine, err := dispatch.NewEngine(&mockDirectory{},
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()),
			dispatch.WithSegments(store, resolver))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToSegmentID(seg.ID), dispatch.Message{})
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, "no matching recipients", outcome.Error)
	})

	t.Run("topic dispatch", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("TopicName", mock.Anything, "deals").Return("acme.deals", nil)

		client := dispatch.NewRecordingClient()
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToTopic("deals"), dispatch.Message{Title: "sale"})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.NotEmpty(t, outcome.ExternalID)
		require.Len(t, client.TopicSends, 1)
		assert.Equal(t, "acme.deals", client.TopicSends[0].Topic)
	})

	t.Run("health tracker receives failures", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).
			Return([]string{"token-a", "token-b"}, nil)

		client := dispatch.NewRecordingClient(dispatch.FailAddress("token-b", "unregistered"))

		var seen map[string]string
		engine, err := dispatch.NewEngine(dir,
			dispatch.WithProvider(dispatch.ChannelPush, client),
			dispatch.WithHealthTracker(failureHandlerFunc(func(ctx context.Context, failures map[string]string) int {
				seen = failures
				return len(failures)
			})))
		require.NoError(t, err)

		_, err = engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"token-b": "unregistered"}, seen)
	})

	t.Run("recorder receives outcome", func(t *testing.T) {
		t.Parallel()

		tenantID := uuid.New()
		tctx := tenant.WithTenantID(ctx, tenantID)

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).
			Return([]string{"token-a"}, nil)

		var recorded deliverylog.Params
		engine, err := dispatch.NewEngine(dir,
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()),
			dispatch.WithRecorder(recorderFunc(func(ctx context.Context, params deliverylog.Params) (*deliverylog.Entry, error) {
				recorded = params
				return nil, nil
			})))
		require.NoError(t, err)

		_, err = engine.Dispatch(tctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{Title: "hey"})
		require.NoError(t, err)
		assert.Equal(t, tenantID, recorded.TenantID)
		assert.Equal(t, "push", recorded.Channel)
		require.NotNil(t, recorded.UserID)
		assert.Equal(t, userID, *recorded.UserID)
		assert.Equal(t, 1, recorded.SuccessCount)
		assert.Equal(t, "hey", recorded.Title)
	})

	t.Run("recorder error does not fail dispatch", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("Addresses", mock.Anything, "push", mock.Anything).
			Return([]string{"token-a"}, nil)

		engine, err := dispatch.NewEngine(dir,
			dispatch.WithProvider(dispatch.ChannelPush, dispatch.NewRecordingClient()),
			dispatch.WithRecorder(recorderFunc(func(ctx context.Context, params deliverylog.Params) (*deliverylog.Entry, error) {
				return nil, errors.New("storage down")
			})))
		require.NoError(t, err)

		outcome, err := engine.Dispatch(ctx, dispatch.ChannelPush, dispatch.ToUser(userID), dispatch.Message{})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
	})
}

func TestEngineSyncTopic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userID := uuid.New()

	t.Run("subscribes in topic manage chunks", func(t *testing.T) {
		t.Parallel()

		addrs := addresses(25)
		dir := &mockDirectory{}
		dir.On("TopicName", mock.Anything, "deals").Return("acme.deals", nil)
		dir.On("Addresses", mock.Anything, "push", mock.Anything).Return(addrs, nil)

		client := dispatch.NewRecordingClient(dispatch.WithLimits(dispatch.Limits{Send: 500, TopicManage: 10}))
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		require.NoError(t, engine.SyncTopic(ctx, dispatch.ChannelPush, "deals", []uuid.UUID{userID}, true))
		require.Len(t, client.Subscriptions, 3)
		assert.Len(t, client.Subscriptions[0].Addresses, 10)
		assert.Len(t, client.Subscriptions[2].Addresses, 5)
		assert.True(t, client.Subscriptions[0].Subscribe)
	})

	t.Run("unsubscribe with no addresses is a no-op", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{}
		dir.On("TopicName", mock.Anything, "deals").Return("acme.deals", nil)
		dir.On("Addresses", mock.Anything, "push", mock.Anything).Return([]string{}, nil)

		client := dispatch.NewRecordingClient()
		engine, err := dispatch.NewEngine(dir, dispatch.WithProvider(dispatch.ChannelPush, client))
		require.NoError(t, err)

		require.NoError(t, engine.SyncTopic(ctx, dispatch.ChannelPush, "deals", []uuid.UUID{userID}, false))
		assert.Empty(t, client.Subscriptions)
	})
}

type failureHandlerFunc func(ctx context.Context, failures map[string]string) int

func (f failureHandlerFunc) HandleFailures(ctx context.Context, failures map[string]string) int {
	return f(ctx, failures)
}

type recorderFunc func(ctx context.Context, params deliverylog.Params) (*deliverylog.Entry, error)

func (f recorderFunc) Record(ctx context.Context, params deliverylog.Params) (*deliverylog.Entry, error) {
	return f(ctx, params)
}
