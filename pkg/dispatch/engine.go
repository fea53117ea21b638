package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/async"
	"github.com/dmitrymomot/notifykit/pkg/deliverylog"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/segment"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
)

// Directory resolves users to provider addresses and topic slugs to
// tenant-qualified topic names.
type Directory interface {
	Addresses(ctx context.Context, channel string, userIDs []uuid.UUID) ([]string, error)
	TopicName(ctx context.Context, slug string) (string, error)
}

// SegmentStore looks up stored segments referenced by an audience.
type SegmentStore interface {
	Get(ctx context.Context, id uuid.UUID) (*segment.Segment, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*segment.Segment, error)
}

// SegmentResolver runs a segment's conditions against the audience store.
type SegmentResolver interface {
	MatchingIDs(ctx context.Context, seg *segment.Segment) ([]uuid.UUID, error)
}

// FailureHandler consumes per-address failure text after a dispatch.
type FailureHandler interface {
	HandleFailures(ctx context.Context, failures map[string]string) int
}

// Recorder persists dispatch outcomes.
type Recorder interface {
	Record(ctx context.Context, params deliverylog.Params) (*deliverylog.Entry, error)
}

// Engine resolves audiences and delivers messages through per-channel
// provider clients.
type Engine struct {
	directory Directory
	providers map[Channel]ProviderClient

	segments SegmentStore
	resolver SegmentResolver

	health   FailureHandler
	recorder Recorder
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithProvider registers a provider client for a channel.
func WithProvider(ch Channel, client ProviderClient) EngineOption {
	return func(e *Engine) {
		e.providers[ch] = client
	}
}

// WithSegments enables segment-targeted audiences.
func WithSegments(store SegmentStore, resolver SegmentResolver) EngineOption {
	return func(e *Engine) {
		e.segments = store
		e.resolver = resolver
	}
}

// WithHealthTracker wires permanent-invalid address cleanup after each
// dispatch.
func WithHealthTracker(h FailureHandler) EngineOption {
	return func(e *Engine) {
		e.health = h
	}
}

// WithRecorder wires delivery logging after each dispatch.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithEngineLogger sets the logger for the Engine.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a dispatch engine over the given directory.
func NewEngine(directory Directory, opts ...EngineOption) (*Engine, error) {
	if directory == nil {
		return nil, ErrDirectoryNil
	}

	e := &Engine{
		directory: directory,
		providers: make(map[Channel]ProviderClient),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dispatch resolves the audience and delivers the message on the channel.
//
// Per-recipient provider failures never surface as an error: they are
// folded into the outcome's per-address results. An empty resolved
// audience fails soft with Success=false and an error string so every
// call site gets the same return shape. Errors are reserved for broken
// requests: unknown channel, missing provider, unresolvable segment.
func (e *Engine) Dispatch(ctx context.Context, ch Channel, audience Audience, msg Message) (*Outcome, error) {
	if !ch.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, ch)
	}
	provider, ok := e.providers[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProvider, ch)
	}

	var (
		outcome *Outcome
		userID  *uuid.UUID
	)

	switch audience.kind {
	case audienceTopic:
		topic, err := e.directory.TopicName(ctx, audience.topicSlug)
		if err != nil {
			return nil, err
		}
		outcome = e.sendToTopic(ctx, provider, topic, msg)

	default:
		userIDs, err := e.resolveUserIDs(ctx, audience)
		if err != nil {
			return nil, err
		}
		if len(userIDs) == 1 {
			userID = &userIDs[0]
		}

		var addresses []string
		if len(userIDs) > 0 {
			addresses, err = e.directory.Addresses(ctx, ch.String(), userIDs)
			if err != nil {
				return nil, err
			}
		}
		if len(addresses) == 0 {
			outcome = &Outcome{Success: false, Error: "no matching recipients"}
		} else {
			outcome = e.multicast(ctx, provider, addresses, msg)
		}
	}

	e.afterDispatch(ctx, ch, audience, msg, outcome, userID)
	return outcome, nil
}

// SyncTopic asserts the subscription state of the users' addresses on a
// topic. Both directions are idempotent: asserting an already-reached end
// state is not an error.
func (e *Engine) SyncTopic(ctx context.Context, ch Channel, topicSlug string, userIDs []uuid.UUID, subscribe bool) error {
	if !ch.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, ch)
	}
	provider, ok := e.providers[ch]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoProvider, ch)
	}

	topic, err := e.directory.TopicName(ctx, topicSlug)
	if err != nil {
		return err
	}
	addresses, err := e.directory.Addresses(ctx, ch.String(), userIDs)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}

	var errs []error
	for _, batch := range chunk(addresses, provider.Limits().TopicManage) {
		if subscribe {
			err = provider.SubscribeToTopic(ctx, batch, topic)
		} else {
			err = provider.UnsubscribeFromTopic(ctx, batch, topic)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) resolveUserIDs(ctx context.Context, audience Audience) ([]uuid.UUID, error) {
	switch audience.kind {
	case audienceUsers:
		if len(audience.userIDs) == 0 {
			return nil, fmt.Errorf("%w: no user ids", ErrInvalidAudience)
		}
		return audience.userIDs, nil

	case audienceSegmentID, audienceSegmentSlug, audienceSegment:
		if e.resolver == nil {
			return nil, ErrNoSegments
		}
		seg, err := e.lookupSegment(ctx, audience)
		if err != nil {
			return nil, err
		}
		return e.resolver.MatchingIDs(ctx, seg)
	}
	return nil, ErrInvalidAudience
}

func (e *Engine) lookupSegment(ctx context.Context, audience Audience) (*segment.Segment, error) {
	switch audience.kind {
	case audienceSegment:
		if audience.segment == nil {
			return nil, fmt.Errorf("%w: nil segment", ErrInvalidAudience)
		}
		return audience.segment, nil

	case audienceSegmentID:
		if e.segments == nil {
			return nil, ErrNoSegments
		}
		return e.segments.Get(ctx, audience.segmentID)

	case audienceSegmentSlug:
		if e.segments == nil {
			return nil, ErrNoSegments
		}
		tenantID, ok := tenant.IDFromContext(ctx)
		if !ok {
			return nil, tenant.ErrNoTenantInContext
		}
		return e.segments.GetBySlug(ctx, tenantID, audience.segmentSlug)
	}
	return nil, ErrInvalidAudience
}

// multicast partitions addresses into provider-limit-sized chunks and
// sends them concurrently. Each chunk is independent: a transport error
// fails only the addresses of that chunk.
func (e *Engine) multicast(ctx context.Context, provider ProviderClient, addresses []string, msg Message) *Outcome {
	chunks := chunk(addresses, provider.Limits().Send)

	futures := make([]*async.Future[map[string]SendResult], len(chunks))
	for i, batch := range chunks {
		futures[i] = async.Async(ctx, batch, func(ctx context.Context, batch []string) (map[string]SendResult, error) {
			results, err := provider.SendMulticast(ctx, batch, msg)
			if err != nil {
				failed := make(map[string]SendResult, len(batch))
				for _, address := range batch {
					failed[address] = SendResult{Success: false, Error: err.Error()}
				}
				return failed, nil
			}
			return results, nil
		})
	}

	outcome := &Outcome{Results: make(map[string]SendResult, len(addresses))}
	for i, f := range futures {
		results, err := f.Await()
		if err != nil {
			// Only a pre-canceled context gets here; the chunk was never
			// attempted by the provider.
			for _, address := range chunks[i] {
				outcome.Results[address] = SendResult{Success: false, Error: err.Error()}
				outcome.FailureCount++
			}
			continue
		}
		for address, res := range results {
			outcome.Results[address] = res
			if res.Success {
				outcome.SuccessCount++
			} else {
				outcome.FailureCount++
			}
		}
	}

	outcome.Success = outcome.FailureCount == 0
	return outcome
}

func (e *Engine) sendToTopic(ctx context.Context, provider ProviderClient, topic string, msg Message) *Outcome {
	externalID, err := provider.SendToTopic(ctx, topic, msg)
	if err != nil {
		return &Outcome{Success: false, Error: err.Error()}
	}
	return &Outcome{Success: true, ExternalID: externalID, SuccessCount: 1}
}

// afterDispatch runs the best-effort side effects: permanent-invalid
// cleanup and delivery logging. Neither can fail the dispatch.
func (e *Engine) afterDispatch(ctx context.Context, ch Channel, audience Audience, msg Message, outcome *Outcome, userID *uuid.UUID) {
	if e.health != nil {
		if failures := outcome.Failures(); len(failures) > 0 {
			e.health.HandleFailures(ctx, failures)
		}
	}

	if e.recorder != nil {
		tenantID, _ := tenant.IDFromContext(ctx)
		if _, err := e.recorder.Record(ctx, deliverylog.Params{
			TenantID:       tenantID,
			Channel:        ch.String(),
			UserID:         userID,
			Audience:       audience.String(),
			RecipientCount: outcome.Attempted(),
			SuccessCount:   outcome.SuccessCount,
			FailureCount:   outcome.FailureCount,
			Title:          msg.Title,
			Body:           msg.Body,
			Data:           msg.Data,
			Error:          outcome.Error,
		}); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to record dispatch outcome",
				logger.Channel(ch.String()),
				logger.Error(err),
			)
		}
	}
}

// chunk partitions addresses into batches of at most size. A non-positive
// size yields a single batch.
func chunk(addresses []string, size int) [][]string {
	if size <= 0 || len(addresses) <= size {
		return [][]string{addresses}
	}

	batches := make([][]string, 0, (len(addresses)+size-1)/size)
	for start := 0; start < len(addresses); start += size {
		end := min(start+size, len(addresses))
		batches = append(batches, addresses[start:end])
	}
	return batches
}
