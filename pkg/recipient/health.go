package recipient

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// permanentMarkers are matched case-insensitively against provider error
// text. A hit means the address can never be delivered to again and must be
// removed. Quota and transient network errors never match.
var permanentMarkers = []string{
	"unregistered",
	"not_found",
	"not-registered",
	"invalid_argument",
	"invalidtoken",
	"invalid-registration",
}

// HealthTracker removes recipient addresses that providers report as
// permanently undeliverable.
type HealthTracker struct {
	store  Store
	logger *slog.Logger
}

// HealthTrackerOption configures a HealthTracker.
type HealthTrackerOption func(*HealthTracker)

// WithHealthLogger sets the logger for the HealthTracker.
func WithHealthLogger(logger *slog.Logger) HealthTrackerOption {
	return func(t *HealthTracker) {
		t.logger = logger
	}
}

// NewHealthTracker creates a tracker over the given token store.
func NewHealthTracker(store Store, opts ...HealthTrackerOption) (*HealthTracker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	t := &HealthTracker{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// HandleFailures classifies per-address failure text and deletes addresses
// with permanent errors. It is fire-and-forget relative to the dispatch
// that produced the failures: storage errors are logged, never returned,
// and there is no transactional coupling with in-flight sends. Returns the
// number of addresses removed.
func (t *HealthTracker) HandleFailures(ctx context.Context, failures map[string]string) int {
	if len(failures) == 0 {
		return 0
	}

	var invalid []string
	for address, errText := range failures {
		if IsPermanentError(errText) {
			invalid = append(invalid, address)
		}
	}
	if len(invalid) == 0 {
		return 0
	}

	removed, err := t.store.DeleteAddresses(ctx, invalid...)
	if err != nil {
		t.logger.LogAttrs(ctx, slog.LevelError, "Failed to remove permanently invalid addresses",
			slog.Int("address_count", len(invalid)),
			logger.Error(err),
		)
		return 0
	}

	t.logger.LogAttrs(ctx, slog.LevelInfo, "Removed permanently invalid addresses",
		slog.Int("removed", removed),
	)
	return removed
}

// IsPermanentError reports whether provider error text marks the recipient
// address as permanently undeliverable.
func IsPermanentError(errText string) bool {
	lowered := strings.ToLower(errText)
	for _, marker := range permanentMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
