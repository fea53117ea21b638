package deliverylog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Config controls recorder behavior.
type Config struct {
	Enabled      bool          `env:"DELIVERY_LOG_ENABLED" envDefault:"true"`
	StorePayload bool          `env:"DELIVERY_LOG_STORE_PAYLOAD" envDefault:"false"`
	RetainFor    time.Duration `env:"DELIVERY_LOG_RETAIN_FOR" envDefault:"720h"`
}

// Params describes one dispatch outcome to record.
type Params struct {
	TenantID       uuid.UUID
	Channel        string
	UserID         *uuid.UUID
	Audience       string
	RecipientCount int
	SuccessCount   int
	FailureCount   int
	Title          string
	Body           string
	Data           map[string]string
	Error          string
}

// Recorder writes dispatch outcomes to storage and prunes them by age.
type Recorder struct {
	storage Storage
	cfg     Config
	logger  *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger for the Recorder.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorderFromEnv creates a recorder configured from the environment.
func NewRecorderFromEnv(storage Storage, opts ...RecorderOption) (*Recorder, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewRecorder(storage, cfg, opts...)
}

// NewRecorder creates a recorder over the given storage.
func NewRecorder(storage Storage, cfg Config, opts ...RecorderOption) (*Recorder, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	r := &Recorder{
		storage: storage,
		cfg:     cfg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record persists one dispatch outcome. Returns nil, nil when logging is
// disabled. Storage errors are logged and swallowed so a logging outage
// never breaks the dispatch path.
func (r *Recorder) Record(ctx context.Context, params Params) (*Entry, error) {
	if !r.cfg.Enabled {
		return nil, nil
	}

	entry := Entry{
		ID:             uuid.New(),
		TenantID:       params.TenantID,
		Channel:        params.Channel,
		UserID:         params.UserID,
		Audience:       params.Audience,
		RecipientCount: params.RecipientCount,
		SuccessCount:   params.SuccessCount,
		FailureCount:   params.FailureCount,
		Status:         deriveStatus(params),
		Error:          params.Error,
		CreatedAt:      time.Now(),
	}
	if r.cfg.StorePayload {
		entry.Title = params.Title
		entry.Body = params.Body
		entry.Data = params.Data
	}

	if err := r.storage.Insert(ctx, entry); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "Failed to store delivery log entry",
			logger.TenantID(params.TenantID),
			logger.Channel(params.Channel),
			logger.Error(err),
		)
		return nil, nil
	}
	return &entry, nil
}

// Sweep removes entries older than the configured retention age. Meant to
// be wired into a periodic maintenance job, never the per-call path.
func (r *Recorder) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-r.cfg.RetainFor)
	removed, err := r.storage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "Pruned delivery log",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff),
		)
	}
	return removed, nil
}

func deriveStatus(params Params) Status {
	switch {
	case params.FailureCount == 0 && params.Error == "":
		return StatusSent
	case params.SuccessCount > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}
