package schedule

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/config"
)

// Config holds schedule worker settings loaded from the environment.
type Config struct {
	PollInterval  time.Duration `env:"SCHEDULE_POLL_INTERVAL" envDefault:"30s"`
	Tolerance     time.Duration `env:"SCHEDULE_TOLERANCE" envDefault:"15m"`
	BatchSize     int           `env:"SCHEDULE_BATCH_SIZE" envDefault:"100"`
	MaxConcurrent int           `env:"SCHEDULE_MAX_CONCURRENT" envDefault:"4"`
	RetryAttempts uint64        `env:"SCHEDULE_RETRY_ATTEMPTS" envDefault:"2"`
	RetryBackoff  time.Duration `env:"SCHEDULE_RETRY_BACKOFF" envDefault:"5s"`
}

// LoadConfig reads the worker settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ControllerOptions converts the config into controller options.
func (c Config) ControllerOptions() []ControllerOption {
	return []ControllerOption{
		WithTolerance(c.Tolerance),
		WithBatchSize(c.BatchSize),
		WithRetry(c.RetryAttempts, c.RetryBackoff),
	}
}

// RunnerOptions converts the config into runner options.
func (c Config) RunnerOptions() []RunnerOption {
	return []RunnerOption{
		WithPollInterval(c.PollInterval),
		WithMaxConcurrent(c.MaxConcurrent),
	}
}
