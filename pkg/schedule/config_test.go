package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/schedule"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := schedule.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 15*time.Minute, cfg.Tolerance)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Len(t, cfg.ControllerOptions(), 3)
	assert.Len(t, cfg.RunnerOptions(), 2)
}
