package libdex

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOptionsDefaults(t *testing.T) {
	cfg := resolveOptions(nil)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.ThreadPoolWorkers)
	assert.Equal(t, defaultStackSize, cfg.DefaultStackSize)
	assert.True(t, cfg.Steal)
	assert.Nil(t, cfg.Logger)
	assert.False(t, cfg.MetricsEnabled)
}

func TestResolveOptionsAppliesInOrderLastWins(t *testing.T) {
	cfg := resolveOptions([]Option{
		WithThreadPoolWorkers(4),
		WithThreadPoolWorkers(8),
		WithSteal(false),
		WithMetricsEnabled(true),
	})
	assert.Equal(t, 8, cfg.ThreadPoolWorkers)
	assert.False(t, cfg.Steal)
	assert.True(t, cfg.MetricsEnabled)
}

func TestResolveOptionsSkipsNilOption(t *testing.T) {
	cfg := resolveOptions([]Option{nil, WithThreadPoolWorkers(2), nil})
	assert.Equal(t, 2, cfg.ThreadPoolWorkers)
}

func TestResolveOptionsClampsInvalidValues(t *testing.T) {
	cfg := resolveOptions([]Option{
		WithThreadPoolWorkers(0),
		WithDefaultStackSize(-1),
	})
	assert.Equal(t, 1, cfg.ThreadPoolWorkers)
	assert.Equal(t, defaultStackSize, cfg.DefaultStackSize)
}

func TestEnvOrDefaultIntIgnoresInvalidOrNonPositive(t *testing.T) {
	t.Setenv(envThreadPoolWorkers, "not-a-number")
	assert.Equal(t, 7, envOrDefaultInt(envThreadPoolWorkers, 7))

	t.Setenv(envThreadPoolWorkers, "-3")
	assert.Equal(t, 7, envOrDefaultInt(envThreadPoolWorkers, 7))

	t.Setenv(envThreadPoolWorkers, "12")
	assert.Equal(t, 12, envOrDefaultInt(envThreadPoolWorkers, 7))
}
