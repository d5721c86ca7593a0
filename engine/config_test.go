package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/engine"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := engine.LoadConfig(strings.NewReader(`
url: postgres://app@db/orders
isolation_level: repeatable read
plugins: [stats]
slow_threshold: 250ms
hide_parameters: true
args:
  application_name: billing
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres://app@db/orders", cfg.URL)
	assert.Equal(t, "repeatable read", cfg.IsolationLevel)
	assert.Equal(t, []string{"stats"}, cfg.Plugins)
	assert.Equal(t, engine.Duration(250*time.Millisecond), cfg.SlowThreshold)
	assert.True(t, cfg.HideParameters)
	assert.Equal(t, "billing", cfg.Args["application_name"])
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := engine.LoadConfig(strings.NewReader("url: x\nbogus: 1\n"))
	require.Error(t, err)
}

func TestCreateFromConfig(t *testing.T) {
	t.Parallel()

	registerTestDialect(t, "etconfig")
	cfg := engine.Config{
		URL:           "etconfig://localhost/db",
		Plugins:       []string{"stats"},
		SlowThreshold: engine.Duration(50 * time.Millisecond),
	}
	e, err := engine.CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "etconfig", e.URL().Backend())

	_, err = engine.CreateFromConfig(engine.Config{})
	require.Error(t, err, "config without url")
}

func TestCreateFromConfigThresholdWithoutStats(t *testing.T) {
	t.Parallel()

	registerTestDialect(t, "etconfignostats")
	cfg := engine.Config{
		URL:           "etconfignostats://localhost/db",
		SlowThreshold: engine.Duration(50 * time.Millisecond),
	}

	// Without the stats plugin the threshold stays out of the
	// construction arguments instead of failing validation.
	e, err := engine.CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, e)
}
