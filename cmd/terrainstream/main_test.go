package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/runnerlab/terrainstream/internal/config"
	"github.com/runnerlab/terrainstream/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewSelectorByName(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	sel, closeFn, err := newSelector(config.StreamConfig{Selector: "random"}, rng, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &world.RandomSelector{}, sel)
	closeFn()

	sel, closeFn, err = newSelector(config.StreamConfig{Selector: "cycle"}, rng, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, world.CycleSelector{}, sel)
	closeFn()

	script := filepath.Join(t.TempDir(), "select.lua")
	require.NoError(t, os.WriteFile(script, []byte(`function select_template(keys) return keys[1] end`), 0o644))
	sel, closeFn, err = newSelector(config.StreamConfig{Selector: "lua", SelectorScript: script}, rng, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, sel)
	closeFn()

	_, _, err = newSelector(config.StreamConfig{Selector: "lua", SelectorScript: filepath.Join(t.TempDir(), "none.lua")}, rng, zap.NewNop())
	assert.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := newLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zap.DebugLevel))
	}

	log, err := newLogger(config.LoggingConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}
