package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	t.Run("default-level-is-info", func(t *testing.T) {
		log, err := New("", "console")
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("bad-level", func(t *testing.T) {
		_, err := New("loud", "json")
		assert.Error(t, err)
	})
}

func TestMustPanics(t *testing.T) {
	assert.Panics(t, func() { Must(New("loud", "")) })
}

func TestNamed(t *testing.T) {
	assert.NotNil(t, Named(nil, "x"))
	log, err := New("info", "json")
	require.NoError(t, err)
	assert.NotNil(t, Named(log, "svc"))
}
