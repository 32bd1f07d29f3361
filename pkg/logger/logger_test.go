package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	defer func() { InfoLogger = nil }()

	assert.NotNil(t, L())
	Error("before init %d", 1)

	l, err := Init("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, l, L())

	_, err = Init("loud")
	assert.Error(t, err)

	l, err = Init("")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
