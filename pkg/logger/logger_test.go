package logger_test

import (
	"testing"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUse_CapturesAndRestores(t *testing.T) {
	before := logger.Logger

	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Use(zap.New(core))

	logger.Warnw("placeholder used", "job", "welcome")
	logger.Debugw("detail")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "placeholder used", entry.Message)
	assert.Equal(t, "welcome", entry.ContextMap()["job"])

	restore()
	assert.Same(t, before, logger.Logger)
}

func TestInitialize_RejectsUnknownLevel(t *testing.T) {
	restore := logger.Use(zap.NewNop())
	defer restore()

	assert.Error(t, logger.Initialize(logger.Options{Level: "chatty"}))
}

func TestInitialize_ConsoleAndJSON(t *testing.T) {
	restore := logger.Use(zap.NewNop())
	defer restore()

	require.NoError(t, logger.Initialize(logger.Options{Level: "debug"}))
	assert.True(t, logger.Logger.Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, logger.Initialize(logger.Options{JSON: true, Level: "warn"}))
	assert.False(t, logger.Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
}
