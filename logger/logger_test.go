package logger_test

import (
	"testing"

	"github.com/qri-io/zarrdist/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerPrefix(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := logger.NewZap(zap.New(core)).WithPrefix("realign")

	l.Debugf("dropped %d", 1)
	l.Infof("plan has %d outputs", 4)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "plan has 4 outputs", entries[0].Message)
	assert.Equal(t, "realign", entries[0].LoggerName)
}

func TestNew(t *testing.T) {
	_, err := logger.New("loud")
	assert.Error(t, err)

	l, err := logger.New("warn")
	require.NoError(t, err)
	l.Debugf("not shown")
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, logger.NopLogger, logger.OrNop(nil))
}
