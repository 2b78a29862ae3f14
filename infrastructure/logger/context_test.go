package logger_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	base := mustTestLogger(t)
	scoped := base.With(logger.String("request_id", "abc-123"), logger.Domain("example.com"))

	ctx := logger.WithContext(context.Background(), scoped)

	assert.Same(t, scoped, logger.FromContext(ctx))
	assert.NotSame(t, base, logger.FromContext(ctx))
}

func TestFromContext_FallbackIsSingleton(t *testing.T) {
	t.Parallel()

	a := logger.FromContext(context.Background())
	b := logger.FromContext(context.Background())

	require.NotNil(t, a)
	assert.Same(t, a, b)

	// warn-level fallback filters these but must not panic
	a.Debug("debug message")
	a.Warn("warn message", logger.Signal("reviews"))
}

func mustTestLogger(t *testing.T) logger.Logger {
	t.Helper()

	l, err := logger.New(logger.Config{Level: "warn", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	return l
}
