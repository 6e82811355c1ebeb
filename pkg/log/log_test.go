package log

import (
	"context"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	log := InitLogs()

	Configure(log, "debug", "json")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	Configure(log, "bogus", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestWithReqIDFromCtx(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "node-000000001")

	WithReqIDFromCtx(ctx, logger).Info("hello")

	entry := hook.LastEntry()
	assert.Equal(t, "node-000000001", entry.Data["request_id"])
}
