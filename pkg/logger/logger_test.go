package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetLogger(t *testing.T) {
	t.Helper()
	origBuild := buildLogger
	log = nil
	once = sync.Once{}
	t.Cleanup(func() {
		buildLogger = origBuild
		log = nil
		once = sync.Once{}
	})
}

func TestInitAndContextLogging(t *testing.T) {
	resetLogger(t)
	Init("development")
	require.NotNil(t, GetLogger())

	ctx := context.WithValue(context.Background(), "request_id", "req-1")
	Info(ctx, "info")
	Debug(ctx, "debug")
	Warn(ctx, "warn")
	Error(ctx, "error")
	LogRequest(ctx, "GET", "/health", 200, 10*time.Millisecond, "127.0.0.1")
}

func TestGetLogger_NopBeforeInit(t *testing.T) {
	resetLogger(t)
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, WithContext(nil))
}

func TestInit_Production(t *testing.T) {
	resetLogger(t)
	Init("production")
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, WithContext(context.Background()))
	SetLevel(zapcore.WarnLevel)
	assert.Equal(t, zapcore.WarnLevel, atom.Level())
}

func TestInit_PanicWhenLoggerBuildFails(t *testing.T) {
	resetLogger(t)
	buildLogger = func(zap.Config) (*zap.Logger, error) {
		return nil, errors.New("build failed")
	}

	assert.Panics(t, func() { Init("production") })
}

func TestWithContext_AttachesRequestAndTransferIDs(t *testing.T) {
	resetLogger(t)
	core, logs := observer.New(zapcore.DebugLevel)
	buildLogger = func(zap.Config) (*zap.Logger, error) {
		return zap.New(core), nil
	}
	Init("production")

	ctx := context.WithValue(context.Background(), RequestIDKey, "typed-req")
	ctx = ContextWithTransferID(ctx, "tr-1")
	Info(ctx, "transfer submitted", zap.String("tx_hash", "0xabc"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "typed-req", fields["request_id"])
	assert.Equal(t, "tr-1", fields["transfer_id"])
	assert.Equal(t, "0xabc", fields["tx_hash"])
}
