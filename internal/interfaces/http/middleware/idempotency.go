package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/interfaces/http/response"
	"ccip-relay.backend/pkg/logger"
	"ccip-relay.backend/pkg/redis"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
	// DefaultLockDuration is the in-flight lock TTL when confirmation waits
	// are unbounded. The lock is refreshed while its request runs.
	DefaultLockDuration = 10 * time.Minute
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"

	// two approvals and the send itself can each wait for confirmations
	confirmationWaits = 3
	lockMargin        = 2 * time.Minute
)

var (
	redisEnabled = redis.Enabled
	redisGetJSON = redis.GetJSON
	redisSetJSON = redis.SetJSON
	redisSetNX   = redis.SetNX
	redisDel     = redis.Del
	redisExpire  = redis.Expire
)

// IdempotencyLockTTL sizes the in-flight lock so it outlives a transfer whose
// confirmation waits are each bounded by confirmationTimeout.
func IdempotencyLockTTL(confirmationTimeout time.Duration) time.Duration {
	if confirmationTimeout <= 0 {
		return DefaultLockDuration
	}
	ttl := confirmationWaits*confirmationTimeout + lockMargin
	if ttl < DefaultLockDuration {
		return DefaultLockDuration
	}
	return ttl
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response when a request repeats
// its Idempotency-Key. Without Redis it is a no-op, and Redis errors let the
// request through.
func IdempotencyMiddleware(lockTTL time.Duration) gin.HandlerFunc {
	if lockTTL <= 0 {
		lockTTL = DefaultLockDuration
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || !redisEnabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		operator, _ := GetOperator(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s", operator, c.FullPath(), key)

		var cached redis.CachedResponse
		err := redisGetJSON(ctx, storageKey, &cached)
		switch {
		case err == nil && cached.Status == 0:
			response.Abort(c, domainerrors.NewAppError(http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Request already in progress", domainerrors.ErrAlreadyExists))
			return
		case err == nil:
			c.Header(IdempotencyHitHeader, "true")
			c.Data(cached.Status, "application/json; charset=utf-8", []byte(cached.Body))
			c.Abort()
			return
		case !redis.IsNil(err):
			// fail open
			logger.Warn(ctx, "Idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		}

		locked, err := redisSetNX(ctx, storageKey, `{"status":0,"body":"`+processingMarker+`"}`, lockTTL)
		if err != nil {
			logger.Warn(ctx, "Idempotency lock failed", zap.Error(err))
			c.Next()
			return
		}
		if !locked {
			response.Abort(c, domainerrors.NewAppError(http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Request already in progress", domainerrors.ErrAlreadyExists))
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		release := holdLock(context.WithoutCancel(ctx), storageKey, lockTTL)
		c.Next()
		release()

		// Only settled answers are replayed; anything else frees the key for a retry.
		storeCtx := context.WithoutCancel(ctx)
		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			if err := redisSetJSON(storeCtx, storageKey, redis.CachedResponse{Status: status, Body: w.body.String()}, RetentionDuration); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		_ = redisDel(storeCtx, storageKey)
	}
}

// holdLock extends the lock every half TTL until the returned func is called.
func holdLock(ctx context.Context, key string, ttl time.Duration) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := redisExpire(ctx, key, ttl); err != nil {
					logger.Warn(ctx, "Failed to extend idempotency lock", zap.Error(err))
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
