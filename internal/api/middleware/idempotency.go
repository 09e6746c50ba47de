package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/pulse/pkg/logger"
	"github.com/d60-Lab/pulse/pkg/response"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	// The pending claim must outlive a request, never a crash: if the process
	// dies before recording the response, retries are only locked out until
	// this expires.
	pendingTTL    = 30 * time.Second
	pendingMarker = "pending"
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// Idempotency replays the recorded response for POST requests that repeat an
// Idempotency-Key, so creation endpoints can be retried safely after a
// transport failure. Requests without the header pass through untouched; a
// key whose first attempt is still in flight gets a 409.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		redisKey := "idem:" + PrincipalID(c) + ":" + c.FullPath() + ":" + key

		ok, err := rdb.SetNX(ctx, redisKey, pendingMarker, pendingTTL).Result()
		if err != nil {
			logger.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			val, err := rdb.Get(ctx, redisKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				logger.Warn("idempotency store unavailable", zap.Error(err))
				c.Next()
				return
			}
			if val == pendingMarker {
				response.Conflict(c, "request with this idempotency key is still in flight")
				c.Abort()
				return
			}
			var stored storedResponse
			if err := json.Unmarshal([]byte(val), &stored); err == nil {
				c.Header("Content-Type", stored.ContentType)
				c.String(stored.Status, stored.Body)
				c.Abort()
				return
			}
			// Unreadable record; fall through and handle fresh.
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// Only completed attempts are replayable; server faults release the
		// key so the caller's retry actually re-executes.
		if w.Status() >= http.StatusInternalServerError {
			rdb.Del(ctx, redisKey)
			return
		}
		payload, err := json.Marshal(storedResponse{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.String(),
		})
		if err == nil {
			rdb.Set(ctx, redisKey, payload, idempotencyTTL)
		}
	}
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
