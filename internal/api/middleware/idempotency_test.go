package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idemRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { require.NoError(t, rdb.Close()) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/things", Idempotency(rdb), handler)
	return r, srv
}

func postThing(r *gin.Engine, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	var calls int32
	r, _ := idemRouter(t, func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"attempt": n})
	})

	first := postThing(r, "k1")
	assert.Equal(t, http.StatusCreated, first.Code)

	second := postThing(r, "k1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "handler must run once per key")

	// A different key executes the handler again.
	third := postThing(r, "k2")
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.NotEqual(t, first.Body.String(), third.Body.String())
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	var calls int32
	r, _ := idemRouter(t, func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.Status(http.StatusCreated)
	})

	postThing(r, "")
	postThing(r, "")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestIdempotencyPendingKeyConflicts(t *testing.T) {
	r, srv := idemRouter(t, func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	// Simulate a first attempt still in flight.
	require.NoError(t, srv.Set("idem::/things:k3", "pending"))

	w := postThing(r, "k3")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdempotencyPendingMarkerExpires(t *testing.T) {
	var calls int32
	r, srv := idemRouter(t, func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.Status(http.StatusCreated)
	})

	// A first attempt claimed the key and then crashed before recording a
	// response; its claim must not lock the key out for good.
	require.NoError(t, srv.Set("idem::/things:k5", "pending"))
	srv.SetTTL("idem::/things:k5", 30*time.Second)

	w := postThing(r, "k5")
	assert.Equal(t, http.StatusConflict, w.Code)

	srv.FastForward(31 * time.Second)
	w = postThing(r, "k5")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestIdempotencyPendingClaimIsShortLived(t *testing.T) {
	var srv *miniredis.Miniredis
	var pendingTTL time.Duration
	r, s := idemRouter(t, func(c *gin.Context) {
		pendingTTL = srv.TTL("idem::/things:k6")
		c.Status(http.StatusCreated)
	})
	srv = s

	postThing(r, "k6")
	assert.Greater(t, pendingTTL, time.Duration(0))
	assert.LessOrEqual(t, pendingTTL, 30*time.Second, "in-flight claim must expire quickly")
	// The recorded response keeps the long replay window.
	assert.Equal(t, 24*time.Hour, srv.TTL("idem::/things:k6"))
}

func TestIdempotencyReleasesKeyOnServerFault(t *testing.T) {
	var calls int32
	r, _ := idemRouter(t, func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusCreated)
	})

	first := postThing(r, "k4")
	assert.Equal(t, http.StatusInternalServerError, first.Code)

	// The failed attempt must not be replayed; the retry re-executes.
	second := postThing(r, "k4")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
