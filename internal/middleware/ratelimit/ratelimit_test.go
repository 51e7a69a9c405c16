package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(n int) (*Limiter, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerWindow: n, Window: time.Minute})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWithinWindow(t *testing.T) {
	rl, now := newTestLimiter(2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are limited independently")
	assert.Equal(t, int64(1), rl.Hits())

	*now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"), "a new window resets the count")
}

func TestCleanupStale(t *testing.T) {
	rl, now := newTestLimiter(5)
	rl.Allow("a")
	*now = now.Add(30 * time.Second)
	rl.Allow("b")

	*now = now.Add(45 * time.Second)
	assert.Equal(t, 1, rl.CleanupStale())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMiddlewareLimitsOnlyListedMethods(t *testing.T) {
	rl, _ := newTestLimiter(1)
	defer rl.Stop()
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil, http.MethodPost)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/items", nil))
		return rr
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost).Code)
	rr := do(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet).Code)
}
