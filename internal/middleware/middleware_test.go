package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"workdesk/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestActor_ReadsHeaders(t *testing.T) {
	r := gin.New()
	r.Use(Actor())
	r.GET("/who", func(c *gin.Context) {
		id, name := ActorFrom(c)
		c.String(http.StatusOK, id+"|"+name)
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderActorID, "u-7")
	req.Header.Set(HeaderActorName, "Dana")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "u-7|Dana", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderActorID, "u-8")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "u-8|u-8", rec.Body.String(), "name falls back to id")
}

func TestIPRateLimiter_PerClientBuckets(t *testing.T) {
	l := NewIPRateLimiter(RateLimitConfig{RequestsPerMinute: 60, Burst: 2})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "other clients unaffected")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills per second at 60 rpm")

	now = now.Add(time.Hour)
	l.Allow("10.0.0.3")
	assert.Len(t, l.visitors, 1, "idle clients are evicted")
}

func TestRateLimit_Returns429(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(RateLimitConfig{RequestsPerMinute: 1, Burst: 1})))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.GetDefaultConfig().Security.CORS))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), HeaderActorID)
}

func TestRequestLog_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLog(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
