package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCachedEngine(rc *ResponseCache, hits *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/entries", rc.Cache(), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"hits": *hits})
	})
	engine.POST("/entries/mark-paid", func(c *gin.Context) {
		rc.Invalidate()
		c.Status(http.StatusOK)
	})
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestCacheMemoizesGet(t *testing.T) {
	hits := 0
	rc := NewResponseCache(time.Minute)
	engine := newCachedEngine(rc, &hits)

	first := get(engine, "/entries")
	second := get(engine, "/entries")

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, hits)
}

func TestCacheKeyedByRequestURI(t *testing.T) {
	hits := 0
	rc := NewResponseCache(time.Minute)
	engine := newCachedEngine(rc, &hits)

	get(engine, "/entries?limit=1")
	get(engine, "/entries?limit=2")

	assert.Equal(t, 2, hits)
}

func TestWriteInvalidatesCachedReads(t *testing.T) {
	hits := 0
	rc := NewResponseCache(time.Minute)
	engine := newCachedEngine(rc, &hits)

	get(engine, "/entries")
	get(engine, "/entries")
	assert.Equal(t, 1, hits)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/mark-paid", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	fresh := get(engine, "/entries")
	assert.Equal(t, http.StatusOK, fresh.Code)
	assert.Equal(t, 2, hits)
}
