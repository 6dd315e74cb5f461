package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

const cacheHeader = "X-Cache"

// cachedResponse is a frozen 2xx response. header is snapshotted once when
// the entry is stored and already carries the HIT marker.
type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

func snapshot(w *captureWriter) *cachedResponse {
	header := w.Header().Clone()
	header.Set(cacheHeader, "HIT")
	return &cachedResponse{status: w.Status(), header: header, body: w.buf.Bytes()}
}

func (r *cachedResponse) replay(w gin.ResponseWriter) {
	dst := w.Header()
	for k, v := range r.header {
		dst[k] = v
	}
	w.WriteHeader(r.status)
	w.Write(r.body)
}

// captureWriter tees the handler's body into buf.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GETs for the same URI from store for ttl. Only 2xx
// responses are kept; misses are marked with X-Cache: MISS.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			hit.(*cachedResponse).replay(c.Writer)
			c.Abort()
			return
		}

		c.Writer.Header().Set(cacheHeader, "MISS")
		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if status := w.Status(); status >= 200 && status < 300 {
			store.Set(key, snapshot(w), ttl)
		}
	}
}

// Invalidate flushes store after every successful write request, since any
// write can change conflicts, timelines and efficiency figures.
func Invalidate(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			store.Flush()
		}
	}
}
