package cache

import (
	"bytes"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sekolah-app/sekolah/internal/shared"
)

type cachedResponse struct {
	status  int
	header  http.Header
	body    []byte
	expires time.Time
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.buf.Write(data)
	return r.ResponseWriter.Write(data)
}

// ResponseCache memoises successful GET responses for a fixed TTL. Keys are
// scoped by the principal's school so one tenant never serves another's data.
type ResponseCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]cachedResponse
	group singleflight.Group
}

// NewResponseCache constructs the middleware state.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{ttl: ttl, items: make(map[string]cachedResponse)}
}

// Middleware wraps GET handlers with the response cache.
func (c *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet {
			// writes pass through and invalidate everything
			next.ServeHTTP(w, r)
			c.Bust()
			return
		}
		key := c.key(r)
		if resp, ok := c.get(key); ok {
			copyHeader(w.Header(), resp.header)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(resp.status)
			_, _ = w.Write(resp.body)
			return
		}

		// Singleflight collapses concurrent misses for the same key into one
		// upstream render; followers replay the recorded response.
		result, err, joined := c.group.Do(key, func() (interface{}, error) {
			rec := &responseRecorder{ResponseWriter: newHeaderOnlyWriter()}
			next.ServeHTTP(rec, r)
			resp := cachedResponse{
				status:  rec.status,
				header:  rec.ResponseWriter.Header().Clone(),
				body:    append([]byte(nil), rec.buf.Bytes()...),
				expires: time.Now().Add(c.ttl),
			}
			if resp.status == http.StatusOK {
				c.set(key, resp)
			}
			return resp, nil
		})
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		resp := result.(cachedResponse)
		copyHeader(w.Header(), resp.header)
		if joined {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write(resp.body)
	})
}

// Bust drops every cached response.
func (c *ResponseCache) Bust() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[string]cachedResponse)
	c.mu.Unlock()
}

func (c *ResponseCache) key(r *http.Request) string {
	scope := "anon"
	if p := shared.PrincipalFromContext(r.Context()); p != nil {
		if p.SchoolID != nil {
			scope = "school:" + strconv.FormatInt(*p.SchoolID, 10)
		} else {
			scope = "system"
		}
	}
	return scope + "|" + r.URL.Path + "?" + r.URL.RawQuery
}

func (c *ResponseCache) get(key string) (cachedResponse, bool) {
	c.mu.RLock()
	resp, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return cachedResponse{}, false
	}
	if time.Now().After(resp.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return cachedResponse{}, false
	}
	return resp, true
}

func (c *ResponseCache) set(key string, resp cachedResponse) {
	c.mu.Lock()
	c.items[key] = resp
	c.mu.Unlock()
}

type headerOnlyWriter struct {
	header http.Header
}

func newHeaderOnlyWriter() http.ResponseWriter { return &headerOnlyWriter{header: http.Header{}} }

func (w *headerOnlyWriter) Header() http.Header       { return w.header }
func (w *headerOnlyWriter) WriteHeader(int)           {}
func (w *headerOnlyWriter) Write(p []byte) (int, error) { return len(p), nil }

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}
