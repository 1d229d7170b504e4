package cache

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sekolah-app/sekolah/internal/shared"
)

func countingHandler(hits *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"hits":` + strconv.Itoa(*hits) + `}`))
	})
}

func asPrincipal(r *http.Request, schoolID int64) *http.Request {
	p := &shared.Principal{UserID: 1, SchoolID: &schoolID}
	return r.WithContext(shared.ContextWithPrincipal(r.Context(), p))
}

func TestResponseCacheMissThenHit(t *testing.T) {
	hits := 0
	c := NewResponseCache(time.Minute)
	handler := c.Middleware(countingHandler(&hits))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, asPrincipal(httptest.NewRequest(http.MethodGet, "/students/stats", nil), 1))
	require.Equal(t, "MISS", first.Header().Get("X-Cache"))
	require.Equal(t, `{"hits":1}`, first.Body.String())

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, asPrincipal(httptest.NewRequest(http.MethodGet, "/students/stats", nil), 1))
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))
	require.Equal(t, `{"hits":1}`, second.Body.String())
	require.Equal(t, 1, hits)
}

func TestResponseCacheIsolatesSchools(t *testing.T) {
	hits := 0
	c := NewResponseCache(time.Minute)
	handler := c.Middleware(countingHandler(&hits))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, asPrincipal(httptest.NewRequest(http.MethodGet, "/students/stats", nil), 1))
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, asPrincipal(httptest.NewRequest(http.MethodGet, "/students/stats", nil), 2))

	require.Equal(t, "MISS", first.Header().Get("X-Cache"))
	require.Equal(t, "MISS", other.Header().Get("X-Cache"))
	require.Equal(t, 2, hits)
}

func TestResponseCacheWriteBusts(t *testing.T) {
	hits := 0
	c := NewResponseCache(time.Minute)
	handler := c.Middleware(countingHandler(&hits))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, asPrincipal(httptest.NewRequest(http.MethodGet, "/students", nil), 1))
	require.Equal(t, "MISS", res.Header().Get("X-Cache"))

	post := httptest.NewRecorder()
	handler.ServeHTTP(post, asPrincipal(httptest.NewRequest(http.MethodPost, "/students", nil), 1))
	require.Empty(t, post.Header().Get("X-Cache"))

	again := httptest.NewRecorder()
	handler.ServeHTTP(again, asPrincipal(httptest.NewRequest(http.MethodGet, "/students", nil), 1))
	require.Equal(t, "MISS", again.Header().Get("X-Cache"))
	require.Equal(t, 3, hits)
}

func TestResponseCacheExpires(t *testing.T) {
	hits := 0
	c := NewResponseCache(time.Millisecond)
	handler := c.Middleware(countingHandler(&hits))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, asPrincipal(httptest.NewRequest(http.MethodGet, "/students", nil), 1))
	time.Sleep(5 * time.Millisecond)

	later := httptest.NewRecorder()
	handler.ServeHTTP(later, asPrincipal(httptest.NewRequest(http.MethodGet, "/students", nil), 1))
	require.Equal(t, "MISS", later.Header().Get("X-Cache"))
	require.Equal(t, 2, hits)
}
