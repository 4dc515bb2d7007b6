package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdem(t *testing.T) Idem {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		w.WriteHeader(http.StatusCreated)
	})
}

func TestIdemFirstRequestPasses(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	h := idem.Middleware(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestIdemDuplicateRejected(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	h := idem.Middleware(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/payments", nil)
		req.Header.Set("Idempotency-Key", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusCreated, rec.Code)
		} else {
			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")
		}
	}
	assert.Equal(t, 1, calls)
}

func TestIdemDistinctKeysIndependent(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	h := idem.Middleware(countingHandler(&calls))

	for _, key := range []string{"key-a", "key-b"} {
		req := httptest.NewRequest(http.MethodPost, "/payments", nil)
		req.Header.Set("Idempotency-Key", key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestIdemMissingHeaderPassesThrough(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	h := idem.Middleware(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/payments", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
}
