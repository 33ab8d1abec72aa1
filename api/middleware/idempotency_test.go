package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
)

type memoryIdempotencyStore struct {
	data map[string]string
	// beforeWrite runs ahead of every Set and Del.
	beforeWrite func()
}

func (m *memoryIdempotencyStore) hook() {
	if fn := m.beforeWrite; fn != nil {
		m.beforeWrite = nil
		fn()
	}
}

func newMemoryStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, taken := m.data[key]; taken {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.hook()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.hook()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func routedRequest(method, pattern, body, key string) *http.Request {
	req := httptest.NewRequest(method, pattern, strings.NewReader(body))
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRouteTTLSelection(t *testing.T) {
	cases := []struct {
		method, pattern string
		want            time.Duration
		ok              bool
	}{
		{http.MethodPost, "/api/v1/checkout", criticalIdempotencyTTL, true},
		{http.MethodPost, "/api/v1/products", defaultIdempotencyTTL, true},
		{http.MethodPut, "/api/v1/settings/store", defaultIdempotencyTTL, true},
		{http.MethodGet, "/api/v1/checkout", 0, false},
		{http.MethodPost, "/api/v1/transactions/{id}/print", 0, false},
		{http.MethodPost, "/api/v1/cart/items", 0, false},
	}
	for _, tc := range cases {
		ttl, ok := routeTTL(tc.method, tc.pattern)
		assert.Equal(t, tc.ok, ok, "%s %s", tc.method, tc.pattern)
		assert.Equal(t, tc.want, ttl, "%s %s", tc.method, tc.pattern)
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	ran := false
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ran = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/v1/checkout", `{}`, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, ran)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/v1/checkout", `{}`, strings.Repeat("k", maxIdempotencyKey+1)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, ran)
}

func TestIdempotencyIgnoresOtherRoutes(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	h.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, "/api/v1/cart/items", `{}`, ""))
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"invoice_no":"INV-000001"}`))
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, routedRequest(http.MethodPost, "/api/v1/checkout", `{"cash_tendered":"50.000"}`, "abc"))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	again := httptest.NewRecorder()
	h.ServeHTTP(again, routedRequest(http.MethodPost, "/api/v1/checkout", `{"cash_tendered":"50.000"}`, "abc"))
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.Equal(t, "true", again.Header().Get(replayedHeader))
	assert.JSONEq(t, `{"invoice_no":"INV-000001"}`, again.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyRejectsChangedBody(t *testing.T) {
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, "/api/v1/checkout", `{"cash_tendered":"50.000"}`, "xyz"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/v1/checkout", `{"cash_tendered":"20.000"}`, "xyz"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestIdempotencyRejectsRetryWhileRunning(t *testing.T) {
	store := newMemoryStore()
	var inner *httptest.ResponseRecorder
	var h http.Handler
	h = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// the same sale is submitted again before the first one finishes
		inner = httptest.NewRecorder()
		h.ServeHTTP(inner, routedRequest(http.MethodPost, "/api/v1/checkout", `{}`, "double-tap"))
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/v1/checkout", `{}`, "double-tap"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, inner)
	assert.Equal(t, http.StatusConflict, inner.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, inner))
}

func TestIdempotencyDoesNotKeepServerFailures(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, "/api/v1/checkout", `{}`, "retry-me"))
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotencyScopesByUser(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, user := range []string{"kasir-1", "kasir-2"} {
		req := routedRequest(http.MethodPost, "/api/v1/checkout", `{}`, "same")
		req = req.WithContext(WithUserID(req.Context(), user))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}


func TestIdempotencyRetryDuringFinalWriteNeverRunsTwice(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	var h http.Handler
	h = Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p-1"}`))
	}))

	var retry *httptest.ResponseRecorder
	store.beforeWrite = func() {
		retry = httptest.NewRecorder()
		h.ServeHTTP(retry, routedRequest(http.MethodPost, "/api/v1/products", `{"name":"Kopi"}`, "k-1"))
	}

	first := httptest.NewRecorder()
	h.ServeHTTP(first, routedRequest(http.MethodPost, "/api/v1/products", `{"name":"Kopi"}`, "k-1"))
	require.Equal(t, http.StatusCreated, first.Code)
	require.NotNil(t, retry)
	assert.Equal(t, http.StatusConflict, retry.Code)
	assert.Equal(t, 1, calls)

	later := httptest.NewRecorder()
	h.ServeHTTP(later, routedRequest(http.MethodPost, "/api/v1/products", `{"name":"Kopi"}`, "k-1"))
	assert.Equal(t, http.StatusCreated, later.Code)
	assert.Equal(t, "true", later.Header().Get(replayedHeader))
	assert.JSONEq(t, `{"id":"p-1"}`, later.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyTrailingSlashStillGuarded(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, calls)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/", strings.NewReader(`{}`))
		req.Header.Set(idempotencyHeader, "slash")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 1, calls)
}
