package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ============================================================
// Test Helpers
// ============================================================

func newTestStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	store := NewIdempotencyStore(IdempotencyConfig{})
	t.Cleanup(store.Stop)
	return store
}

// countingHandler responds 201 with a body derived from the call number.
type countingHandler struct {
	calls atomic.Int32
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.calls.Add(1)
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, `{"id":"event:%03d"}`, n)
}

func keyedRequest(method, path, userID, key, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
	}
	return req
}

// ============================================================
// Replay
// ============================================================

func TestIdempotency_RetryReplaysFirstResponse(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	body := `{"name":"Summer BBQ"}`
	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", body))

	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if first.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("first execution must not be marked replayed")
	}

	retry := httptest.NewRecorder()
	wrapped.ServeHTTP(retry, keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", body))

	if got := handler.calls.Load(); got != 1 {
		t.Fatalf("expected handler to run once, ran %d times", got)
	}
	if retry.Code != http.StatusCreated {
		t.Errorf("expected replayed 201, got %d", retry.Code)
	}
	if retry.Body.String() != first.Body.String() {
		t.Errorf("expected identical body on replay, got %q vs %q", retry.Body.String(), first.Body.String())
	}
	if retry.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("expected replay marker header")
	}
}

func TestIdempotency_KeyReuseWithDifferentBodyConflicts(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", `{"name":"Summer BBQ"}`))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr,
		keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", `{"name":"Winter Gala"}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for key reuse with new body, got %d", rr.Code)
	}
	var problem struct {
		Status int `json:"status"`
		Code   int `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if problem.Code != 3003 {
		t.Errorf("expected conflict code 3003, got %d", problem.Code)
	}
	if got := handler.calls.Load(); got != 1 {
		t.Errorf("conflicting retry must not reach the handler, handler ran %d times", got)
	}
}

// ============================================================
// Scope
// ============================================================

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	body := `{"option":"2026-07-04"}`
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events/abc/vote", "user:alice", "vote-1", body))
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events/abc/vote", "user:bob", "vote-1", body))

	if got := handler.calls.Load(); got != 2 {
		t.Errorf("distinct users with the same key must both execute, handler ran %d times", got)
	}
}

func TestIdempotency_KeysAreScopedPerPath(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	body := `{"option":"2026-07-04"}`
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events/abc/vote", "user:alice", "same-key", body))
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events/xyz/vote", "user:alice", "same-key", body))

	if got := handler.calls.Load(); got != 2 {
		t.Errorf("same key on different routes must both execute, handler ran %d times", got)
	}
}

// ============================================================
// Tracking Scope
// ============================================================

func TestIdempotency_NoKeyExecutesEveryTime(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	for i := 0; i < 3; i++ {
		wrapped.ServeHTTP(httptest.NewRecorder(),
			keyedRequest(http.MethodPost, "/v1/events", "user:alice", "", `{"name":"BBQ"}`))
	}

	if got := handler.calls.Load(); got != 3 {
		t.Errorf("keyless requests must all execute, handler ran %d times", got)
	}
}

func TestIdempotency_ReadsAreNotTracked(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodGet, "/v1/events/abc", "user:alice", "read-key", ""))
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodGet, "/v1/events/abc", "user:alice", "read-key", ""))

	if got := handler.calls.Load(); got != 2 {
		t.Errorf("GET requests must never be replayed, handler ran %d times", got)
	}
}

func TestIdempotency_NonAPIPathsAreNotTracked(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/healthz", "user:alice", "health-key", ""))
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/healthz", "user:alice", "health-key", ""))

	if got := handler.calls.Load(); got != 2 {
		t.Errorf("paths outside /v1/ must not be tracked, handler ran %d times", got)
	}
}

// ============================================================
// Expiry and Races
// ============================================================

func TestIdempotency_ExpiredEntryExecutesAgain(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	handler := &countingHandler{}
	wrapped := Idempotency(store)(handler)

	body := `{"name":"BBQ"}`
	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", body))

	store.mu.Lock()
	for _, e := range store.entries {
		e.expiresAt = time.Now().Add(-time.Minute)
	}
	store.mu.Unlock()

	wrapped.ServeHTTP(httptest.NewRecorder(),
		keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", body))

	if got := handler.calls.Load(); got != 2 {
		t.Errorf("expired key must execute again, handler ran %d times", got)
	}
}

func TestIdempotency_ConcurrentRetryWaitsAndReplays(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	release := make(chan struct{})
	var calls atomic.Int32
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"event:001"}`)
	})
	wrapped := Idempotency(store)(slow)

	body := `{"name":"BBQ"}`
	responses := make([]*httptest.ResponseRecorder, 2)
	var wg sync.WaitGroup
	for i := range responses {
		responses[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rr *httptest.ResponseRecorder) {
			defer wg.Done()
			wrapped.ServeHTTP(rr, keyedRequest(http.MethodPost, "/v1/events", "user:alice", "create-bbq", body))
		}(responses[i])
	}

	// Let one request reach the handler, then release it.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one execution, got %d", got)
	}
	for i, rr := range responses {
		if rr.Code != http.StatusCreated {
			t.Errorf("response %d: expected 201, got %d", i, rr.Code)
		}
		if rr.Body.String() != `{"id":"event:001"}` {
			t.Errorf("response %d: unexpected body %q", i, rr.Body.String())
		}
	}
}
