package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/plantogether/api/internal/model"
)

// IdempotencyConfig tunes how long replayable responses are retained.
type IdempotencyConfig struct {
	TTL     time.Duration // retention for completed responses (default 24h)
	Cleanup time.Duration // eviction interval (default 1h)
}

// IdempotencyStore retains the first response produced under each
// Idempotency-Key so retried writes are replayed instead of re-executed.
// Keys are scoped per caller; two users may use the same key value.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	stop    chan struct{}
}

type idempotencyEntry struct {
	fingerprint string // hash of the original request body

	status    int
	header    http.Header
	body      []byte
	expiresAt time.Time

	inFlight bool
	done     chan struct{}
}

// NewIdempotencyStore builds a store and starts its eviction loop. Call
// Stop on shutdown.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     cfg.TTL,
		stop:    make(chan struct{}),
	}
	go s.evictLoop(cfg.Cleanup)
	return s
}

// Stop halts the eviction goroutine.
func (s *IdempotencyStore) Stop() {
	close(s.stop)
}

func (s *IdempotencyStore) evictLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *IdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if !e.inFlight && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// idempotentMethod reports whether the middleware should track the request.
// Only state-changing event API calls are tracked; reads and the SSE stream
// pass straight through.
func idempotentMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/v1/")
}

// scopeKey identifies the caller's key namespace: the authenticated user
// when there is one, otherwise the client IP.
func scopeKey(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return userID
	}
	return clientIP(r)
}

func entryKey(scope, idempotencyKey, method, path string) string {
	h := sha256.New()
	for _, part := range []string{scope, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func bodyFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// replayWriter buffers the response so it can be replayed on a retry.
type replayWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *replayWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *replayWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, e *idempotencyEntry) {
	for k, vals := range e.header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency makes write requests carrying an Idempotency-Key safe to
// retry. The first request under a key executes and its response is
// retained; retries replay that response. Reusing a key with a different
// request body is rejected with 409, and a retry that races the original
// waits for it to finish rather than executing twice.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !idempotentMethod(r) {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				model.NewBadRequestError("failed to read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := entryKey(scopeKey(r), idempotencyKey, r.Method, r.URL.Path)
			fingerprint := bodyFingerprint(body)

			store.mu.Lock()
			entry, exists := store.entries[key]
			if exists && !entry.inFlight && entry.expiresAt.Before(time.Now()) {
				delete(store.entries, key)
				exists = false
			}

			if exists {
				if entry.fingerprint != fingerprint {
					store.mu.Unlock()
					model.NewConflictError("Idempotency-Key was already used with a different request body").WriteJSON(w)
					return
				}

				if entry.inFlight {
					done := entry.done
					store.mu.Unlock()
					<-done

					store.mu.Lock()
					entry = store.entries[key]
					store.mu.Unlock()
					if entry == nil {
						model.NewInternalError("").WriteJSON(w)
						return
					}
					replay(w, entry)
					return
				}

				store.mu.Unlock()
				replay(w, entry)
				return
			}

			entry = &idempotencyEntry{
				fingerprint: fingerprint,
				inFlight:    true,
				done:        make(chan struct{}),
			}
			store.entries[key] = entry
			store.mu.Unlock()

			rw := &replayWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			store.mu.Lock()
			entry.status = rw.status
			entry.header = rw.Header().Clone()
			entry.body = rw.body.Bytes()
			entry.expiresAt = time.Now().Add(store.ttl)
			entry.inFlight = false
			close(entry.done)
			store.mu.Unlock()
		})
	}
}
