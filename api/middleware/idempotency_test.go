package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestMatchRule(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		pattern  string
		ok       bool
		optional bool
	}{
		{"create pick list", http.MethodPost, "/api/picklist", true, true},
		{"cancel pick list", http.MethodPost, "/api/picklist/{id}/cancel", true, true},
		{"generate barcode", http.MethodPost, "/api/barcodes/generate", true, true},
		{"import", http.MethodPost, "/api/import/products", true, false},
		{"scan is not idempotent", http.MethodPost, "/api/scan/validate", false, false},
		{"list pick lists", http.MethodGet, "/api/picklist", false, false},
	}

	for _, tt := range tests {
		rule, ok := matchRule(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && rule.optional != tt.optional {
			t.Fatalf("%s: expected optional=%v got %v", tt.name, tt.optional, rule.optional)
		}
	}
}

// post sends a POST through h with the route pattern set to path, the way
// chi would after matching.
func post(h http.Handler, path, key, body string, mutate ...func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	req := requestWithPattern(http.MethodPost, path, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	for _, m := range mutate {
		req = m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// countingHandler answers with status and body and counts its calls.
func countingHandler(calls *int, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*calls++
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v (%s)", err, rec.Body.String())
	}
	return payload.Error.Code
}

func TestIdempotencyMiddlewareKeylessRequests(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		wantStatus int
		wantCalls  int
	}{
		{"strict route demands a key", "/api/import/products", http.StatusBadRequest, 0},
		{"optional route runs every time", "/api/picklist", http.StatusCreated, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			calls := 0
			h := Idempotency(store, time.Hour, nil)(countingHandler(&calls, http.StatusCreated, ""))

			for range 2 {
				if rec := post(h, tc.path, "", `{"items":[]}`); rec.Code != tc.wantStatus {
					t.Fatalf("status %d, want %d", rec.Code, tc.wantStatus)
				}
			}
			if calls != tc.wantCalls {
				t.Fatalf("handler ran %d times, want %d", calls, tc.wantCalls)
			}
			if len(store.data) != 0 {
				t.Fatalf("keyless requests stored %d records", len(store.data))
			}
		})
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store, 2*time.Hour, nil)(countingHandler(&calls, http.StatusCreated, `{"data":{"pickListId":"PL-20250101-001"}}`))

	first := post(h, "/api/picklist", "abc", `{"branch":"BLR"}`)
	replay := post(h, "/api/picklist", "abc", `{"branch":"BLR"}`)

	if first.Code != http.StatusCreated || replay.Code != http.StatusCreated {
		t.Fatalf("statuses %d/%d, want 201/201", first.Code, replay.Code)
	}
	if replay.Header().Get("Content-Type") != "application/json" {
		t.Fatal("content type not replayed")
	}
	if replay.Body.String() != first.Body.String() {
		t.Fatalf("replayed body %q, want %q", replay.Body.String(), first.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	for key, ttl := range store.ttls {
		if ttl != 2*time.Hour {
			t.Fatalf("%s kept ttl %v, want the 2h default", key, ttl)
		}
	}
}

func TestIdempotencyMiddlewareSkipsServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	h := Idempotency(store, time.Hour, nil)(countingHandler(&calls, http.StatusServiceUnavailable, ""))

	post(h, "/api/picklist", "retry-me", `{}`)
	post(h, "/api/picklist", "retry-me", `{}`)

	if len(store.data) != 0 {
		t.Fatal("5xx response was stored")
	}
	if calls != 2 {
		t.Fatalf("retry after 5xx ran handler %d times, want 2", calls)
	}
}

func TestIdempotencyMiddlewareScopesByOperator(t *testing.T) {
	calls := 0
	h := Idempotency(newFakeStore(), time.Hour, nil)(countingHandler(&calls, http.StatusCreated, ""))

	for _, operator := range []string{"asha", "ravi"} {
		post(h, "/api/picklist", "same", `{}`, func(r *http.Request) *http.Request {
			return r.WithContext(WithOperator(r.Context(), operator))
		})
	}
	if calls != 2 {
		t.Fatalf("keys should be scoped per operator, handler ran %d times", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	calls := 0
	h := Idempotency(newFakeStore(), time.Hour, nil)(countingHandler(&calls, http.StatusOK, ""))

	post(h, "/api/barcodes/generate", "xyz", `{"productCode":"SOAP001"}`)
	rec := post(h, "/api/barcodes/generate", "xyz", `{"productCode":"TEA001"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("error code %s, want %s", code, pkgerrors.CodeIdempotency)
	}
}

func TestRoutePatternFallsBackToPathInsideSubRouter(t *testing.T) {
	req := requestWithPattern(http.MethodPost, "/api/picklist/PL-1/cancel/", "/api/*", nil)
	if got := routePattern(req); got != "/api/picklist/PL-1/cancel" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if _, ok := matchRule(http.MethodPost, routePattern(req)); !ok {
		t.Fatalf("expected cancel rule to match concrete path")
	}
}

func TestIdempotencyMiddlewareRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)

	var inner *httptest.ResponseRecorder
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a duplicate arrives while the first request is still running
		dup := requestWithPattern(http.MethodPost, "/api/picklist", "/api/picklist", strings.NewReader(`{}`))
		dup.Header.Set("Idempotency-Key", "busy")
		inner = httptest.NewRecorder()
		Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("duplicate must not reach the handler")
		})).ServeHTTP(inner, dup)
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/picklist", "/api/picklist", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "busy")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for first request, got %d", resp.Code)
	}
	if inner.Code != http.StatusConflict {
		t.Fatalf("expected 409 for in-flight duplicate, got %d", inner.Code)
	}
	if !strings.Contains(inner.Body.String(), string(pkgerrors.CodeConflict)) {
		t.Fatalf("expected conflict code, got %s", inner.Body.String())
	}
}

func TestIdempotencyMiddlewareReleasesKeyOnPanic(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	req := requestWithPattern(http.MethodPost, "/api/picklist", "/api/picklist", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "explode")
	func() {
		defer func() { _ = recover() }()
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}()

	if len(store.data) != 0 {
		t.Fatalf("expected claim released after panic, got %v", store.data)
	}
}

func TestIdempotencyMiddlewareMarksReplays(t *testing.T) {
	calls := 0
	h := Idempotency(newFakeStore(), time.Hour, nil)(countingHandler(&calls, http.StatusOK, `{"ok":true}`))

	for i, wantReplay := range []string{"", "true"} {
		rec := post(h, "/api/products", "k", `{}`)
		if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
			t.Fatalf("call %d: unexpected response %d %q", i, rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get(idempotencyReplayed); got != wantReplay {
			t.Fatalf("call %d: replay header %q, want %q", i, got, wantReplay)
		}
	}
}

func TestIdempotencyMiddlewareRejectsLongKeys(t *testing.T) {
	h := Idempotency(newFakeStore(), time.Hour, nil)(http.NotFoundHandler())
	if rec := post(h, "/api/import/products", strings.Repeat("k", maxIdempotencyKeyLen+1), "a"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
