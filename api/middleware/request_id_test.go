package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/stn-picking/pkg/types"
	"github.com/go-chi/chi/v5"
)

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "id with spaces\nand newline")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-Id")
	if got == "" || strings.ContainsAny(got, " \n") {
		t.Fatalf("expected a minted id, got %q", got)
	}
}

func TestPanicEnvelopeCarriesRequestID(t *testing.T) {
	handler := RequestID(nil)(Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("scanner exploded")
	})))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil)
	req.Header.Set("X-Request-Id", "scan-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.RequestID != "scan-42" || body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected envelope %+v", body.Error)
	}
	if strings.Contains(body.Error.Message, "scanner exploded") {
		t.Fatal("panic value leaked into the response")
	}
}

func TestRecovererReraisesAbortHandler(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/pick-lists/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pick-lists/PL-20260101-001", nil))
	if rec.statusOrOK() != http.StatusAccepted || rec.bytes != 2 {
		t.Fatalf("unexpected status=%d bytes=%d", rec.statusOrOK(), rec.bytes)
	}
}
