package twincore

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// RequestLog
// ---------------------------------------------------------------------------

func TestRequestLogRingBuffer(t *testing.T) {
	rl := NewRequestLog(3)

	for i := 0; i < 5; i++ {
		rl.Add(RequestLogEntry{Path: "/" + string(rune('a'+i))})
	}

	entries := rl.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (ring buffer), got %d", len(entries))
	}
	if entries[0].Path != "/c" || entries[2].Path != "/e" {
		t.Errorf("unexpected entries after eviction: %+v", entries)
	}
}

func TestRequestLogEntriesReturnsCopy(t *testing.T) {
	rl := NewRequestLog(10)
	rl.Add(RequestLogEntry{Path: "/orig"})

	entries := rl.Entries()
	entries[0].Path = "/mutated"

	if rl.Entries()[0].Path != "/orig" {
		t.Error("Entries did not return a copy; mutation leaked")
	}
}

func TestRequestLogClear(t *testing.T) {
	rl := NewRequestLog(10)
	rl.Add(RequestLogEntry{Path: "/email"})
	rl.Clear()

	if len(rl.Entries()) != 0 {
		t.Errorf("expected 0 entries after clear, got %d", len(rl.Entries()))
	}
}

// ---------------------------------------------------------------------------
// FaultRegistry
// ---------------------------------------------------------------------------

func TestFaultRegistrySetDefaultRate(t *testing.T) {
	fr := NewFaultRegistry()
	fr.Set("/email", FaultConfig{StatusCode: 500})

	f := fr.Check("/email")
	if f == nil {
		t.Fatal("expected fault to fire with default rate")
	}
	if f.Rate != 1.0 {
		t.Errorf("expected default rate 1.0, got %f", f.Rate)
	}
	if fr.Check("/templates") != nil {
		t.Error("expected no fault for unregistered path")
	}
}

func TestFaultRegistryRemoveAndReset(t *testing.T) {
	fr := NewFaultRegistry()
	fr.Set("/email", FaultConfig{StatusCode: 500})
	fr.Set("/templates", FaultConfig{StatusCode: 503})

	if !fr.Remove("/email") {
		t.Error("expected Remove to report an existing fault")
	}
	if fr.Remove("/email") {
		t.Error("expected Remove to report a missing fault")
	}

	all := fr.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 fault, got %d", len(all))
	}
	delete(all, "/templates")
	if len(fr.All()) != 1 {
		t.Error("All did not return a copy")
	}

	fr.Reset()
	if len(fr.All()) != 0 {
		t.Error("expected no faults after reset")
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestCORSOptionsRequest(t *testing.T) {
	mw := NewMiddleware(&Config{}, nil)
	handler := mw.CORS(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/email", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "X-Postmark-Server-Token") {
		t.Errorf("expected Postmark token header to be allowed, got %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestRequestLogMiddleware(t *testing.T) {
	mw := NewMiddleware(&Config{}, nil)
	handler := mw.RequestLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/email", nil)
	req.Header.Set("X-Postmark-Server-Token", "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := mw.ReqLog.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Method != http.MethodPost || entries[0].Path != "/email" || entries[0].StatusCode != http.StatusCreated {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[0].Headers != nil {
		t.Error("expected headers to be omitted when not verbose")
	}
}

func TestRequestLogMiddlewareVerbose(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mw := NewMiddleware(&Config{Verbose: true}, logger)
	handler := mw.RequestLog(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	req.Header.Set("X-Postmark-Server-Token", "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := mw.ReqLog.Entries()
	if entries[0].Headers["X-Postmark-Server-Token"] != "abc" {
		t.Errorf("expected captured header, got %+v", entries[0].Headers)
	}
	if !strings.Contains(buf.String(), `"path":"/templates"`) {
		t.Errorf("expected debug log line, got %s", buf.String())
	}
}

func TestFaultInjectionMiddleware(t *testing.T) {
	mw := NewMiddleware(&Config{}, nil)
	mw.Faults.Set("/email", FaultConfig{StatusCode: 422})
	handler := mw.FaultInjection(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/email", nil))

	if rec.Code != 422 {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ErrorCode":422`) {
		t.Errorf("expected Postmark-shaped fault body, got %s", rec.Body.String())
	}
}

func TestFaultInjectionWithCustomBody(t *testing.T) {
	mw := NewMiddleware(&Config{}, nil)
	mw.Faults.Set("/email", FaultConfig{StatusCode: 406, Body: `{"ErrorCode":406,"Message":"inactive recipient"}`})
	handler := mw.FaultInjection(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/email", nil))

	body, _ := io.ReadAll(rec.Body)
	if string(body) != `{"ErrorCode":406,"Message":"inactive recipient"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestLatencyInjectionMiddleware(t *testing.T) {
	mw := NewMiddleware(&Config{Latency: 20 * time.Millisecond}, nil)
	handler := mw.LatencyInjection(okHandler())

	start := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("expected at least 15ms latency, got %v", elapsed)
	}
}

func TestRandomFailureAlways(t *testing.T) {
	mw := NewMiddleware(&Config{FailRate: 1.0}, nil)
	handler := mw.RandomFailure(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/email", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRandomFailureNever(t *testing.T) {
	mw := NewMiddleware(&Config{FailRate: 0}, nil)
	handler := mw.RandomFailure(okHandler())

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/email", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}
