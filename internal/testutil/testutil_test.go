package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// ---------------------------------------------------------------------------
// Helper: a server that echoes what it received
// ---------------------------------------------------------------------------

func newEchoServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"method":       r.Method,
			"path":         r.URL.RequestURI(),
			"token":        r.Header.Get("X-Postmark-Server-Token"),
			"accept":       r.Header.Get("Accept"),
			"content_type": r.Header.Get("Content-Type"),
			"body":         string(body),
		})
	})

	mux.HandleFunc("/admin/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"method": r.Method,
			"path":   r.URL.RequestURI(),
		})
	})

	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
	})

	return httptest.NewServer(mux)
}

// ---------------------------------------------------------------------------
// TwinClient
// ---------------------------------------------------------------------------

func TestNewTwinClientURLTrimsSlash(t *testing.T) {
	tc := NewTwinClientURL(t, "http://localhost:4310/")
	if tc.BaseURL != "http://localhost:4310" {
		t.Errorf("expected trimmed base URL, got %q", tc.BaseURL)
	}
}

func TestPostmarkClientSendsToken(t *testing.T) {
	srv := newEchoServer()
	defer srv.Close()

	pc := NewTwinClient(t, srv).PostmarkClient("")
	m := pc.Post("/echo", map[string]string{"From": "a@example.com"}).AssertStatus(http.StatusOK).JSONMap()

	if m["token"] != DefaultServerToken {
		t.Errorf("expected default token, got %v", m["token"])
	}
	if m["accept"] != "application/json" {
		t.Errorf("expected Accept header, got %v", m["accept"])
	}
	if m["body"] != `{"From":"a@example.com"}` {
		t.Errorf("unexpected body %v", m["body"])
	}
}

func TestPostmarkClientCustomToken(t *testing.T) {
	srv := newEchoServer()
	defer srv.Close()

	base := NewTwinClient(t, srv)
	pc := base.PostmarkClient("custom")
	if m := pc.Get("/echo").JSONMap(); m["token"] != "custom" {
		t.Errorf("expected custom token, got %v", m["token"])
	}
	if m := base.Get("/echo").JSONMap(); m["token"] != "" {
		t.Errorf("base client must stay unauthenticated, got %v", m["token"])
	}
}

func TestPostRaw(t *testing.T) {
	srv := newEchoServer()
	defer srv.Close()

	m := NewTwinClient(t, srv).PostRaw("/echo", "text/plain", "{not json").JSONMap()
	if m["body"] != "{not json" || m["content_type"] != "text/plain" {
		t.Errorf("unexpected echo %v", m)
	}
}

func TestDoWithHeadersOverridesDefaults(t *testing.T) {
	srv := newEchoServer()
	defer srv.Close()

	pc := NewTwinClient(t, srv).PostmarkClient("one")
	m := pc.DoWithHeaders(http.MethodGet, "/echo", nil, map[string]string{
		"X-Postmark-Server-Token": "two",
	}).JSONMap()
	if m["token"] != "two" {
		t.Errorf("expected explicit header to win, got %v", m["token"])
	}
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func TestAssertErrorCode(t *testing.T) {
	srv := newEchoServer()
	defer srv.Close()

	NewTwinClient(t, srv).Get("/error").
		AssertStatus(http.StatusUnprocessableEntity).
		AssertErrorCode(300).
		AssertBodyContains("Invalid email request")
}

func TestJSONArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"MessageID":"a"},{"MessageID":"b"}]`))
	}))
	defer srv.Close()

	arr := NewTwinClient(t, srv).Get("/").JSONArray()
	if len(arr) != 2 || arr[1]["MessageID"] != "b" {
		t.Errorf("unexpected array %v", arr)
	}
}

// ---------------------------------------------------------------------------
// AdminClient
// ---------------------------------------------------------------------------

func TestAdminClientPaths(t *testing.T) {
	srv := newEchoServer()
	defer srv.Close()

	ac := NewAdminClient(NewTwinClient(t, srv))

	cases := []struct {
		name   string
		resp   *Response
		method string
		path   string
	}{
		{"reset", ac.Reset(), "POST", "/admin/reset"},
		{"get state", ac.GetState(), "GET", "/admin/state"},
		{"load state", ac.LoadState(map[string]any{}), "POST", "/admin/state"},
		{"inject fault", ac.InjectFault("/email", map[string]any{"status_code": 500}), "POST", "/admin/fault/email"},
		{"remove fault", ac.RemoveFault("email"), "DELETE", "/admin/fault/email"},
		{"requests", ac.GetRequests(), "GET", "/admin/requests"},
		{"advance", ac.AdvanceTime("1h"), "POST", "/admin/time/advance"},
		{"emails", ac.Emails("tag=welcome"), "GET", "/admin/emails?tag=welcome"},
		{"emails no query", ac.Emails(""), "GET", "/admin/emails"},
		{"health", ac.Health(), "GET", "/admin/health"},
	}

	for _, tc := range cases {
		m := tc.resp.JSONMap()
		if m["method"] != tc.method || m["path"] != tc.path {
			t.Errorf("%s: expected %s %s, got %v %v", tc.name, tc.method, tc.path, m["method"], m["path"])
		}
	}
}
