// Package testutil provides an HTTP client and assertion helpers for
// exercising the Postmark twin in tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// DefaultServerToken is sent by PostmarkClient when no token is given.
const DefaultServerToken = "pm_sim_server_token"

// TwinClient is an HTTP client for interacting with the twin in tests.
type TwinClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
	t          *testing.T
}

// NewTwinClient creates a client pointed at a test server.
func NewTwinClient(t *testing.T, server *httptest.Server) *TwinClient {
	return &TwinClient{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		t:          t,
	}
}

// NewTwinClientURL creates a client pointed at a specific URL.
func NewTwinClientURL(t *testing.T, baseURL string) *TwinClient {
	return &TwinClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		t:          t,
	}
}

// PostmarkClient returns a copy of c that authenticates every request with
// the given server token, or DefaultServerToken when token is empty.
func (c *TwinClient) PostmarkClient(token string) *TwinClient {
	if token == "" {
		token = DefaultServerToken
	}
	headers := make(map[string]string, len(c.Headers)+2)
	for k, v := range c.Headers {
		headers[k] = v
	}
	headers["X-Postmark-Server-Token"] = token
	headers["Accept"] = "application/json"
	return &TwinClient{BaseURL: c.BaseURL, HTTPClient: c.HTTPClient, Headers: headers, t: c.t}
}

// Response wraps an HTTP response with helper methods.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	t          *testing.T
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) {
	r.t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		r.t.Fatalf("failed to unmarshal response: %v\nbody: %s", err, string(r.Body))
	}
}

// JSONMap returns the response body as a map.
func (r *Response) JSONMap() map[string]any {
	r.t.Helper()
	var m map[string]any
	r.JSON(&m)
	return m
}

// JSONArray returns the response body as a slice of objects.
func (r *Response) JSONArray() []map[string]any {
	r.t.Helper()
	var a []map[string]any
	r.JSON(&a)
	return a
}

// AssertStatus asserts the response has the expected status code.
func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	if r.StatusCode != expected {
		r.t.Errorf("expected status %d, got %d\nbody: %s", expected, r.StatusCode, string(r.Body))
	}
	return r
}

// AssertBodyContains asserts the response body contains the given substring.
func (r *Response) AssertBodyContains(substr string) *Response {
	r.t.Helper()
	if !strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body to contain %q, got: %s", substr, string(r.Body))
	}
	return r
}

// AssertErrorCode asserts the body is a Postmark error with the given code.
func (r *Response) AssertErrorCode(code int) *Response {
	r.t.Helper()
	var body struct {
		ErrorCode *int   `json:"ErrorCode"`
		Message   string `json:"Message"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil || body.ErrorCode == nil {
		r.t.Errorf("expected Postmark error body, got: %s", string(r.Body))
		return r
	}
	if *body.ErrorCode != code {
		r.t.Errorf("expected ErrorCode %d, got %d (%s)", code, *body.ErrorCode, body.Message)
	}
	return r
}

// Get performs a GET request.
func (c *TwinClient) Get(path string) *Response {
	c.t.Helper()
	return c.do(http.MethodGet, path, nil, nil)
}

// Post performs a POST request with a JSON body.
func (c *TwinClient) Post(path string, body any) *Response {
	c.t.Helper()
	return c.do(http.MethodPost, path, body, nil)
}

// PostRaw performs a POST request with a literal body.
func (c *TwinClient) PostRaw(path, contentType, body string) *Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, strings.NewReader(body))
	if err != nil {
		c.t.Fatalf("failed to create request: %v", err)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", contentType)
	return c.doReq(req)
}

// Patch performs a PATCH request with a JSON body.
func (c *TwinClient) Patch(path string, body any) *Response {
	c.t.Helper()
	return c.do(http.MethodPatch, path, body, nil)
}

// Delete performs a DELETE request.
func (c *TwinClient) Delete(path string) *Response {
	c.t.Helper()
	return c.do(http.MethodDelete, path, nil, nil)
}

// DoWithHeaders performs a request with custom headers.
func (c *TwinClient) DoWithHeaders(method, path string, body any, headers map[string]string) *Response {
	c.t.Helper()
	return c.do(method, path, body, headers)
}

func (c *TwinClient) do(method, path string, body any, headers map[string]string) *Response {
	c.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		c.t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.doReq(req)
}

func (c *TwinClient) doReq(req *http.Request) *Response {
	c.t.Helper()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("failed to read response: %v", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
		t:          c.t,
	}
}

// AdminClient provides convenience methods for the /admin/* control plane.
type AdminClient struct {
	*TwinClient
}

// NewAdminClient creates an admin client from a twin client.
func NewAdminClient(tc *TwinClient) *AdminClient {
	return &AdminClient{tc}
}

// Reset calls POST /admin/reset.
func (ac *AdminClient) Reset() *Response {
	ac.t.Helper()
	return ac.Post("/admin/reset", nil)
}

// GetState calls GET /admin/state.
func (ac *AdminClient) GetState() *Response {
	ac.t.Helper()
	return ac.Get("/admin/state")
}

// LoadState calls POST /admin/state with the given state data.
func (ac *AdminClient) LoadState(state any) *Response {
	ac.t.Helper()
	return ac.Post("/admin/state", state)
}

// InjectFault calls POST /admin/fault/{endpoint}.
func (ac *AdminClient) InjectFault(endpoint string, fault any) *Response {
	ac.t.Helper()
	return ac.Post("/admin/fault/"+strings.TrimPrefix(endpoint, "/"), fault)
}

// RemoveFault calls DELETE /admin/fault/{endpoint}.
func (ac *AdminClient) RemoveFault(endpoint string) *Response {
	ac.t.Helper()
	return ac.Delete("/admin/fault/" + strings.TrimPrefix(endpoint, "/"))
}

// GetRequests calls GET /admin/requests.
func (ac *AdminClient) GetRequests() *Response {
	ac.t.Helper()
	return ac.Get("/admin/requests")
}

// AdvanceTime calls POST /admin/time/advance.
func (ac *AdminClient) AdvanceTime(duration string) *Response {
	ac.t.Helper()
	return ac.Post("/admin/time/advance", map[string]string{"duration": duration})
}

// Emails calls GET /admin/emails with an optional raw query string.
func (ac *AdminClient) Emails(query string) *Response {
	ac.t.Helper()
	path := "/admin/emails"
	if query != "" {
		path += "?" + query
	}
	return ac.Get(path)
}

// Health calls GET /admin/health.
func (ac *AdminClient) Health() *Response {
	ac.t.Helper()
	return ac.Get("/admin/health")
}
