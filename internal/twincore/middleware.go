package twincore

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogEntry captures details of an incoming request for admin inspection.
type RequestLogEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers,omitempty"`
	StatusCode int               `json:"status_code"`
	Duration   time.Duration     `json:"duration_ms"`
	RequestID  string            `json:"request_id,omitempty"`
}

// RequestLog is a thread-safe ring buffer of recent requests.
type RequestLog struct {
	mu      sync.RWMutex
	entries []RequestLogEntry
	maxSize int
}

// NewRequestLog creates a request log with the given max size.
func NewRequestLog(maxSize int) *RequestLog {
	return &RequestLog{
		entries: make([]RequestLogEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, evicting the oldest if at capacity.
func (rl *RequestLog) Add(entry RequestLogEntry) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.entries) >= rl.maxSize {
		rl.entries = rl.entries[1:]
	}
	rl.entries = append(rl.entries, entry)
}

// Entries returns a copy of all log entries.
func (rl *RequestLog) Entries() []RequestLogEntry {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	out := make([]RequestLogEntry, len(rl.entries))
	copy(out, rl.entries)
	return out
}

// Clear removes all entries.
func (rl *RequestLog) Clear() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entries = rl.entries[:0]
}

// FaultConfig defines a fault injection for a specific endpoint path.
type FaultConfig struct {
	StatusCode int           `json:"status_code"`
	Body       string        `json:"body,omitempty"`
	Delay      time.Duration `json:"delay_ms,omitempty"`
	Rate       float64       `json:"rate"` // 0.0-1.0, probability of fault triggering
}

// FaultRegistry manages injected faults keyed by request path.
type FaultRegistry struct {
	mu     sync.RWMutex
	faults map[string]FaultConfig
}

// NewFaultRegistry creates a new fault registry.
func NewFaultRegistry() *FaultRegistry {
	return &FaultRegistry{
		faults: make(map[string]FaultConfig),
	}
}

// Set injects a fault for the given path. A zero rate means always.
func (fr *FaultRegistry) Set(path string, fault FaultConfig) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fault.Rate == 0 {
		fault.Rate = 1.0
	}
	fr.faults[path] = fault
}

// Remove removes the fault for the given path.
func (fr *FaultRegistry) Remove(path string) bool {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	_, existed := fr.faults[path]
	delete(fr.faults, path)
	return existed
}

// Check returns the fault for path if one is registered and fires, or nil.
func (fr *FaultRegistry) Check(path string) *FaultConfig {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	if f, ok := fr.faults[path]; ok {
		if f.Rate >= 1.0 || rand.Float64() < f.Rate {
			return &f
		}
	}
	return nil
}

// All returns all registered faults.
func (fr *FaultRegistry) All() map[string]FaultConfig {
	fr.mu.RLock()
	defer fr.mu.RUnlock()
	out := make(map[string]FaultConfig, len(fr.faults))
	for k, v := range fr.faults {
		out[k] = v
	}
	return out
}

// Reset clears all faults.
func (fr *FaultRegistry) Reset() {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.faults = make(map[string]FaultConfig)
}

// Middleware provides the common middleware functions of the twin.
type Middleware struct {
	mu     sync.RWMutex // guards the runtime-adjustable cfg fields
	cfg    *Config
	logger *slog.Logger
	ReqLog *RequestLog
	Faults *FaultRegistry
}

// NewMiddleware creates a new Middleware instance. A nil logger discards output.
func NewMiddleware(cfg *Config, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Middleware{
		cfg:    cfg,
		logger: logger,
		ReqLog: NewRequestLog(1000),
		Faults: NewFaultRegistry(),
	}
}

type runtimeSettings struct {
	latency  time.Duration
	failRate float64
	verbose  bool
}

func (m *Middleware) settings() runtimeSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return runtimeSettings{
		latency:  m.cfg.Latency,
		failRate: m.cfg.FailRate,
		verbose:  m.cfg.Verbose,
	}
}

// CORS adds permissive CORS headers.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Postmark-Server-Token, X-Postmark-Account-Token")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLog middleware captures request details into the ring buffer.
func (m *Middleware) RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		verbose := m.settings().verbose
		entry := RequestLogEntry{
			Timestamp:  start,
			Method:     r.Method,
			Path:       r.URL.Path,
			StatusCode: rec.statusCode,
			Duration:   time.Since(start),
			RequestID:  chimw.GetReqID(r.Context()),
		}
		if verbose {
			entry.Headers = make(map[string]string)
			for k := range r.Header {
				entry.Headers[k] = r.Header.Get(k)
			}
		}
		m.ReqLog.Add(entry)

		if verbose {
			m.logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration", entry.Duration,
				"request_id", entry.RequestID,
			)
		}
	})
}

// LatencyInjection adds configurable latency to every request.
func (m *Middleware) LatencyInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if latency := m.settings().latency; latency > 0 {
			// 80-120% of the configured latency
			jitter := 0.8 + rand.Float64()*0.4
			time.Sleep(time.Duration(float64(latency) * jitter))
		}
		next.ServeHTTP(w, r)
	})
}

// RandomFailure randomly returns 500 errors based on the configured fail rate.
func (m *Middleware) RandomFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rate := m.settings().failRate; rate > 0 && rand.Float64() < rate {
			PostmarkError(w, http.StatusInternalServerError, http.StatusInternalServerError, "simulated random failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FaultInjection checks the fault registry and applies any matching fault.
// Mount it inside API route groups only, so admin endpoints are never affected.
func (m *Middleware) FaultInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fault := m.Faults.Check(r.URL.Path); fault != nil {
			if fault.Delay > 0 {
				time.Sleep(fault.Delay)
			}
			if fault.StatusCode > 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(fault.StatusCode)
				if fault.Body != "" {
					fmt.Fprint(w, fault.Body)
				} else {
					fmt.Fprintf(w, `{"ErrorCode":%d,"Message":"injected fault"}`, fault.StatusCode)
				}
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
