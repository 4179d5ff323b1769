// Package twincore provides the base HTTP server, configuration, middleware
// chain, and response helpers of the Postmark twin.
package twincore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Twin is the base server. It wraps a chi router with common middleware and
// provides lifecycle management.
type Twin struct {
	Config *Config
	Router *chi.Mux
	Logger *slog.Logger
	mw     *Middleware
}

// NewLogger returns the twin's JSON logger writing to w.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// New creates a new Twin with the given config, logging to stdout.
func New(cfg *Config) *Twin {
	return NewWithLogger(cfg, NewLogger(os.Stdout, cfg.Verbose))
}

// NewWithLogger creates a new Twin that logs to logger. A nil logger discards output.
func NewWithLogger(cfg *Config, logger *slog.Logger) *Twin {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := chi.NewRouter()
	mw := NewMiddleware(cfg, logger)

	// Latency and failure middleware are always mounted; they check the
	// config on every request so runtime updates apply immediately.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.CORS)
	r.Use(mw.RequestLog)
	r.Use(mw.LatencyInjection)
	r.Use(mw.RandomFailure)

	return &Twin{
		Config: cfg,
		Router: r,
		Logger: logger,
		mw:     mw,
	}
}

// Middleware returns the middleware instance for external access (e.g., fault injection).
func (t *Twin) Middleware() *Middleware {
	return t.mw
}

// GetConfig returns the current runtime configuration as a map.
func (t *Twin) GetConfig() map[string]any {
	t.mw.mu.RLock()
	defer t.mw.mu.RUnlock()
	return map[string]any{
		"name":                t.Config.Name,
		"port":                t.Config.Port,
		"latency":             t.Config.Latency.String(),
		"fail_rate":           t.Config.FailRate,
		"verbose":             t.Config.Verbose,
		"server_token_locked": t.Config.ServerToken != "",
	}
}

// UpdateConfig updates runtime configuration fields from a map.
// Only latency, fail_rate and verbose can change at runtime. All fields are
// validated before any is applied.
func (t *Twin) UpdateConfig(updates map[string]any) error {
	type configUpdate struct {
		latency  *time.Duration
		failRate *float64
		verbose  *bool
	}
	var cu configUpdate

	for k, v := range updates {
		switch k {
		case "latency":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("latency must be a duration string")
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("invalid latency duration: %w", err)
			}
			if d < 0 {
				return fmt.Errorf("latency must not be negative")
			}
			cu.latency = &d
		case "fail_rate":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("fail_rate must be a number")
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("fail_rate must be between 0.0 and 1.0")
			}
			cu.failRate = &f
		case "verbose":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("verbose must be a boolean")
			}
			cu.verbose = &b
		case "name", "port", "server_token", "server_token_locked":
			return fmt.Errorf("%s cannot be changed at runtime", k)
		default:
			return fmt.Errorf("unknown config key: %s", k)
		}
	}

	t.mw.mu.Lock()
	defer t.mw.mu.Unlock()
	if cu.latency != nil {
		t.Config.Latency = *cu.latency
	}
	if cu.failRate != nil {
		t.Config.FailRate = *cu.failRate
	}
	if cu.verbose != nil {
		t.Config.Verbose = *cu.verbose
	}
	return nil
}

// Serve starts the HTTP server and blocks until ctx is done, then shuts down gracefully.
func (t *Twin) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", t.Config.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:      t.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		t.Logger.Info("starting twin", "name", t.Config.Name, "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	t.Logger.Info("shutting down twin", "name", t.Config.Name)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ServeHTTP implements http.Handler so Twin can be used directly in tests.
func (t *Twin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.Router.ServeHTTP(w, r)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes a generic JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    http.StatusText(status),
			"code":    status,
		},
	})
}

// Postmark API error codes used by the twin.
const (
	CodeBadToken         = 10
	CodeInvalidRequest   = 300
	CodeInvalidJSON      = 402
	CodeTemplateNotFound = 1101
)

// PostmarkError writes an error response in Postmark's error format.
func PostmarkError(w http.ResponseWriter, status, code int, message string) {
	JSON(w, status, map[string]any{
		"ErrorCode": code,
		"Message":   message,
	})
}
