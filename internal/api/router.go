// Package api implements the Postmark-compatible HTTP API of the twin.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

// Postmark authentication headers.
const (
	headerServerToken  = "X-Postmark-Server-Token"
	headerAccountToken = "X-Postmark-Account-Token"
)

// Handler holds all API handler state.
type Handler struct {
	store       *store.MemoryStore
	mw          *twincore.Middleware
	logger      *slog.Logger
	serverToken string
}

// NewHandler creates a new API handler. When serverToken is non-empty, the
// Postmark API routes only accept requests carrying that server token.
func NewHandler(s *store.MemoryStore, mw *twincore.Middleware, logger *slog.Logger, serverToken string) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{store: s, mw: mw, logger: logger, serverToken: serverToken}
}

// Routes mounts the Postmark API routes, the fake inspection routes and the
// admin extras.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.tokenAuthMiddleware)
		r.Use(h.mw.FaultInjection)

		r.Post("/email", h.SendEmail)
		r.Post("/email/batch", h.SendBatch)
		r.Post("/email/withTemplate", h.SendEmailWithTemplate)
		r.Post("/email/batchWithTemplates", h.SendBatchWithTemplates)

		r.Post("/templates", h.CreateTemplate)
		r.Get("/templates", h.ListTemplates)
		r.Get("/templates/{idOrAlias}", h.GetTemplate)
	})

	// Fake and debug routes (no auth required)
	r.Get("/health", h.Health)
	r.Get("/_fake/emails/list", h.FakeListEmails)
	r.Post("/_fake/things", h.FakeCreateThing)
	r.Get("/_fake/things", h.FakeListThings)
	r.Get("/admin/emails", h.AdminListEmails)
}

// tokenAuthMiddleware validates Postmark-style token auth. Without a pinned
// server token every request is accepted, with or without token headers.
// With one, the server-scoped API requires a matching X-Postmark-Server-Token;
// an account token alone does not satisfy it.
func (h *Handler) tokenAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.serverToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		server := r.Header.Get(headerServerToken)
		account := r.Header.Get(headerAccountToken)
		if server == "" && account == "" {
			twincore.PostmarkError(w, http.StatusUnauthorized, twincore.CodeBadToken,
				"No Account or Server API tokens were supplied in the HTTP headers. Please add a header for either X-Postmark-Server-Token or X-Postmark-Account-Token.")
			return
		}
		if server != h.serverToken {
			twincore.PostmarkError(w, http.StatusUnauthorized, twincore.CodeBadToken,
				"Request does not contain a valid Server token.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
