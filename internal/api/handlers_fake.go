package api

import (
	"net/http"
	"strings"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// FakeListEmails handles GET /_fake/emails/list
func (h *Handler) FakeListEmails(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, map[string]any{
		"emails": h.store.ListEmails(),
	})
}

// FakeCreateThing handles POST /_fake/things
func (h *Handler) FakeCreateThing(w http.ResponseWriter, r *http.Request) {
	var in store.ThingInput
	if err := decodeJSON(r.Body, &in); err != nil {
		writeError(w, err)
		return
	}

	thing, err := h.store.AddThing(in)
	if err != nil {
		writeError(w, err)
		return
	}
	twincore.JSON(w, http.StatusCreated, thing)
}

// FakeListThings handles GET /_fake/things
func (h *Handler) FakeListThings(w http.ResponseWriter, r *http.Request) {
	twincore.JSON(w, http.StatusOK, map[string]any{
		"things": h.store.ListThings(),
	})
}

// AdminListEmails handles GET /admin/emails with optional to, tag and
// subject filters. Address and subject matching is case-insensitive.
func (h *Handler) AdminListEmails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := strings.ToLower(q.Get("to"))
	tag := q.Get("tag")
	subject := strings.ToLower(q.Get("subject"))

	emails := h.store.FilterEmails(func(e store.Email) bool {
		if to != "" && !strings.Contains(strings.ToLower(e.To), to) {
			return false
		}
		if tag != "" && e.Tag != tag {
			return false
		}
		if subject != "" && !strings.Contains(strings.ToLower(e.Subject), subject) {
			return false
		}
		return true
	})

	twincore.JSON(w, http.StatusOK, map[string]any{
		"emails": emails,
		"total":  len(emails),
	})
}
