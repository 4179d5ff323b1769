package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

const (
	defaultTemplatePageSize = 100
	maxTemplatePageSize     = 500
)

// templateSummary is the body Postmark returns from template creation and
// in template listings.
type templateSummary struct {
	TemplateID     int64                  `json:"TemplateId"`
	Name           string                 `json:"Name"`
	Active         bool                   `json:"Active"`
	Alias          store.Optional[string] `json:"Alias"`
	TemplateType   string                 `json:"TemplateType"`
	LayoutTemplate store.Optional[string] `json:"LayoutTemplate"`
	Subject        *string                `json:"Subject,omitempty"`
}

func summarize(t store.Template) templateSummary {
	return templateSummary{
		TemplateID:     t.TemplateID,
		Name:           t.Name,
		Active:         t.Active,
		Alias:          t.Alias,
		TemplateType:   t.TemplateType,
		LayoutTemplate: t.LayoutTemplate,
		Subject:        t.Subject,
	}
}

// CreateTemplate handles POST /templates
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	tmpl, err := h.store.AddTemplate(req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Debug("template created", "template_id", tmpl.TemplateID, "type", tmpl.TemplateType)
	twincore.JSON(w, http.StatusOK, summarize(tmpl))
}

// ListTemplates handles GET /templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	count, err := queryInt(q.Get("count"), defaultTemplatePageSize)
	if err != nil || count < 1 || count > maxTemplatePageSize {
		twincore.PostmarkError(w, http.StatusUnprocessableEntity, twincore.CodeInvalidRequest,
			"The 'count' parameter must be between 1 and 500.")
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		twincore.PostmarkError(w, http.StatusUnprocessableEntity, twincore.CodeInvalidRequest,
			"The 'offset' parameter must be a non-negative integer.")
		return
	}

	page := h.store.ListTemplates(offset, count, q.Get("templateType"))
	templates := make([]templateSummary, 0, len(page.Data))
	for _, t := range page.Data {
		templates = append(templates, summarize(t))
	}

	twincore.JSON(w, http.StatusOK, map[string]any{
		"TotalCount": page.Total,
		"Templates":  templates,
	})
}

// GetTemplate handles GET /templates/{idOrAlias}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	idOrAlias := chi.URLParam(r, "idOrAlias")

	tmpl, ok := h.store.GetTemplate(idOrAlias)
	if !ok {
		twincore.PostmarkError(w, http.StatusNotFound, twincore.CodeTemplateNotFound,
			"The Template's 'TemplateId' or 'Alias' associated with this request is not valid or was not found.")
		return
	}

	twincore.JSON(w, http.StatusOK, tmpl)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
