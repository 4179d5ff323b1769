package api

import (
	"net/http"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

// batchTemplatesRequest matches the Postmark POST /email/batchWithTemplates body.
type batchTemplatesRequest struct {
	Messages []sendTemplatedEmailRequest `json:"Messages"`
}

// SendEmail handles POST /email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	email, err := h.sendOne(req)
	if err != nil {
		writeError(w, err)
		return
	}
	twincore.JSON(w, http.StatusOK, newSendResponse(email))
}

// SendBatch handles POST /email/batch. Rejected messages are reported inline
// and do not prevent the rest of the batch from being stored.
func (h *Handler) SendBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []sendEmailRequest
	if err := decodeJSON(r.Body, &reqs); err != nil {
		writeError(w, err)
		return
	}

	results := make([]sendResponse, 0, len(reqs))
	for _, req := range reqs {
		email, err := h.sendOne(req)
		results = append(results, batchResult(email, err))
	}
	twincore.JSON(w, http.StatusOK, results)
}

// SendEmailWithTemplate handles POST /email/withTemplate
func (h *Handler) SendEmailWithTemplate(w http.ResponseWriter, r *http.Request) {
	var req sendTemplatedEmailRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	email, err := h.sendTemplated(req)
	if err != nil {
		writeError(w, err)
		return
	}
	twincore.JSON(w, http.StatusOK, newSendResponse(email))
}

// SendBatchWithTemplates handles POST /email/batchWithTemplates
func (h *Handler) SendBatchWithTemplates(w http.ResponseWriter, r *http.Request) {
	var req batchTemplatesRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, err)
		return
	}

	results := make([]sendResponse, 0, len(req.Messages))
	for _, msg := range req.Messages {
		email, err := h.sendTemplated(msg)
		results = append(results, batchResult(email, err))
	}
	twincore.JSON(w, http.StatusOK, results)
}

func (h *Handler) sendOne(req sendEmailRequest) (store.Email, error) {
	in, err := req.toInput()
	if err != nil {
		return store.Email{}, err
	}
	email, err := h.store.AddEmail(in)
	if err != nil {
		return store.Email{}, err
	}
	h.logger.Debug("email accepted", "message_id", email.MessageID, "to", email.To)
	return email, nil
}

func (h *Handler) sendTemplated(req sendTemplatedEmailRequest) (store.Email, error) {
	in, err := req.toInput()
	if err != nil {
		return store.Email{}, err
	}
	email, err := h.store.AddTemplatedEmail(in)
	if err != nil {
		return store.Email{}, err
	}
	h.logger.Debug("templated email accepted", "message_id", email.MessageID, "to", email.To)
	return email, nil
}

func batchResult(email store.Email, err error) sendResponse {
	if err != nil {
		e := classify(err)
		return sendResponse{ErrorCode: e.code, Message: e.message}
	}
	return newSendResponse(email)
}
