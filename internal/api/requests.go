package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/twincore"
)

// headerParam is Postmark's wire form of a custom header.
type headerParam struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// envelopeParams are the request fields shared by direct and templated sends.
type envelopeParams struct {
	From          string             `json:"From"`
	To            string             `json:"To"`
	Cc            string             `json:"Cc,omitempty"`
	Bcc           string             `json:"Bcc,omitempty"`
	Tag           string             `json:"Tag,omitempty"`
	ReplyTo       string             `json:"ReplyTo,omitempty"`
	Headers       []headerParam      `json:"Headers,omitempty"`
	TrackOpens    *bool              `json:"TrackOpens,omitempty"`
	TrackLinks    string             `json:"TrackLinks,omitempty"`
	Metadata      map[string]string  `json:"Metadata,omitempty"`
	Attachments   []store.Attachment `json:"Attachments,omitempty"`
	MessageStream string             `json:"MessageStream,omitempty"`
}

// sendEmailRequest matches the Postmark POST /email request body.
type sendEmailRequest struct {
	envelopeParams
	Subject  string `json:"Subject,omitempty"`
	HTMLBody string `json:"HtmlBody,omitempty"`
	TextBody string `json:"TextBody,omitempty"`
}

// sendTemplatedEmailRequest matches the Postmark POST /email/withTemplate request body.
type sendTemplatedEmailRequest struct {
	envelopeParams
	TemplateID    *int64         `json:"TemplateId,omitempty"`
	TemplateAlias *string        `json:"TemplateAlias,omitempty"`
	TemplateModel map[string]any `json:"TemplateModel"`
	InlineCSS     *bool          `json:"InlineCss,omitempty"`
}

// createTemplateRequest matches the Postmark POST /templates request body.
type createTemplateRequest struct {
	Name           string  `json:"Name"`
	Alias          *string `json:"Alias,omitempty"`
	Subject        *string `json:"Subject,omitempty"`
	HTMLBody       *string `json:"HtmlBody,omitempty"`
	TextBody       *string `json:"TextBody,omitempty"`
	TemplateType   string  `json:"TemplateType,omitempty"`
	LayoutTemplate *string `json:"LayoutTemplate,omitempty"`
}

// sendResponse is Postmark's per-message send result.
type sendResponse struct {
	To          string `json:"To,omitempty"`
	SubmittedAt string `json:"SubmittedAt,omitempty"`
	MessageID   string `json:"MessageID,omitempty"`
	ErrorCode   int    `json:"ErrorCode"`
	Message     string `json:"Message"`
}

func newSendResponse(e store.Email) sendResponse {
	return sendResponse{
		To:          e.To,
		SubmittedAt: e.SubmittedAt,
		MessageID:   e.MessageID,
		ErrorCode:   e.ErrorCode,
		Message:     e.StatusMessage,
	}
}

// requestError is a client error with its Postmark status and error code.
type requestError struct {
	status  int
	code    int
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func invalidRequest(format string, args ...any) *requestError {
	return &requestError{
		status:  http.StatusUnprocessableEntity,
		code:    twincore.CodeInvalidRequest,
		message: fmt.Sprintf(format, args...),
	}
}

// decodeJSON decodes a request body, keeping numbers in free-form values
// exact so templated models serialize as sent.
func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &requestError{
			status:  http.StatusBadRequest,
			code:    twincore.CodeInvalidJSON,
			message: "Provided request body is not valid JSON: " + err.Error(),
		}
	}
	return nil
}

// checkAddresses validates an address list field. Empty optional fields pass.
func checkAddresses(field, value string, required bool) error {
	if strings.TrimSpace(value) == "" {
		if required {
			return invalidRequest("Invalid '%s' address: a value is required.", field)
		}
		return nil
	}
	if _, err := mail.ParseAddressList(value); err != nil {
		return invalidRequest("Invalid '%s' address: '%s'.", field, value)
	}
	return nil
}

// toEnvelope checks request-level field formats and converts the wire form
// into the store's Envelope. Duplicate header names keep the last value.
func (p envelopeParams) toEnvelope() (store.Envelope, error) {
	if err := checkAddresses("From", p.From, true); err != nil {
		return store.Envelope{}, err
	}
	if err := checkAddresses("To", p.To, true); err != nil {
		return store.Envelope{}, err
	}
	for field, value := range map[string]string{"Cc": p.Cc, "Bcc": p.Bcc, "ReplyTo": p.ReplyTo} {
		if err := checkAddresses(field, value, false); err != nil {
			return store.Envelope{}, err
		}
	}

	var headers map[string]string
	if len(p.Headers) > 0 {
		headers = make(map[string]string, len(p.Headers))
		for _, hdr := range p.Headers {
			headers[hdr.Name] = hdr.Value
		}
	}

	return store.Envelope{
		From:          p.From,
		To:            p.To,
		Cc:            p.Cc,
		Bcc:           p.Bcc,
		Tag:           p.Tag,
		ReplyTo:       p.ReplyTo,
		Headers:       headers,
		TrackOpens:    p.TrackOpens,
		TrackLinks:    p.TrackLinks,
		Metadata:      p.Metadata,
		Attachments:   p.Attachments,
		MessageStream: p.MessageStream,
	}, nil
}

func (req sendEmailRequest) toInput() (store.EmailInput, error) {
	env, err := req.toEnvelope()
	if err != nil {
		return store.EmailInput{}, err
	}
	return store.EmailInput{
		Envelope: env,
		Subject:  req.Subject,
		HTMLBody: req.HTMLBody,
		TextBody: req.TextBody,
	}, nil
}

func (req sendTemplatedEmailRequest) toInput() (store.TemplatedEmailInput, error) {
	env, err := req.toEnvelope()
	if err != nil {
		return store.TemplatedEmailInput{}, err
	}
	// SDKs without omitempty send zero values for the unused reference.
	if req.TemplateID != nil && *req.TemplateID == 0 {
		req.TemplateID = nil
	}
	if req.TemplateAlias != nil && *req.TemplateAlias == "" {
		req.TemplateAlias = nil
	}
	if req.TemplateID == nil && req.TemplateAlias == nil {
		return store.TemplatedEmailInput{}, invalidRequest("Either TemplateId or TemplateAlias must be provided.")
	}
	if req.TemplateModel == nil {
		return store.TemplatedEmailInput{}, invalidRequest("TemplateModel is required.")
	}
	return store.TemplatedEmailInput{
		Envelope:      env,
		TemplateID:    req.TemplateID,
		TemplateAlias: req.TemplateAlias,
		TemplateModel: req.TemplateModel,
	}, nil
}

func (req createTemplateRequest) toInput() store.TemplateCreateInput {
	return store.TemplateCreateInput{
		Name:           req.Name,
		Alias:          req.Alias,
		Subject:        req.Subject,
		HTMLBody:       req.HTMLBody,
		TextBody:       req.TextBody,
		TemplateType:   req.TemplateType,
		LayoutTemplate: req.LayoutTemplate,
	}
}

// classify maps request and store errors onto Postmark status and error codes.
func classify(err error) *requestError {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		return invalidRequest("%s", verr.Message)
	}
	if errors.Is(err, store.ErrInvalidInput) {
		return invalidRequest("%s", err.Error())
	}
	return &requestError{
		status:  http.StatusInternalServerError,
		code:    http.StatusInternalServerError,
		message: err.Error(),
	}
}

func writeError(w http.ResponseWriter, err error) {
	e := classify(err)
	twincore.PostmarkError(w, e.status, e.code, e.message)
}
