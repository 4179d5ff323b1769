// Package store defines the Postmark twin's records, the rules that guard
// them, and the in-memory store that owns them.
package store

import (
	"bytes"
	"encoding/json"
)

// Thing is a generic record used by clients to exercise the twin's fake surface.
type Thing struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ThingInput is the caller-supplied part of a Thing.
type ThingInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TrackLinks values accepted by Postmark.
const (
	TrackLinksNone        = "None"
	TrackLinksHTMLAndText = "HtmlAndText"
	TrackLinksHTMLOnly    = "HtmlOnly"
	TrackLinksTextOnly    = "TextOnly"
)

// Attachment is a base64-encoded file attached to an email.
type Attachment struct {
	Name        string  `json:"Name"`
	Content     string  `json:"Content"`
	ContentType string  `json:"ContentType"`
	ContentID   *string `json:"ContentID,omitempty"`
}

// Envelope holds the fields shared by direct and templated sends.
type Envelope struct {
	From          string            `json:"From"`
	To            string            `json:"To"`
	Cc            string            `json:"Cc,omitempty"`
	Bcc           string            `json:"Bcc,omitempty"`
	Tag           string            `json:"Tag,omitempty"`
	ReplyTo       string            `json:"ReplyTo,omitempty"`
	Headers       map[string]string `json:"Headers,omitempty"`
	TrackOpens    *bool             `json:"TrackOpens,omitempty"`
	TrackLinks    string            `json:"TrackLinks,omitempty"`
	Metadata      map[string]string `json:"Metadata,omitempty"`
	Attachments   []Attachment      `json:"Attachments,omitempty"`
	MessageStream string            `json:"MessageStream,omitempty"`
}

// Email is one accepted send, direct or templated. Emails are never mutated
// once stored.
type Email struct {
	MessageID string `json:"MessageID"`
	Envelope
	Subject  string `json:"Subject,omitempty"`
	HTMLBody string `json:"HtmlBody,omitempty"`
	TextBody string `json:"TextBody,omitempty"`

	TemplateID    *int64         `json:"TemplateId,omitempty"`
	TemplateAlias *string        `json:"TemplateAlias,omitempty"`
	TemplateModel map[string]any `json:"TemplateModel,omitempty"`

	SubmittedAt   string `json:"SubmittedAt"`
	ErrorCode     int    `json:"ErrorCode"`
	StatusMessage string `json:"StatusMessage"`
}

// EmailInput is a direct send request; server-assigned fields are absent by construction.
type EmailInput struct {
	Envelope
	Subject  string
	HTMLBody string
	TextBody string
}

// TemplatedEmailInput is a templated send request. At least one of
// TemplateID and TemplateAlias must be set.
type TemplatedEmailInput struct {
	Envelope
	TemplateID    *int64
	TemplateAlias *string
	TemplateModel map[string]any
}

// Template types.
const (
	TemplateTypeStandard = "Standard"
	TemplateTypeLayout   = "Layout"
)

// Template is a stored message template.
type Template struct {
	TemplateID     int64            `json:"TemplateId"`
	Name           string           `json:"Name"`
	Alias          Optional[string] `json:"Alias"`
	Subject        *string          `json:"Subject,omitempty"`
	HTMLBody       *string          `json:"HtmlBody,omitempty"`
	TextBody       *string          `json:"TextBody,omitempty"`
	TemplateType   string           `json:"TemplateType"`
	LayoutTemplate Optional[string] `json:"LayoutTemplate"`
	Active         bool             `json:"Active"`
}

// TemplateCreateInput is a template creation request. Nil pointers mean the
// caller did not supply the field.
type TemplateCreateInput struct {
	Name           string
	Alias          *string
	Subject        *string
	HTMLBody       *string
	TextBody       *string
	TemplateType   string
	LayoutTemplate *string
}

// Optional is a field that is either present with a value or explicitly
// absent. Absent values serialize as JSON null.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an explicitly absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr maps nil to None and anything else to Some.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
