package store

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// ValidateThingInput checks the structural shape of a Thing creation request.
func ValidateThingInput(in ThingInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	return nil
}

func validTrackLinks(v string) bool {
	switch v {
	case "", TrackLinksNone, TrackLinksHTMLAndText, TrackLinksHTMLOnly, TrackLinksTextOnly:
		return true
	}
	return false
}

// ValidateEnvelope checks the fields shared by every send.
func ValidateEnvelope(env Envelope) error {
	if strings.TrimSpace(env.From) == "" {
		return invalid("From is required")
	}
	if strings.TrimSpace(env.To) == "" {
		return invalid("To is required")
	}
	if !validTrackLinks(env.TrackLinks) {
		return invalid("TrackLinks must be one of None, HtmlAndText, HtmlOnly, TextOnly; got %q", env.TrackLinks)
	}
	for name := range env.Headers {
		if strings.TrimSpace(name) == "" {
			return invalid("header names must not be empty")
		}
	}
	for i, a := range env.Attachments {
		if a.Name == "" {
			return invalid("Attachments[%d].Name is required", i)
		}
		if a.ContentType == "" {
			return invalid("Attachments[%d].ContentType is required", i)
		}
		if _, err := base64.StdEncoding.DecodeString(a.Content); err != nil {
			return invalid("Attachments[%d].Content is not valid base64", i)
		}
	}
	return nil
}

// ValidateEmailInput checks a direct send request.
func ValidateEmailInput(in EmailInput) error {
	return ValidateEnvelope(in.Envelope)
}

// ValidateTemplatedEmailInput checks a templated send request.
func ValidateTemplatedEmailInput(in TemplatedEmailInput) error {
	if err := ValidateEnvelope(in.Envelope); err != nil {
		return err
	}
	if in.TemplateID == nil && in.TemplateAlias == nil {
		return invalid("either TemplateId or TemplateAlias is required")
	}
	if in.TemplateModel == nil {
		return invalid("TemplateModel is required")
	}
	return nil
}

// ValidateTemplateInput checks the structural shape of a template creation
// request. Business rules live in CheckTemplate.
func ValidateTemplateInput(in TemplateCreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("Name is required.")
	}
	switch in.TemplateType {
	case "", TemplateTypeStandard, TemplateTypeLayout:
	default:
		return invalid("TemplateType must be Standard or Layout; got %q", in.TemplateType)
	}
	return nil
}

// ValidateThing checks a stored Thing, e.g. one loaded from a snapshot.
func ValidateThing(th Thing) error {
	if th.ID == "" {
		return invalid("thing id is required")
	}
	return ValidateThingInput(ThingInput{Name: th.Name, Description: th.Description})
}

// ValidateEmail checks a stored Email record.
func ValidateEmail(e Email) error {
	if e.MessageID == "" {
		return invalid("MessageID is required")
	}
	if _, err := time.Parse(time.RFC3339Nano, e.SubmittedAt); err != nil {
		return invalid("SubmittedAt %q is not an ISO-8601 timestamp", e.SubmittedAt)
	}
	if e.StatusMessage == "" {
		return invalid("StatusMessage is required")
	}
	return ValidateEnvelope(e.Envelope)
}

// ValidateTemplate checks a stored Template record, including the
// Standard/Layout subject invariant.
func ValidateTemplate(t Template) error {
	if t.TemplateID < firstTemplateID {
		return invalid("TemplateId must be positive; got %d", t.TemplateID)
	}
	in := TemplateCreateInput{
		Name:         t.Name,
		Subject:      t.Subject,
		HTMLBody:     t.HTMLBody,
		TextBody:     t.TextBody,
		TemplateType: t.TemplateType,
	}
	if t.TemplateType == "" {
		return invalid("TemplateType is required")
	}
	if err := ValidateTemplateInput(in); err != nil {
		return err
	}
	return CheckTemplate(in)
}
