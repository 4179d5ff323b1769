package store

// effectiveType resolves the template type, defaulting to Standard.
func effectiveType(t string) string {
	if t == "" {
		return TemplateTypeStandard
	}
	return t
}

func present(s *string) bool {
	return s != nil && *s != ""
}

// CheckTemplate enforces the template business rules in order and returns
// the first violation:
//
//  1. Standard templates must have a Subject.
//  2. Layout templates must not have a Subject.
//  3. HtmlBody or TextBody must be provided.
//
// A Subject on a Layout template is rejected, not dropped.
func CheckTemplate(in TemplateCreateInput) error {
	switch effectiveType(in.TemplateType) {
	case TemplateTypeStandard:
		if in.Subject == nil {
			return ErrSubjectRequired
		}
	case TemplateTypeLayout:
		if in.Subject != nil {
			return ErrSubjectNotAllowed
		}
	default:
		return invalid("TemplateType must be Standard or Layout; got %q", in.TemplateType)
	}
	if !present(in.HTMLBody) && !present(in.TextBody) {
		return ErrBodyRequired
	}
	return nil
}

// buildTemplate turns an accepted creation request into a Template with the
// given id. Unsupplied Alias and LayoutTemplate become explicitly absent.
func buildTemplate(id int64, in TemplateCreateInput) Template {
	t := Template{
		TemplateID:     id,
		Name:           in.Name,
		Alias:          FromPtr(in.Alias),
		HTMLBody:       in.HTMLBody,
		TextBody:       in.TextBody,
		TemplateType:   effectiveType(in.TemplateType),
		LayoutTemplate: FromPtr(in.LayoutTemplate),
		Active:         true,
	}
	if t.TemplateType == TemplateTypeStandard {
		t.Subject = in.Subject
	}
	return t
}
