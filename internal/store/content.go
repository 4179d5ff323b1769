package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// TemplateRef identifies a template by numeric id, alias, or both.
type TemplateRef struct {
	ID    *int64
	Alias *string
}

// RenderedContent is the generated body of a templated send.
type RenderedContent struct {
	Subject  string
	HTMLBody string
	TextBody string
}

const notAvailable = "N/A"

// RenderTemplate produces placeholder content for a templated send. Stored
// templates are not consulted and no variables are substituted: the output
// embeds the reference and the canonical JSON of the model, and is a pure
// function of its inputs. When both id and alias are set both are rendered.
func RenderTemplate(ref TemplateRef, model map[string]any) (RenderedContent, error) {
	id := notAvailable
	if ref.ID != nil {
		id = strconv.FormatInt(*ref.ID, 10)
	}
	alias := notAvailable
	if ref.Alias != nil {
		alias = *ref.Alias
	}

	modelJSON, err := CanonicalJSON(model)
	if err != nil {
		return RenderedContent{}, fmt.Errorf("%w: TemplateModel: %v", ErrInvalidInput, err)
	}

	return RenderedContent{
		Subject: fmt.Sprintf("Templated Subject (ID: %s, Alias: %s)", id, alias),
		HTMLBody: fmt.Sprintf(
			"<h1>Templated Email</h1><p>Template ID: %s, Template Alias: %s</p><p>Model: %s</p>",
			id, alias, modelJSON,
		),
		TextBody: fmt.Sprintf("Templated Email. Template ID: %s, Template Alias: %s. Model: %s", id, alias, modelJSON),
	}, nil
}

// CanonicalJSON encodes a model with sorted object keys and without HTML
// escaping. Numbers are written in one spelling regardless of how they were
// received: integers that fit in int64 as plain integers, everything else in
// the shortest float form. A nil model encodes as {}.
func CanonicalJSON(model map[string]any) (string, error) {
	if model == nil {
		return "{}", nil
	}
	normalized, err := canonicalValue(model)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// canonicalValue returns a copy of v with every json.Number replaced by an
// int64 or float64. The input is not modified.
func canonicalValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			c, err := canonicalValue(elem)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			c, err := canonicalValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case json.Number:
		return canonicalNumber(t)
	default:
		return v, nil
	}
}

func canonicalNumber(n json.Number) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, fmt.Errorf("number %s: %w", n, err)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	return f, nil
}
