package store_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
)

func TestRenderTemplate_Deterministic(t *testing.T) {
	t.Parallel()

	ref := store.TemplateRef{ID: ptr(int64(9876))}
	model := map[string]any{"a": "b"}

	first, err := store.RenderTemplate(ref, model)
	require.NoError(t, err)
	second, err := store.RenderTemplate(ref, model)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Subject, "ID: 9876")
	assert.Contains(t, first.Subject, "Alias: N/A")
}

func TestRenderTemplate_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ref   store.TemplateRef
		model map[string]any
		want  store.RenderedContent
	}{
		{
			name:  "id only",
			ref:   store.TemplateRef{ID: ptr(int64(9876))},
			model: map[string]any{"a": "b"},
			want: store.RenderedContent{
				Subject:  "Templated Subject (ID: 9876, Alias: N/A)",
				HTMLBody: `<h1>Templated Email</h1><p>Template ID: 9876, Template Alias: N/A</p><p>Model: {"a":"b"}</p>`,
				TextBody: `Templated Email. Template ID: 9876, Template Alias: N/A. Model: {"a":"b"}`,
			},
		},
		{
			name:  "alias only",
			ref:   store.TemplateRef{Alias: ptr("welcome")},
			model: map[string]any{"name": "Jane"},
			want: store.RenderedContent{
				Subject:  "Templated Subject (ID: N/A, Alias: welcome)",
				HTMLBody: `<h1>Templated Email</h1><p>Template ID: N/A, Template Alias: welcome</p><p>Model: {"name":"Jane"}</p>`,
				TextBody: `Templated Email. Template ID: N/A, Template Alias: welcome. Model: {"name":"Jane"}`,
			},
		},
		{
			name:  "both",
			ref:   store.TemplateRef{ID: ptr(int64(1)), Alias: ptr("x")},
			model: map[string]any{},
			want: store.RenderedContent{
				Subject:  "Templated Subject (ID: 1, Alias: x)",
				HTMLBody: `<h1>Templated Email</h1><p>Template ID: 1, Template Alias: x</p><p>Model: {}</p>`,
				TextBody: `Templated Email. Template ID: 1, Template Alias: x. Model: {}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.RenderTemplate(tt.ref, tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalJSON(t *testing.T) {
	t.Parallel()

	model := map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"y": true, "b": nil},
		"html":  "<b>&</b>",
		"list":  []any{"x", json.Number("12345678901234567890")},
	}

	got, err := store.CanonicalJSON(model)
	require.NoError(t, err)
	assert.Equal(t,
		`{"alpha":{"b":null,"y":true},"html":"<b>&</b>","list":["x",12345678901234567000],"zeta":1}`,
		got,
	)

	again, err := store.CanonicalJSON(model)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	empty, err := store.CanonicalJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)
}

func TestCanonicalJSON_NumberSpellings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"1", `{"n":1}`},
		{"1.0", `{"n":1}`},
		{"1e0", `{"n":1}`},
		{"1E+0", `{"n":1}`},
		{"10.0", `{"n":10}`},
		{"-0.0", `{"n":0}`},
		{"-3.50", `{"n":-3.5}`},
		{"2.5e-1", `{"n":0.25}`},
		{"1e21", `{"n":1e+21}`},
		{"9223372036854775807", `{"n":9223372036854775807}`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := store.CanonicalJSON(map[string]any{"n": json.Number(tt.in)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalJSON_NestedNumbersAndInputUntouched(t *testing.T) {
	t.Parallel()

	model := map[string]any{
		"outer": map[string]any{"list": []any{json.Number("2.0"), json.Number("2")}},
	}
	got, err := store.CanonicalJSON(model)
	require.NoError(t, err)
	assert.Equal(t, `{"outer":{"list":[2,2]}}`, got)

	inner := model["outer"].(map[string]any)["list"].([]any)
	assert.Equal(t, json.Number("2.0"), inner[0])
}

func TestCanonicalJSON_OutOfRangeNumber(t *testing.T) {
	t.Parallel()

	_, err := store.CanonicalJSON(map[string]any{"n": json.Number("1e400")})
	require.Error(t, err)
}

func TestRenderTemplate_NumberSpellingsRenderIdentically(t *testing.T) {
	t.Parallel()

	ref := store.TemplateRef{ID: ptr(int64(7))}
	first, err := store.RenderTemplate(ref, map[string]any{"n": json.Number("1")})
	require.NoError(t, err)
	for _, spelling := range []string{"1.0", "1e0", "1E+0"} {
		got, err := store.RenderTemplate(ref, map[string]any{"n": json.Number(spelling)})
		require.NoError(t, err)
		assert.Equal(t, first, got, spelling)
	}
	assert.Equal(t, `Templated Email. Template ID: 7, Template Alias: N/A. Model: {"n":1}`, first.TextBody)
}

func TestRenderTemplate_UnencodableModel(t *testing.T) {
	t.Parallel()

	_, err := store.RenderTemplate(store.TemplateRef{ID: ptr(int64(1))}, map[string]any{"f": func() {}})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}
