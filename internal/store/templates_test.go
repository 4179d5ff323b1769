package store_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wondertwin-ai/wondertwin/twin-postmark/internal/store"
)

func TestCheckTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      store.TemplateCreateInput
		wantErr error
		wantMsg string
	}{
		{
			name:    "standard without subject",
			in:      store.TemplateCreateInput{Name: "t", TemplateType: store.TemplateTypeStandard, HTMLBody: ptr("b")},
			wantErr: store.ErrSubjectRequired,
			wantMsg: "Subject is required for Standard templates.",
		},
		{
			name:    "default type without subject",
			in:      store.TemplateCreateInput{Name: "t", TextBody: ptr("b")},
			wantErr: store.ErrSubjectRequired,
		},
		{
			name:    "layout with subject",
			in:      store.TemplateCreateInput{Name: "t", TemplateType: store.TemplateTypeLayout, Subject: ptr("x"), HTMLBody: ptr("y")},
			wantErr: store.ErrSubjectNotAllowed,
			wantMsg: "Subject is not allowed for Layout templates.",
		},
		{
			name:    "standard without bodies",
			in:      store.TemplateCreateInput{Name: "t", TemplateType: store.TemplateTypeStandard, Subject: ptr("s")},
			wantErr: store.ErrBodyRequired,
			wantMsg: "Either HtmlBody or TextBody must be provided.",
		},
		{
			name:    "empty bodies count as absent",
			in:      store.TemplateCreateInput{Name: "t", Subject: ptr("s"), HTMLBody: ptr(""), TextBody: ptr("")},
			wantErr: store.ErrBodyRequired,
		},
		{
			name:    "subject rule checked before body rule",
			in:      store.TemplateCreateInput{Name: "t", TemplateType: store.TemplateTypeLayout, Subject: ptr("x")},
			wantErr: store.ErrSubjectNotAllowed,
		},
		{
			name: "standard with text body",
			in:   store.TemplateCreateInput{Name: "t", Subject: ptr("s"), TextBody: ptr("b")},
		},
		{
			name: "layout with html body",
			in:   store.TemplateCreateInput{Name: "t", TemplateType: store.TemplateTypeLayout, HTMLBody: ptr("b")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := store.CheckTemplate(tt.in)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}

			var verr *store.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestAddTemplate_RejectionsLeaveStoreUntouched(t *testing.T) {
	t.Parallel()

	s := store.New()
	_, err := s.AddTemplate(store.TemplateCreateInput{Name: "t", TemplateType: store.TemplateTypeLayout, Subject: ptr("x"), HTMLBody: ptr("y")})
	require.ErrorIs(t, err, store.ErrSubjectNotAllowed)
	_, err = s.AddTemplate(store.TemplateCreateInput{Name: "t", Subject: ptr("s")})
	require.ErrorIs(t, err, store.ErrBodyRequired)

	assert.Equal(t, 0, s.Templates.Len())
	tpl, err := s.AddTemplate(store.TemplateCreateInput{Name: "t", Subject: ptr("s"), HTMLBody: ptr("b")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tpl.TemplateID)
}

func TestOptionalJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		V store.Optional[string] `json:"v"`
	}

	data, err := json.Marshal(wrapper{V: store.None[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":null}`, string(data))

	data, err = json.Marshal(wrapper{V: store.Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"x"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"v":"y"}`), &w))
	v, ok := w.V.Get()
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	require.NoError(t, json.Unmarshal([]byte(`{"v":null}`), &w))
	assert.False(t, w.V.IsSet())

	assert.False(t, store.FromPtr[string](nil).IsSet())
	assert.True(t, store.FromPtr(ptr("")).IsSet())
}
