package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/ai"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

func TestPromptsCoverEveryAgent(t *testing.T) {
	for _, typ := range agents.Order {
		sys := SystemPrompt(typ)
		require.NotEmpty(t, sys, typ)
		assert.Contains(t, sys, "valid JSON object")
	}
	assert.Empty(t, SystemPrompt("unknown"))
}

func TestUserPrompt_IncludesTranscriptAndSchema(t *testing.T) {
	msgs := []conversations.Message{
		{Role: "user", Content: "We need CSV export ", Topic: "Export"},
		{Role: "assistant", Content: "Sure.", Topic: "Export"},
		{Role: "user", Content: "And SSO?", Topic: "Auth"},
	}
	p := UserPrompt(agents.TypeDocumentationGap, msgs)
	assert.Contains(t, p, "# Export\nuser: We need CSV export\nassistant: Sure.\n\n# Auth\nuser: And SSO?")
	assert.Contains(t, p, `"documentationGaps"`)
}

func TestTranscript_NoTopics(t *testing.T) {
	got := Transcript([]conversations.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}})
	assert.Equal(t, "user: hi\nassistant: hello", got)
}

func TestExtractJSON(t *testing.T) {
	type out struct {
		Summary string   `json:"summary"`
		Items   []string `json:"items"`
	}
	tests := []struct {
		name    string
		in      string
		want    out
		wantErr bool
	}{
		{name: "bare", in: `{"summary":"ok","items":["a"]}`, want: out{Summary: "ok", Items: []string{"a"}}},
		{name: "fenced", in: "Here you go:\n```json\n{\"summary\":\"x\"}\n```", want: out{Summary: "x"}},
		{name: "braces inside strings", in: `result: {"summary":"use {curly} and \"quotes\" }","items":[]} trailing {"x":1}`, want: out{Summary: `use {curly} and "quotes" }`, Items: []string{}}},
		{name: "no object", in: "sorry, I cannot help", wantErr: true},
		{name: "unbalanced", in: `{"summary":"x"`, wantErr: true},
		{name: "wrong types", in: `note {"summary":1}`, wantErr: true},
		{name: "null", in: " null ", wantErr: true},
		{name: "empty array", in: "[]", wantErr: true},
		{name: "object inside array", in: `[{"summary":"x"}]`, want: out{Summary: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got out
			err := ExtractJSON(tt.in, &got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ai.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstObject_Nested(t *testing.T) {
	got := firstObject(`pre {"a":{"b":"}"}} post`)
	assert.True(t, strings.HasSuffix(got, `}}`))
	assert.Equal(t, `{"a":{"b":"}"}}`, got)
}
