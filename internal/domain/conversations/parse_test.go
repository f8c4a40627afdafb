package conversations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_JSONArray(t *testing.T) {
	data := []byte(`[
		{"role":"Human","content":" We need export ","topic":"Export","timestamp":"2025-01-02T03:04:05Z"},
		{"author":"ChatGPT","text":"Sure, CSV works."},
		{"role":"user","content":"   "}
	]`)
	msgs, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "We need export", msgs[0].Content)
	assert.Equal(t, "Export", msgs[0].Topic)
	require.NotNil(t, msgs[0].Timestamp)
	assert.Equal(t, 2025, msgs[0].Timestamp.Year())
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Nil(t, msgs[1].Timestamp)
}

func TestParse_JSONWrapper(t *testing.T) {
	msgs, err := Parse([]byte(`{"messages":[{"role":"assistant","content":"hi"}]}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`[{"role":`))
	assert.ErrorIs(t, err, ErrMalformedExport)
}

func TestParse_Empty(t *testing.T) {
	msgs, err := Parse([]byte("  \n "))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestParseTranscript(t *testing.T) {
	text := `# Setup
User: How do I install it?
Assistant: Run the installer.
It lives at https://example.com/install
# Security
me: Is TLS on by default?
Product Owner: It must be.`
	msgs, err := Parse([]byte(text))
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, Message{Role: RoleUser, Content: "How do I install it?", Topic: "Setup"}, msgs[0])
	assert.Equal(t, "Run the installer.\nIt lives at https://example.com/install", msgs[1].Content)
	assert.Equal(t, "Setup", msgs[1].Topic)
	assert.Equal(t, RoleUser, msgs[2].Role)
	assert.Equal(t, "Security", msgs[2].Topic)
	assert.Equal(t, "product owner", msgs[3].Role)
}

func TestParseTranscript_LeadingContinuationDropped(t *testing.T) {
	msgs := ParseTranscript("no role here\nuser: first")
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0].Content)
}
