package output

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
)

type memorySink struct {
	saved []*artifacts.Artifact
	err   error
}

func (m *memorySink) CreateArtifact(_ context.Context, a *artifacts.Artifact) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, a)
	return nil
}

type blobRecorder struct {
	keys []string
	err  error
}

func (b *blobRecorder) PutObject(_ context.Context, key, _ string, _ []byte) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.keys = append(b.keys, key)
	return "http://minio.local/convodoc/" + key, nil
}

type brokenRenderer struct {
	format artifacts.Format
	panic  bool
}

func (b brokenRenderer) Format() artifacts.Format { return b.format }
func (b brokenRenderer) ContentType() string      { return "text/plain" }
func (b brokenRenderer) Render(agents.Aggregate, []conversations.Message) (string, error) {
	if b.panic {
		panic("boom")
	}
	return "", errors.New("template error")
}

func fixture() (agents.Aggregate, []conversations.Message) {
	agg := agents.Aggregate{
		agents.TypeStructure: &agents.StructureResult{
			Provenance: agents.Provenance{MessageCount: 2, Fallback: true, FallbackReason: "no ai provider configured"},
			Sections:   []string{"Executive Summary", "Overview", "Conclusion"},
			Insights:   []string{"Short conversation"},
		},
		agents.TypeRequirements: &agents.RequirementsResult{
			Provenance:         agents.Provenance{MessageCount: 2, AIProvider: "openai", AIModel: "gpt-4o-mini"},
			Functional:         []string{"Export must support 50% of <rows> & more"},
			RequirementCount:   1,
			RequirementDensity: 0.5,
		},
	}
	msgs := []conversations.Message{
		{Role: "user", Content: "Export must support CSV"},
		{Role: "assistant", Content: "Noted."},
	}
	return agg, msgs
}

func TestGenerate_AllFormats(t *testing.T) {
	sink := &memorySink{}
	blobs := &blobRecorder{}
	agg, msgs := fixture()

	rep, err := NewStage(sink, blobs, nil, nil).Generate(context.Background(), "run-1", agg, msgs)
	require.NoError(t, err)
	require.Len(t, rep.Artifacts, 6)
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, rep.Artifacts, sink.saved)
	assert.Contains(t, blobs.keys, "runs/run-1/report.md")
	assert.Equal(t, "http://minio.local/convodoc/runs/run-1/report.tex", rep.Artifacts[4].URL)

	byFormat := map[artifacts.Format]string{}
	for _, a := range rep.Artifacts {
		assert.Equal(t, "run-1", a.RunID)
		assert.NotEmpty(t, a.ID)
		byFormat[a.Format] = a.Content
	}

	md := byFormat[artifacts.FormatMarkdown]
	assert.True(t, strings.HasPrefix(md, "# Conversation Documentation\n"))
	assert.Contains(t, md, "## Document Structure")
	assert.Contains(t, md, "### Functional\n\n- Export must support")
	assert.Contains(t, md, "Produced by heuristic analysis (no ai provider configured).")
	assert.Contains(t, md, "- user: Export must support CSV")
	assert.Less(t, strings.Index(md, "Document Structure"), strings.Index(md, "## Requirements"))

	var decoded struct {
		MessageCount int              `json:"messageCount"`
		Agents       []agents.Type    `json:"agents"`
		Results      agents.Aggregate `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(byFormat[artifacts.FormatJSON]), &decoded))
	assert.Equal(t, 2, decoded.MessageCount)
	assert.Equal(t, []agents.Type{agents.TypeStructure, agents.TypeRequirements}, decoded.Agents)
	assert.Equal(t, 0.5, decoded.Results.Requirements().RequirementDensity)

	assert.Contains(t, byFormat[artifacts.FormatHTML], "50% of &lt;rows&gt; &amp; more")
	assert.Contains(t, byFormat[artifacts.FormatLaTeX], `50\% of <rows> \& more`)
	assert.Contains(t, byFormat[artifacts.FormatWiki], "== Requirements ==")
	assert.Contains(t, byFormat[artifacts.FormatText], "Conversation Documentation\n==========================")
}

func TestGenerate_OptionalFailureSkipped(t *testing.T) {
	sink := &memorySink{}
	agg, msgs := fixture()
	renderers := append(Default()[:3], brokenRenderer{format: artifacts.FormatHTML, panic: true}, Default()[4])

	rep, err := NewStage(sink, nil, nil, nil, renderers...).Generate(context.Background(), "run-2", agg, msgs)
	require.NoError(t, err)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, artifacts.FormatHTML, rep.Skipped[0].Format)
	assert.ErrorContains(t, rep.Skipped[0].Err, "panic")
	assert.Len(t, sink.saved, 4)
	for _, a := range sink.saved {
		assert.NotEqual(t, artifacts.FormatHTML, a.Format)
		assert.Empty(t, a.URL)
	}
}

func TestGenerate_CoreFailureIsFatal(t *testing.T) {
	sink := &memorySink{}
	agg, msgs := fixture()
	renderers := []Renderer{Default()[0], brokenRenderer{format: artifacts.FormatJSON}}

	_, err := NewStage(sink, nil, nil, nil, renderers...).Generate(context.Background(), "run-3", agg, msgs)
	require.Error(t, err)
	assert.ErrorIs(t, err, runs.ErrOutputGenerationFailed)
	assert.Len(t, sink.saved, 1, "artifacts rendered before the failure stay persisted")
}

func TestGenerate_MirrorFailureKeepsArtifact(t *testing.T) {
	sink := &memorySink{}
	agg, msgs := fixture()
	rep, err := NewStage(sink, &blobRecorder{err: errors.New("bucket missing")}, nil, nil, Default()[0]).
		Generate(context.Background(), "run-4", agg, msgs)
	require.NoError(t, err)
	require.Len(t, rep.Artifacts, 1)
	assert.Empty(t, rep.Artifacts[0].URL)
}

func TestGenerate_EmptyAggregate(t *testing.T) {
	rep, err := NewStage(&memorySink{}, nil, nil, nil).Generate(context.Background(), "run-5", agents.Aggregate{}, nil)
	require.NoError(t, err)
	assert.Len(t, rep.Artifacts, 6)
}

func TestSelect(t *testing.T) {
	rs, err := Select([]string{"latex"})
	require.NoError(t, err)
	var got []artifacts.Format
	for _, r := range rs {
		got = append(got, r.Format())
	}
	assert.Equal(t, []artifacts.Format{artifacts.FormatMarkdown, artifacts.FormatJSON, artifacts.FormatText, artifacts.FormatLaTeX}, got)

	all, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	_, err = Select([]string{"pdf"})
	assert.Error(t, err)
}
