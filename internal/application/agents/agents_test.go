package agents

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/convodoc/internal/domain/ai"
	domain "github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

type fakeGateway struct {
	content  string
	provider ai.Provider
	err      error
	requests []ai.Request
}

func (f *fakeGateway) Call(_ context.Context, req ai.Request) (ai.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return ai.Response{}, f.err
	}
	p := f.provider
	if p == "" {
		p = req.Preferred
	}
	return ai.Response{Content: f.content, Model: "test-model", Provider: p}, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sample() []conversations.Message {
	return []conversations.Message{
		{Role: "user", Content: "The exporter must support CSV.", Topic: "Export"},
		{Role: "assistant", Content: "How are errors reported?", Topic: "Export"},
	}
}

func TestHeuristicRegistry_CoversAllTypes(t *testing.T) {
	reg := HeuristicRegistry()
	for _, typ := range domain.Order {
		a, ok := reg.For(typ)
		require.True(t, ok, typ)
		res, err := a.Analyze(context.Background(), sample(), domain.Config{})
		require.NoError(t, err)
		assert.Equal(t, typ, res.AgentType())
		assert.Equal(t, 2, res.Info().MessageCount)
		assert.False(t, res.Info().Fallback)
	}
	_, ok := reg.For("unknown")
	assert.False(t, ok)
}

func TestAIAnalyzer_Success(t *testing.T) {
	gw := &fakeGateway{content: "```json\n{\"sections\":[\"Intro\",\"Export\"],\"insights\":[\"focused\"]}\n```"}
	reg := AIRegistry(gw, quiet())

	a, _ := reg.For(domain.TypeStructure)
	res, err := a.Analyze(context.Background(), sample(), domain.Config{})
	require.NoError(t, err)

	r := res.(*domain.StructureResult)
	assert.Equal(t, []string{"Intro", "Export"}, r.Sections)
	assert.Equal(t, []string{}, r.TopicGroups)
	assert.Equal(t, 0, r.TopicCount)
	assert.Equal(t, "test-model", r.AIModel)
	assert.Equal(t, "openai", r.AIProvider)
	assert.Equal(t, 2, r.MessageCount)
	assert.False(t, r.Fallback)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, ai.ProviderOpenAI, gw.requests[0].Preferred)
	assert.Contains(t, gw.requests[0].Prompt, "user: The exporter must support CSV.")
}

func TestAIAnalyzer_PreferredProviders(t *testing.T) {
	gw := &fakeGateway{content: "{}"}
	reg := AIRegistry(gw, quiet())
	for _, typ := range domain.Order {
		a, _ := reg.For(typ)
		_, err := a.Analyze(context.Background(), sample(), domain.Config{})
		require.NoError(t, err)
	}
	require.Len(t, gw.requests, 5)
	assert.Equal(t, ai.ProviderOpenAI, gw.requests[0].Preferred)
	assert.Equal(t, ai.ProviderOpenAI, gw.requests[1].Preferred)
	assert.Equal(t, ai.ProviderAnthropic, gw.requests[2].Preferred)
	assert.Equal(t, ai.ProviderAnthropic, gw.requests[3].Preferred)
	assert.Equal(t, ai.ProviderAnthropic, gw.requests[4].Preferred)
}

func TestAIAnalyzer_FallsBackOnGatewayError(t *testing.T) {
	gw := &fakeGateway{err: ai.ErrNoProviderConfigured}
	a, _ := AIRegistry(gw, quiet()).For(domain.TypeRequirements)

	res, err := a.Analyze(context.Background(), sample(), domain.Config{})
	require.NoError(t, err)
	r := res.(*domain.RequirementsResult)
	assert.True(t, r.Fallback)
	assert.Contains(t, r.FallbackReason, "no ai provider")
	assert.Empty(t, r.AIProvider)
	assert.Equal(t, []string{"The exporter must support CSV."}, r.Functional)
	assert.Equal(t, 0.5, r.RequirementDensity)
}

func TestAIAnalyzer_FallsBackOnMalformedReply(t *testing.T) {
	gw := &fakeGateway{content: "I'm sorry, I can't do that."}
	a, _ := AIRegistry(gw, quiet()).For(domain.TypeMeta)

	res, err := a.Analyze(context.Background(), sample(), domain.Config{})
	require.NoError(t, err)
	assert.True(t, res.Info().Fallback)
	assert.Equal(t, 2, res.(*domain.MetaResult).MessageStats.Total)
}

func TestAIAnalyzer_NonObjectReplyFallsBack(t *testing.T) {
	for _, reply := range []string{"null", "[]", `"done"`} {
		t.Run(reply, func(t *testing.T) {
			gw := &fakeGateway{content: reply}
			a, _ := AIRegistry(gw, quiet()).For(domain.TypeStructure)

			res, err := a.Analyze(context.Background(), sample(), domain.Config{})
			require.NoError(t, err)
			assert.True(t, res.Info().Fallback)
			assert.Empty(t, res.Info().AIProvider)
			assert.NotEmpty(t, res.(*domain.StructureResult).Sections)
		})
	}
}

func TestAIAnalyzer_AlternateKeys(t *testing.T) {
	gw := &fakeGateway{content: `{"gaps":["error format undocumented"],"suggestions":["add an errors page"]}`}
	a, _ := AIRegistry(gw, quiet()).For(domain.TypeDocumentationGap)
	res, err := a.Analyze(context.Background(), sample(), domain.Config{})
	require.NoError(t, err)
	g := res.(*domain.DocumentationGapResult)
	assert.Equal(t, []string{"error format undocumented"}, g.Gaps)
	assert.Equal(t, 1, g.GapCount)
	assert.Equal(t, 0.5, g.GapDensity)
	assert.Equal(t, []string{}, g.Priorities)

	gw.content = `{"insights":["one"],"qualityAssessment":"good"}`
	a, _ = AIRegistry(gw, quiet()).For(domain.TypeMeta)
	res, err = a.Analyze(context.Background(), sample(), domain.Config{})
	require.NoError(t, err)
	m := res.(*domain.MetaResult)
	assert.Equal(t, []string{"one"}, m.Insights)
	assert.Equal(t, "good", m.QualityAssessment)
	assert.InDelta(t, 1.0, m.RoleBalance, 1e-9)
}

func TestAIAnalyzer_RequirementsRespectEnabledTypes(t *testing.T) {
	gw := &fakeGateway{content: `{"functional":["f"],"nonFunctional":["n"],"technical":["t"],"summary":"s"}`}
	a, _ := AIRegistry(gw, quiet()).For(domain.TypeRequirements)
	res, err := a.Analyze(context.Background(), sample(), domain.Config{"requirementTypes": []any{"technical"}})
	require.NoError(t, err)
	r := res.(*domain.RequirementsResult)
	assert.Equal(t, []string{}, r.Functional)
	assert.Equal(t, []string{}, r.NonFunctional)
	assert.Equal(t, []string{"t"}, r.Technical)
	assert.Equal(t, 1, r.RequirementCount)
	assert.Equal(t, "s", r.Summary)
}
