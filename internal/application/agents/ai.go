package agents

import (
	"context"
	"log/slog"
	"slices"

	"github.com/bryanwahyu/convodoc/internal/domain/ai"
	domain "github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/analysis"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
	"github.com/bryanwahyu/convodoc/internal/infra/ai/prompt"
)

// preferred provider per agent type
var preferred = map[domain.Type]ai.Provider{
	domain.TypeStructure:        ai.ProviderOpenAI,
	domain.TypeRequirements:     ai.ProviderOpenAI,
	domain.TypeUserPerspective:  ai.ProviderAnthropic,
	domain.TypeDocumentationGap: ai.ProviderAnthropic,
	domain.TypeMeta:             ai.ProviderAnthropic,
}

// overlay copies the model's fields onto the heuristic base result.
type overlay func(content string, base domain.Result, cfg domain.Config) error

var overlays = map[domain.Type]overlay{
	domain.TypeStructure:        overlayStructure,
	domain.TypeRequirements:     overlayRequirements,
	domain.TypeUserPerspective:  overlayUserPerspective,
	domain.TypeDocumentationGap: overlayDocumentationGap,
	domain.TypeMeta:             overlayMeta,
}

type aiAnalyzer struct {
	agentType domain.Type
	gateway   ai.Gateway
	heuristic heuristicFunc
	overlay   overlay
	logger    *slog.Logger
}

// AIRegistry runs every agent through the gateway. Any AI failure degrades to
// the heuristic result tagged as a fallback.
func AIRegistry(gw ai.Gateway, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := make(Registry, len(heuristics))
	for t, h := range heuristics {
		r[t] = &aiAnalyzer{agentType: t, gateway: gw, heuristic: h, overlay: overlays[t], logger: logger}
	}
	return r
}

func (a *aiAnalyzer) Analyze(ctx context.Context, msgs []conversations.Message, cfg domain.Config) (domain.Result, error) {
	resp, err := a.gateway.Call(ctx, ai.Request{
		SystemPrompt: prompt.SystemPrompt(a.agentType),
		Prompt:       prompt.UserPrompt(a.agentType, msgs),
		Preferred:    preferred[a.agentType],
	})
	if err != nil {
		return a.degrade(ctx, msgs, cfg, err), nil
	}

	res := a.heuristic(msgs, cfg)
	if err := a.overlay(resp.Content, res, cfg); err != nil {
		return a.degrade(ctx, msgs, cfg, err), nil
	}
	info := res.Info()
	info.MessageCount = len(msgs)
	info.AIModel = resp.Model
	info.AIProvider = string(resp.Provider)
	return res, nil
}

func (a *aiAnalyzer) degrade(ctx context.Context, msgs []conversations.Message, cfg domain.Config, cause error) domain.Result {
	a.logger.WarnContext(ctx, "ai analysis failed, using heuristic", "agent_type", a.agentType, "error", cause)
	res := a.heuristic(msgs, cfg)
	info := res.Info()
	info.Fallback = true
	info.FallbackReason = cause.Error()
	return res
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstList(lists ...[]string) []string {
	for _, l := range lists {
		if l != nil {
			return l
		}
	}
	return []string{}
}

func overlayStructure(content string, base domain.Result, _ domain.Config) error {
	var out struct {
		Sections    []string `json:"sections"`
		TopicGroups []string `json:"topicGroups"`
		Insights    []string `json:"insights"`
	}
	if err := prompt.ExtractJSON(content, &out); err != nil {
		return err
	}
	r := base.(*domain.StructureResult)
	r.Sections = orEmpty(out.Sections)
	r.TopicGroups = orEmpty(out.TopicGroups)
	r.Insights = orEmpty(out.Insights)
	r.TopicCount = len(r.TopicGroups)
	return nil
}

func overlayRequirements(content string, base domain.Result, cfg domain.Config) error {
	var out struct {
		Functional    []string `json:"functional"`
		NonFunctional []string `json:"nonFunctional"`
		Technical     []string `json:"technical"`
		Summary       string   `json:"summary"`
	}
	if err := prompt.ExtractJSON(content, &out); err != nil {
		return err
	}
	enabled := analysis.RequirementTypes(cfg)
	pick := func(category string, items []string) []string {
		if !slices.Contains(enabled, category) {
			return []string{}
		}
		return orEmpty(items)
	}
	r := base.(*domain.RequirementsResult)
	r.Functional = pick(analysis.CategoryFunctional, out.Functional)
	r.NonFunctional = pick(analysis.CategoryNonFunctional, out.NonFunctional)
	r.Technical = pick(analysis.CategoryTechnical, out.Technical)
	r.Summary = out.Summary
	r.RequirementCount = len(r.Functional) + len(r.NonFunctional) + len(r.Technical)
	return nil
}

func overlayUserPerspective(content string, base domain.Result, _ domain.Config) error {
	var out struct {
		Personas  []string `json:"personas"`
		UserNeeds []string `json:"userNeeds"`
		Feedback  []string `json:"feedback"`
		Insights  []string `json:"insights"`
	}
	if err := prompt.ExtractJSON(content, &out); err != nil {
		return err
	}
	r := base.(*domain.UserPerspectiveResult)
	r.Personas = orEmpty(out.Personas)
	r.UserNeeds = orEmpty(out.UserNeeds)
	r.Feedback = orEmpty(out.Feedback)
	r.Insights = orEmpty(out.Insights)
	r.PersonaCounts = nil
	return nil
}

func overlayDocumentationGap(content string, base domain.Result, _ domain.Config) error {
	var out struct {
		DocumentationGaps []string `json:"documentationGaps"`
		Gaps              []string `json:"gaps"`
		Suggestions       []string `json:"suggestions"`
		Priorities        []string `json:"priorities"`
		Topics            []string `json:"topics"`
	}
	if err := prompt.ExtractJSON(content, &out); err != nil {
		return err
	}
	r := base.(*domain.DocumentationGapResult)
	r.Gaps = firstList(out.DocumentationGaps, out.Gaps)
	r.Suggestions = orEmpty(out.Suggestions)
	r.Priorities = orEmpty(out.Priorities)
	r.Topics = orEmpty(out.Topics)
	r.GapCount = len(r.Gaps)
	return nil
}

func overlayMeta(content string, base domain.Result, _ domain.Config) error {
	var out struct {
		MetaInsights      []string `json:"metaInsights"`
		Insights          []string `json:"insights"`
		Patterns          []string `json:"patterns"`
		Themes            []string `json:"themes"`
		QualityAssessment string   `json:"qualityAssessment"`
	}
	if err := prompt.ExtractJSON(content, &out); err != nil {
		return err
	}
	r := base.(*domain.MetaResult)
	r.Insights = firstList(out.MetaInsights, out.Insights)
	r.Patterns = orEmpty(out.Patterns)
	r.Themes = orEmpty(out.Themes)
	r.QualityAssessment = out.QualityAssessment
	return nil
}
