package agents

// Result is the output of one agent. Each agent type has its own concrete shape.
type Result interface {
	AgentType() Type
	Info() *Provenance
}

// Provenance is carried by every result.
type Provenance struct {
	MessageCount   int    `json:"messageCount"`
	AIModel        string `json:"aiModel,omitempty"`
	AIProvider     string `json:"aiProvider,omitempty"`
	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// Info returns the provenance block for in-place tagging.
func (p *Provenance) Info() *Provenance { return p }

type StructureResult struct {
	Provenance
	Sections    []string `json:"sections"`
	TopicGroups []string `json:"topicGroups"`
	Insights    []string `json:"insights"`
	TopicCount  int      `json:"topicCount"`
}

func (*StructureResult) AgentType() Type { return TypeStructure }

type RequirementsResult struct {
	Provenance
	Functional         []string `json:"functional"`
	NonFunctional      []string `json:"nonFunctional"`
	Technical          []string `json:"technical"`
	Summary            string   `json:"summary"`
	RequirementCount   int      `json:"requirementCount"`
	RequirementDensity float64  `json:"requirementDensity"`
}

func (*RequirementsResult) AgentType() Type { return TypeRequirements }

type UserPerspectiveResult struct {
	Provenance
	Personas            []string       `json:"personas"`
	PersonaCounts       map[string]int `json:"personaCounts,omitempty"`
	UserNeeds           []string       `json:"userNeeds"`
	Feedback            []string       `json:"feedback"`
	Insights            []string       `json:"insights"`
	TotalUserReferences int            `json:"totalUserReferences"`
}

func (*UserPerspectiveResult) AgentType() Type { return TypeUserPerspective }

type DocumentationGapResult struct {
	Provenance
	Gaps        []string `json:"gaps"`
	Suggestions []string `json:"suggestions"`
	Priorities  []string `json:"priorities"`
	Topics      []string `json:"topics"`
	GapCount    int      `json:"gapCount"`
	GapDensity  float64  `json:"gapDensity"`
}

func (*DocumentationGapResult) AgentType() Type { return TypeDocumentationGap }

// WordCount is one entry of a word-frequency ranking.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type MessageStats struct {
	Total  int            `json:"total"`
	ByRole map[string]int `json:"byRole"`
}

type MetaResult struct {
	Provenance
	Insights          []string     `json:"insights"`
	Patterns          []string     `json:"patterns"`
	Themes            []string     `json:"themes"`
	QualityAssessment string       `json:"qualityAssessment"`
	MessageStats      MessageStats `json:"messageStats"`
	RoleBalance       float64      `json:"roleBalance"`
	TopicDiversity    float64      `json:"topicDiversity"`
	TopWords          []WordCount  `json:"topWords"`
}

func (*MetaResult) AgentType() Type { return TypeMeta }

// NewResult returns an empty result of the given type, or nil for unknown types.
func NewResult(t Type) Result {
	switch t {
	case TypeStructure:
		return &StructureResult{}
	case TypeRequirements:
		return &RequirementsResult{}
	case TypeUserPerspective:
		return &UserPerspectiveResult{}
	case TypeDocumentationGap:
		return &DocumentationGapResult{}
	case TypeMeta:
		return &MetaResult{}
	}
	return nil
}
