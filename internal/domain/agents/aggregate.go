package agents

import (
	"encoding/json"
	"fmt"
)

// Aggregate maps agent type to that agent's result. One entry per enabled
// agent that ran to completion.
type Aggregate map[Type]Result

// UnmarshalJSON decodes each entry into its concrete result type.
func (a *Aggregate) UnmarshalJSON(b []byte) error {
	var raw map[Type]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Aggregate, len(raw))
	for t, msg := range raw {
		r := NewResult(t)
		if r == nil {
			return fmt.Errorf("agents: unknown result type %q", t)
		}
		if err := json.Unmarshal(msg, r); err != nil {
			return fmt.Errorf("agents: decode %s result: %w", t, err)
		}
		out[t] = r
	}
	*a = out
	return nil
}

// Types returns the aggregate's keys in execution order.
func (a Aggregate) Types() []Type {
	out := make([]Type, 0, len(a))
	for _, t := range Order {
		if _, ok := a[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (a Aggregate) Structure() *StructureResult {
	r, _ := a[TypeStructure].(*StructureResult)
	return r
}

func (a Aggregate) Requirements() *RequirementsResult {
	r, _ := a[TypeRequirements].(*RequirementsResult)
	return r
}

func (a Aggregate) UserPerspective() *UserPerspectiveResult {
	r, _ := a[TypeUserPerspective].(*UserPerspectiveResult)
	return r
}

func (a Aggregate) DocumentationGap() *DocumentationGapResult {
	r, _ := a[TypeDocumentationGap].(*DocumentationGapResult)
	return r
}

func (a Aggregate) Meta() *MetaResult {
	r, _ := a[TypeMeta].(*MetaResult)
	return r
}
