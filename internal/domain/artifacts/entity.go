package artifacts

import (
	"fmt"
	"time"
)

// ArtifactID identifier type
type ArtifactID string

// Format names a rendered documentation format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatLaTeX    Format = "latex"
	FormatWiki     Format = "wiki"
)

// Artifact is one rendered document produced by a run.
type Artifact struct {
	ID          ArtifactID `json:"id"`
	RunID       string     `json:"run_id"`
	Format      Format     `json:"format"`
	ContentType string     `json:"content_type"`
	Content     string     `json:"content,omitempty"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Formats lists every supported format, core formats first.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatText, FormatHTML, FormatLaTeX, FormatWiki}

// Core formats fail the run when they cannot be rendered; the others are skipped.
func (f Format) Core() bool {
	return f == FormatMarkdown || f == FormatJSON || f == FormatText
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown artifact format: %q", s)
}
