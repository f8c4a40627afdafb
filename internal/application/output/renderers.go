package output

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/bryanwahyu/convodoc/internal/domain/agents"
	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
	"github.com/bryanwahyu/convodoc/internal/domain/conversations"
)

// Renderer produces one artifact format.
type Renderer interface {
	Format() artifacts.Format
	ContentType() string
	Render(agg agents.Aggregate, msgs []conversations.Message) (string, error)
}

type layoutRenderer struct {
	format      artifacts.Format
	contentType string
	write       func(*strings.Builder, document)
}

func (r layoutRenderer) Format() artifacts.Format { return r.format }
func (r layoutRenderer) ContentType() string      { return r.contentType }

func (r layoutRenderer) Render(agg agents.Aggregate, msgs []conversations.Message) (string, error) {
	var b strings.Builder
	r.write(&b, build(agg, msgs))
	return b.String(), nil
}

type jsonRenderer struct{}

func (jsonRenderer) Format() artifacts.Format { return artifacts.FormatJSON }
func (jsonRenderer) ContentType() string      { return "application/json" }

func (jsonRenderer) Render(agg agents.Aggregate, msgs []conversations.Message) (string, error) {
	if agg == nil {
		agg = agents.Aggregate{}
	}
	b, err := json.MarshalIndent(struct {
		MessageCount int              `json:"messageCount"`
		Agents       []agents.Type    `json:"agents"`
		Results      agents.Aggregate `json:"results"`
	}{len(msgs), agg.Types(), agg}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal aggregate: %w", err)
	}
	return string(b), nil
}

// Default returns every built-in renderer, core formats first.
func Default() []Renderer {
	return []Renderer{
		layoutRenderer{artifacts.FormatMarkdown, "text/markdown; charset=utf-8", writeMarkdown},
		jsonRenderer{},
		layoutRenderer{artifacts.FormatText, "text/plain; charset=utf-8", writeText},
		layoutRenderer{artifacts.FormatHTML, "text/html; charset=utf-8", writeHTML},
		layoutRenderer{artifacts.FormatLaTeX, "application/x-latex", writeLaTeX},
		layoutRenderer{artifacts.FormatWiki, "text/plain; charset=utf-8", writeWiki},
	}
}

// Select returns the core renderers plus the requested optional ones.
func Select(formats []string) ([]Renderer, error) {
	want := map[artifacts.Format]bool{}
	for _, f := range formats {
		parsed, err := artifacts.ParseFormat(strings.ToLower(strings.TrimSpace(f)))
		if err != nil {
			return nil, err
		}
		want[parsed] = true
	}
	var out []Renderer
	for _, r := range Default() {
		if r.Format().Core() || len(formats) == 0 || want[r.Format()] {
			out = append(out, r)
		}
	}
	return out, nil
}

func writeMarkdown(b *strings.Builder, d document) {
	fmt.Fprintf(b, "# %s\n\n", d.Title)
	b.WriteString("## Executive Summary\n\n")
	for _, p := range d.Summary {
		b.WriteString(p + "\n\n")
	}
	for _, s := range d.Sections {
		fmt.Fprintf(b, "## %s\n\n", s.Title)
		for _, g := range s.Groups {
			if g.Title != "" {
				fmt.Fprintf(b, "### %s\n\n", g.Title)
			}
			for _, it := range g.Items {
				b.WriteString("- " + it + "\n")
			}
			b.WriteString("\n")
		}
		for _, p := range s.Paragraphs {
			b.WriteString("_" + p + "_\n\n")
		}
	}
}

func writeText(b *strings.Builder, d document) {
	b.WriteString(d.Title + "\n" + strings.Repeat("=", len(d.Title)) + "\n\n")
	for _, p := range d.Summary {
		b.WriteString(p + "\n")
	}
	for _, s := range d.Sections {
		b.WriteString("\n" + s.Title + "\n" + strings.Repeat("-", len(s.Title)) + "\n")
		for _, g := range s.Groups {
			if g.Title != "" {
				b.WriteString(g.Title + ":\n")
			}
			for _, it := range g.Items {
				b.WriteString("  * " + it + "\n")
			}
		}
		for _, p := range s.Paragraphs {
			b.WriteString(p + "\n")
		}
	}
}

func writeHTML(b *strings.Builder, d document) {
	e := html.EscapeString
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>" + e(d.Title) + "</title></head>\n<body>\n")
	b.WriteString("<h1>" + e(d.Title) + "</h1>\n<h2>Executive Summary</h2>\n")
	for _, p := range d.Summary {
		b.WriteString("<p>" + e(p) + "</p>\n")
	}
	for _, s := range d.Sections {
		b.WriteString("<h2>" + e(s.Title) + "</h2>\n")
		for _, g := range s.Groups {
			if g.Title != "" {
				b.WriteString("<h3>" + e(g.Title) + "</h3>\n")
			}
			b.WriteString("<ul>\n")
			for _, it := range g.Items {
				b.WriteString("<li>" + e(it) + "</li>\n")
			}
			b.WriteString("</ul>\n")
		}
		for _, p := range s.Paragraphs {
			b.WriteString("<p><em>" + e(p) + "</em></p>\n")
		}
	}
	b.WriteString("</body>\n</html>\n")
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`, "%", `\%`, "$", `\$`, "#", `\#`, "_", `\_`,
	"{", `\{`, "}", `\}`, "~", `\textasciitilde{}`, "^", `\textasciicircum{}`,
)

func writeLaTeX(b *strings.Builder, d document) {
	e := latexEscaper.Replace
	b.WriteString("\\documentclass{article}\n\\usepackage[utf8]{inputenc}\n")
	b.WriteString("\\title{" + e(d.Title) + "}\n\\begin{document}\n\\maketitle\n\n")
	b.WriteString("\\section{Executive Summary}\n")
	for _, p := range d.Summary {
		b.WriteString(e(p) + "\n\n")
	}
	for _, s := range d.Sections {
		b.WriteString("\\section{" + e(s.Title) + "}\n")
		for _, g := range s.Groups {
			if g.Title != "" {
				b.WriteString("\\subsection{" + e(g.Title) + "}\n")
			}
			b.WriteString("\\begin{itemize}\n")
			for _, it := range g.Items {
				b.WriteString("  \\item " + e(it) + "\n")
			}
			b.WriteString("\\end{itemize}\n")
		}
		for _, p := range s.Paragraphs {
			b.WriteString("\\emph{" + e(p) + "}\n\n")
		}
	}
	b.WriteString("\\end{document}\n")
}

func writeWiki(b *strings.Builder, d document) {
	b.WriteString("= " + d.Title + " =\n\n== Executive Summary ==\n")
	for _, p := range d.Summary {
		b.WriteString(p + "\n")
	}
	for _, s := range d.Sections {
		b.WriteString("\n== " + s.Title + " ==\n")
		for _, g := range s.Groups {
			if g.Title != "" {
				b.WriteString("=== " + g.Title + " ===\n")
			}
			for _, it := range g.Items {
				b.WriteString("* " + it + "\n")
			}
		}
		for _, p := range s.Paragraphs {
			b.WriteString("''" + p + "''\n")
		}
	}
}
