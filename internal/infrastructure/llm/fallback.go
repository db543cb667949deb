package llm

import (
	"context"
	"fmt"
	"strings"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/textutil"
)

// TemplateGenerator is the deterministic last resort when the generative
// service is unavailable. Its confidence never exceeds the configured
// ceiling, so auto-approval cannot promote fallback copy.
type TemplateGenerator struct {
	ceiling float64
}

var _ ports.Generator = (*TemplateGenerator)(nil)

// NewTemplateGenerator builds the fallback with a confidence ceiling.
func NewTemplateGenerator(ceiling float64) *TemplateGenerator {
	if ceiling <= 0 {
		ceiling = 0.60
	}
	return &TemplateGenerator{ceiling: ceiling}
}

// Generate renders the raw item through a fixed template. Same input,
// same output; no external calls.
func (g *TemplateGenerator) Generate(_ context.Context, raw domain.RawItem, hood domain.Neighborhood, category domain.Category) (ports.GeneratedContent, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = fmt.Sprintf("%s update", capitalize(string(category)))
	}
	if hood.Name != "" && category.LocalOnly() {
		title = fmt.Sprintf("%s: %s", hood.Name, title)
	}

	var b strings.Builder
	b.WriteString(excerpt(raw.Body, 3))
	if raw.Source != "" {
		fmt.Fprintf(&b, " Reported by %s.", raw.Source)
	}
	if raw.URL != "" {
		fmt.Fprintf(&b, " More details: %s", raw.URL)
	}

	confidence := 0.35 + 0.25*raw.Relevance
	if confidence > g.ceiling {
		confidence = g.ceiling
	}

	meta := domain.NewMetadata()
	meta.SourceURL = raw.URL
	meta = meta.WithExtra("template", "source-excerpt")

	return ports.GeneratedContent{
		Title:      title,
		Body:       b.String(),
		Confidence: confidence,
		Origin:     domain.OriginFallback,
		Metadata:   meta,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// excerpt keeps the first n sentences of the source text.
func excerpt(body string, n int) string {
	sentences := textutil.Sentences(body)
	if len(sentences) == 0 {
		return strings.TrimSpace(body)
	}
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, ". ") + "."
}
