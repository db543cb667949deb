// Package scoring estimates the quality of a piece of text for its
// category. The engine is pure: same input, same score, no I/O and no
// clock reads.
package scoring

import (
	"regexp"
	"strings"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/textutil"
)

// Sub-score weights; they sum to 1.0 before bonuses.
const (
	weightReadability = 0.25
	weightLocal       = 0.30
	weightTitle       = 0.20
	weightDensity     = 0.15
	weightFreshness   = 0.10

	bonusWellFormed = 0.03
	bonusVocabulary = 0.02
)

var structuralMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),                  // clock times
	regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.(\d{2,4})?\b`),   // numeric dates
	regexp.MustCompile(`\b\d+\s*(?:-|to|until)\s*\d+\b`),     // ranges
	regexp.MustCompile(`\+?\d[\d\s\-/]{6,}\d`),               // phone numbers
	regexp.MustCompile(`https?://|\b[\w.+-]+@[\w-]+\.\w+\b`), // links and mail
}

// Config carries the externally supplied keyword and gazetteer sets so the
// rules stay testable independent of any one city or language.
type Config struct {
	// Gazetteer lists neighborhood and place names used for the local
	// relevance sub-score.
	Gazetteer []string
	// FreshnessKeywords holds per-category markers of time relevance.
	FreshnessKeywords map[domain.Category][]string
	// CategoryVocabulary holds per-category vocabulary granting a small
	// bonus when present.
	CategoryVocabulary map[domain.Category][]string
}

// Score is a confidence estimate with its per-sub-score breakdown.
type Score struct {
	Confidence float64
	Breakdown  map[string]float64
}

// Engine computes quality scores from a fixed configuration.
type Engine struct {
	cfg       Config
	gazetteer []string // folded once at construction
}

// NewEngine builds an engine, pre-folding the gazetteer for matching.
func NewEngine(cfg Config) *Engine {
	folded := make([]string, 0, len(cfg.Gazetteer))
	for _, g := range cfg.Gazetteer {
		if s := strings.TrimSpace(g); s != "" {
			folded = append(folded, textutil.Fold(s))
		}
	}
	return &Engine{cfg: cfg, gazetteer: folded}
}

// Score rates a title/body pair for a category. The result confidence is
// always within [0, 0.95].
func (e *Engine) Score(title, body string, category domain.Category) Score {
	foldedBody := textutil.Fold(body)
	sentences := textutil.Sentences(body)

	breakdown := map[string]float64{
		"readability":         readability(body, sentences),
		"local_relevance":     e.localRelevance(foldedBody),
		"title_alignment":     titleAlignment(title, body),
		"information_density": informationDensity(body),
		"freshness":           matchFraction(foldedBody, e.cfg.FreshnessKeywords[category], 2),
	}

	confidence := weightReadability*breakdown["readability"] +
		weightLocal*breakdown["local_relevance"] +
		weightTitle*breakdown["title_alignment"] +
		weightDensity*breakdown["information_density"] +
		weightFreshness*breakdown["freshness"]

	var bonus float64
	if n := len(sentences); n >= 3 && n <= 8 {
		bonus += bonusWellFormed
	}
	if matchFraction(foldedBody, e.cfg.CategoryVocabulary[category], 1) > 0 {
		bonus += bonusVocabulary
	}
	breakdown["bonus"] = bonus

	return Score{
		Confidence: domain.ClampConfidence(confidence + bonus),
		Breakdown:  breakdown,
	}
}

// readability maps average words per sentence onto a three-tier score.
// Zero sentences score 0 rather than dividing by zero.
func readability(body string, sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	avg := float64(len(strings.Fields(body))) / float64(len(sentences))
	switch {
	case avg <= 20:
		return 0.9
	case avg <= 30:
		return 0.7
	default:
		return 0.5
	}
}

// localRelevance is the fraction of the gazetteer found in the body.
func (e *Engine) localRelevance(foldedBody string) float64 {
	if len(e.gazetteer) == 0 {
		return 0
	}
	matched := 0
	for _, place := range e.gazetteer {
		if strings.Contains(foldedBody, place) {
			matched++
		}
	}
	frac := float64(matched) / float64(len(e.gazetteer))
	if frac > 1 {
		frac = 1
	}
	return frac
}

// titleAlignment is the fraction of significant title words (length > 3)
// that also occur in the body.
func titleAlignment(title, body string) float64 {
	bodyTokens := map[string]bool{}
	for _, tok := range textutil.Tokenize(body) {
		bodyTokens[tok] = true
	}

	significant, present := 0, 0
	for _, tok := range textutil.Tokenize(title) {
		if len(tok) <= 3 {
			continue
		}
		significant++
		if bodyTokens[tok] {
			present++
		}
	}
	if significant == 0 {
		return 0.5
	}
	return float64(present) / float64(significant)
}

// informationDensity counts distinct structural marker kinds (times,
// dates, ranges, contact info) present, capped at three kinds.
func informationDensity(body string) float64 {
	found := 0
	for _, re := range structuralMarkers {
		if re.MatchString(body) {
			found++
		}
	}
	frac := float64(found) / 3.0
	if frac > 1 {
		frac = 1
	}
	return frac
}

// matchFraction counts keyword hits in the folded body, scaled so limit hits
// reach 1.0.
func matchFraction(foldedBody string, keywords []string, limit int) float64 {
	if len(keywords) == 0 || limit <= 0 {
		return 0
	}
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(foldedBody, textutil.Fold(kw)) {
			matched++
			if matched >= limit {
				break
			}
		}
	}
	return float64(matched) / float64(limit)
}
