// Package validation runs the fixed check battery over a generated article
// and decides its next status. Like scoring, the engine is pure; the
// thresholds arrive from configuration, never from call sites.
package validation

import (
	"regexp"
	"strings"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/textutil"
)

// Check names, used as keys of the result profile.
const (
	CheckBodyLength   = "body_length"
	CheckLanguage     = "language_markers"
	CheckPlaceholders = "no_placeholders"
	CheckSentences    = "min_sentences"
	CheckTitleLength  = "title_length"
	CheckNeighborhood = "neighborhood_mentioned"
)

const (
	baseWeight       = 0.9
	maxCategoryBonus = 0.05
	maxQualityBonus  = 0.08
	qualityStep      = 0.02
)

var contactRe = regexp.MustCompile(`\+?\d[\d\s\-/]{6,}\d|\b[\w.+-]+@[\w-]+\.\w+\b`)

// Thresholds decide the status for a validation confidence.
type Thresholds struct {
	Approve float64 // confidence at or above approves
	Reject  float64 // confidence below rejects
}

// Config bounds the check battery.
type Config struct {
	MinBodyLength  int
	MaxBodyLength  int
	MinSentences   int
	MinTitleLength int
	MaxTitleLength int
	// LanguageMarkers are common words of the target language; at least
	// two must occur for the language check to pass.
	LanguageMarkers []string
	// PlaceholderPatterns are boilerplate fragments a generator may leak.
	PlaceholderPatterns []string
	// CategoryVocabulary grants the category bonus when present.
	CategoryVocabulary map[domain.Category][]string
	// TimeKeywords and ActionKeywords feed the quality-indicator bonus.
	TimeKeywords   []string
	ActionKeywords []string
	// Gazetteer feeds the specific-location quality indicator.
	Gazetteer []string
}

// DefaultConfig returns the built-in English check battery bounds.
func DefaultConfig() Config {
	return Config{
		MinBodyLength:  120,
		MaxBodyLength:  4000,
		MinSentences:   2,
		MinTitleLength: 10,
		MaxTitleLength: 120,
		LanguageMarkers: []string{
			"the", "and", "for", "with", "from", "this", "that", "are", "will",
		},
		PlaceholderPatterns: []string{
			"lorem ipsum", "[insert", "{placeholder", "tbd", "your text here", "as an ai",
		},
		TimeKeywords:   []string{"today", "tomorrow", "tonight", "this week", "this weekend"},
		ActionKeywords: []string{"visit", "register", "join", "attend", "sign up", "call"},
	}
}

// Result is the outcome of one validation pass.
type Result struct {
	Profile    map[string]bool
	Confidence float64
	Status     domain.Status
}

// Engine validates content items against a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine builds a validation engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Validate runs the check battery over a candidate item and decides its
// next status under the given thresholds.
func (e *Engine) Validate(item domain.ContentItem, th Thresholds) Result {
	foldedBody := textutil.Fold(item.Body)
	sentences := textutil.Sentences(item.Body)

	profile := map[string]bool{
		CheckBodyLength:   len(item.Body) >= e.cfg.MinBodyLength && len(item.Body) <= e.cfg.MaxBodyLength,
		CheckLanguage:     e.languageMarkers(item.Body) >= 2,
		CheckPlaceholders: !e.hasPlaceholder(foldedBody),
		CheckSentences:    len(sentences) >= e.cfg.MinSentences,
		CheckTitleLength:  len(item.Title) >= e.cfg.MinTitleLength && len(item.Title) <= e.cfg.MaxTitleLength,
		CheckNeighborhood: e.neighborhoodMentioned(item, foldedBody),
	}

	passed := 0
	for _, ok := range profile {
		if ok {
			passed++
		}
	}

	confidence := float64(passed) / float64(len(profile)) * baseWeight
	confidence += e.categoryBonus(foldedBody, item.Category)
	confidence += e.qualityBonus(item.Body, foldedBody)
	confidence = domain.ClampConfidence(confidence)

	return Result{
		Profile:    profile,
		Confidence: confidence,
		Status:     Decide(confidence, th),
	}
}

// Decide maps a confidence onto the next status under the thresholds.
func Decide(confidence float64, th Thresholds) domain.Status {
	switch {
	case confidence >= th.Approve:
		return domain.StatusApproved
	case confidence < th.Reject:
		return domain.StatusRejected
	default:
		return domain.StatusReview
	}
}

func (e *Engine) languageMarkers(body string) int {
	tokens := map[string]bool{}
	for _, tok := range textutil.Tokenize(body) {
		tokens[tok] = true
	}
	found := 0
	for _, marker := range e.cfg.LanguageMarkers {
		if tokens[marker] {
			found++
		}
	}
	return found
}

func (e *Engine) hasPlaceholder(foldedBody string) bool {
	for _, pat := range e.cfg.PlaceholderPatterns {
		if strings.Contains(foldedBody, textutil.Fold(pat)) {
			return true
		}
	}
	return false
}

// neighborhoodMentioned passes trivially when the category does not require
// a neighborhood reference.
func (e *Engine) neighborhoodMentioned(item domain.ContentItem, foldedBody string) bool {
	if !item.Category.LocalOnly() || item.NeighborhoodID == "" {
		return true
	}
	for _, place := range e.cfg.Gazetteer {
		if strings.Contains(foldedBody, textutil.Fold(place)) {
			return true
		}
	}
	return false
}

func (e *Engine) categoryBonus(foldedBody string, category domain.Category) float64 {
	vocab := e.cfg.CategoryVocabulary[category]
	var bonus float64
	for _, word := range vocab {
		if strings.Contains(foldedBody, textutil.Fold(word)) {
			bonus += 0.025
			if bonus >= maxCategoryBonus {
				return maxCategoryBonus
			}
		}
	}
	return bonus
}

// qualityBonus grants small additive credit for indicators of usable
// reporting: a specific location, time relevance, actionable phrasing, and
// contact info. Capped at maxQualityBonus.
func (e *Engine) qualityBonus(body, foldedBody string) float64 {
	var bonus float64

	if anyContained(foldedBody, e.cfg.Gazetteer) {
		bonus += qualityStep
	}
	if anyContained(foldedBody, e.cfg.TimeKeywords) {
		bonus += qualityStep
	}
	if anyContained(foldedBody, e.cfg.ActionKeywords) {
		bonus += qualityStep
	}
	if contactRe.MatchString(body) {
		bonus += qualityStep
	}

	if bonus > maxQualityBonus {
		bonus = maxQualityBonus
	}
	return bonus
}

func anyContained(foldedBody string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(foldedBody, textutil.Fold(term)) {
			return true
		}
	}
	return false
}
