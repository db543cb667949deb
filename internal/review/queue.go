// Package review computes the read-only projection the admin review queue
// renders for pending content: a sort priority and human-readable insight
// flags. It owns no state and never mutates items.
package review

import (
	"fmt"
	"time"

	"NewsPipeline/internal/domain"
)

// categoryWeights bias the queue toward time-critical categories.
var categoryWeights = map[domain.Category]float64{
	domain.CategoryEmergency: 1.5,
	domain.CategoryTransport: 1.3,
	domain.CategoryWeather:   1.2,
	domain.CategoryEvents:    1.1,
	domain.CategoryLocal:     1.0,
	domain.CategoryBusiness:  0.9,
	domain.CategoryCommunity: 0.9,
	domain.CategoryGeneral:   0.8,
}

// Priority derives a queue ordering key from confidence, category weight,
// and age. Older pending items float up so nothing starves.
func Priority(item domain.ContentItem, now time.Time) float64 {
	weight, ok := categoryWeights[item.Category]
	if !ok {
		weight = 0.8
	}

	ageHours := now.Sub(item.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	ageBoost := ageHours / 24 * 0.1
	if ageBoost > 0.5 {
		ageBoost = 0.5
	}

	return item.Confidence*weight + ageBoost
}

// Insights returns human-readable flags explaining why an item sits where
// it does in the queue.
func Insights(item domain.ContentItem, now time.Time) []string {
	var flags []string

	switch {
	case item.Confidence >= 0.8:
		flags = append(flags, "high confidence")
	case item.Confidence < 0.5:
		flags = append(flags, "low confidence")
	}

	if item.Status == domain.StatusReview || item.Status == domain.StatusNeedsImprovement {
		flags = append(flags, "flagged for manual review")
	}
	if item.Origin == domain.OriginFallback {
		flags = append(flags, "generated by fallback template")
	}
	if item.ManualOverride {
		flags = append(flags, "manual override set")
	}
	if item.Category == domain.CategoryEmergency {
		flags = append(flags, "time critical")
	}
	if age := now.Sub(item.CreatedAt); age > 48*time.Hour {
		flags = append(flags, fmt.Sprintf("pending for %dh", int(age.Hours())))
	}

	return flags
}
