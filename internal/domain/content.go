package domain

import "time"

// Category classifies content and drives publication targeting.
type Category string

const (
	CategoryEmergency Category = "emergency"
	CategoryLocal     Category = "local"
	CategoryBusiness  Category = "business"
	CategoryCommunity Category = "community"
	CategoryEvents    Category = "events"
	CategoryTransport Category = "transport"
	CategoryWeather   Category = "weather"
	CategoryGeneral   Category = "general"
)

// Valid reports whether the category belongs to the known set.
func (c Category) Valid() bool {
	switch c {
	case CategoryEmergency, CategoryLocal, CategoryBusiness, CategoryCommunity,
		CategoryEvents, CategoryTransport, CategoryWeather, CategoryGeneral:
		return true
	}
	return false
}

// CityWide reports whether content of this category is relevant to every
// neighborhood rather than a single one.
func (c Category) CityWide() bool {
	switch c {
	case CategoryEmergency, CategoryTransport, CategoryWeather:
		return true
	}
	return false
}

// LocalOnly reports whether content of this category targets exactly one
// neighborhood.
func (c Category) LocalOnly() bool {
	switch c {
	case CategoryLocal, CategoryBusiness, CategoryCommunity, CategoryEvents:
		return true
	}
	return false
}

// Origin records who or what produced a content item.
type Origin string

const (
	OriginHuman    Origin = "human"
	OriginAuto     Origin = "auto"
	OriginFallback Origin = "fallback"
)

// RawItem is an unprocessed collected item. It is write-once: later stages
// consume it but never edit it.
type RawItem struct {
	ID          string
	Source      string
	Title       string
	Body        string
	URL         string
	CollectedAt time.Time
	Category    Category
	Relevance   float64
	Metadata    Metadata
}

// ContentItem is a (possibly generated) article tracked through the approval
// state machine. Items are never deleted, only transitioned to a terminal
// status.
type ContentItem struct {
	ID             string
	Title          string
	Body           string
	Category       Category
	NeighborhoodID string // empty until resolved at publish time for some categories
	Status         Status
	Confidence     float64
	Origin         Origin
	CreatedAt      time.Time
	ApprovedAt     *time.Time
	RejectedAt     *time.Time
	PublishedAt    *time.Time
	RawItemID      string
	AdminNotes     string
	ManualOverride bool
	RetryCount     int
	Metadata       Metadata
}

// Neighborhood is a publication target. Inactive neighborhoods never receive
// new publications.
type Neighborhood struct {
	ID          string
	Name        string
	Active      bool
	Subscribers int
}

// MaxConfidence is the ceiling for any machine-assigned confidence. The
// system never asserts full certainty about generated content.
const MaxConfidence = 0.95

// ClampConfidence bounds a confidence estimate to [0, MaxConfidence].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}
