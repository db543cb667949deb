package domain

import "time"

// PublicationRecord is the durable fact that a content item was published to
// a neighborhood. Exactly one record exists per (content, neighborhood) pair.
type PublicationRecord struct {
	ID             string
	ContentID      string
	NeighborhoodID string
	Category       Category
	PublishedAt    time.Time
	Auto           bool
}

// ValidationRecord is an append-only audit entry produced by every
// validation pass over a content item.
type ValidationRecord struct {
	ContentID  string
	Profile    map[string]bool
	Confidence float64
	Status     Status
	CheckedAt  time.Time
}
