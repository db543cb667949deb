package domain

// Status enumerates the approval state machine for content items.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusGenerated        Status = "generated"
	StatusApproved         Status = "approved"
	StatusReview           Status = "review"
	StatusRejected         Status = "rejected"
	StatusNeedsImprovement Status = "needs_improvement"
	StatusPublished        Status = "published"
	StatusArchived         Status = "archived"
)

// transitions lists every allowed edge; anything absent is forbidden.
// rejected is terminal; archived can only return to published via an explicit
// republish.
var transitions = map[Status][]Status{
	StatusDraft:            {StatusGenerated},
	StatusGenerated:        {StatusApproved, StatusReview, StatusRejected, StatusNeedsImprovement},
	StatusReview:           {StatusApproved, StatusRejected, StatusNeedsImprovement, StatusArchived},
	StatusNeedsImprovement: {StatusReview, StatusApproved, StatusRejected, StatusArchived},
	StatusApproved:         {StatusPublished, StatusRejected, StatusArchived},
	StatusPublished:        {StatusArchived},
	StatusArchived:         {StatusPublished},
}

// CanTransition reports whether the state machine allows moving a content
// item from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition except archival bookkeeping
// is possible.
func (s Status) Terminal() bool {
	return s == StatusRejected
}

// Pending reports whether the item still awaits a moderation decision.
func (s Status) Pending() bool {
	return s == StatusGenerated || s == StatusReview || s == StatusNeedsImprovement
}
