package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
)

var testThresholds = Thresholds{Approve: 0.85, Reject: 0.40}

func TestDecideBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		confidence float64
		want       domain.Status
	}{
		{0.85, domain.StatusApproved},
		{0.8499, domain.StatusReview},
		{0.40, domain.StatusReview},
		{0.3999, domain.StatusRejected},
		{0.0, domain.StatusRejected},
		{0.95, domain.StatusApproved},
	}

	for _, c := range cases {
		require.Equal(t, c.want, Decide(c.confidence, testThresholds), "confidence %v", c.confidence)
	}
}

func goodItem() domain.ContentItem {
	return domain.ContentItem{
		Title:    "Harbor District ferry schedule changes from Monday",
		Category: domain.CategoryTransport,
		Body: "The ferry between the Harbor District and the city center will run " +
			"every 20 minutes starting Monday. The operator said this change will " +
			"stay in place for the season. Questions are answered at 555-123456.",
	}
}

func TestValidateGoodItemApproved(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Gazetteer = []string{"Harbor District"}
	eng := NewEngine(cfg)

	res := eng.Validate(goodItem(), testThresholds)

	for check, ok := range res.Profile {
		require.True(t, ok, "check %s failed", check)
	}
	require.GreaterOrEqual(t, res.Confidence, testThresholds.Approve)
	require.LessOrEqual(t, res.Confidence, domain.MaxConfidence)
	require.Equal(t, domain.StatusApproved, res.Status)
}

func TestValidatePlaceholderFails(t *testing.T) {
	t.Parallel()

	eng := NewEngine(DefaultConfig())
	item := goodItem()
	item.Body = strings.Replace(item.Body, "The operator said", "[insert quote]", 1)

	res := eng.Validate(item, testThresholds)
	require.False(t, res.Profile[CheckPlaceholders])
}

func TestValidateEmptyBodyRejected(t *testing.T) {
	t.Parallel()

	eng := NewEngine(DefaultConfig())
	res := eng.Validate(domain.ContentItem{Title: "x", Category: domain.CategoryLocal}, testThresholds)

	require.Equal(t, domain.StatusRejected, res.Status)
	require.False(t, res.Profile[CheckBodyLength])
	require.False(t, res.Profile[CheckSentences])
}

func TestNeighborhoodCheckOnlyWhenRequired(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Gazetteer = []string{"Old Town"}
	eng := NewEngine(cfg)

	item := goodItem()
	item.Category = domain.CategoryLocal
	item.NeighborhoodID = "n1"
	res := eng.Validate(item, testThresholds)
	require.False(t, res.Profile[CheckNeighborhood], "local item without place name must fail the check")

	item.Category = domain.CategoryWeather // city-wide, check not required
	res = eng.Validate(item, testThresholds)
	require.True(t, res.Profile[CheckNeighborhood])
}

func TestQualityBonusCapped(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Gazetteer = []string{"Old Town"}
	eng := NewEngine(cfg)

	// all four indicators present, cap still applies
	foldedBody := "visit old town today and register by mail to hello@town.example"
	require.InDelta(t, maxQualityBonus, eng.qualityBonus(foldedBody, foldedBody), 1e-9)
}
