package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"NewsPipeline/internal/domain"
)

func testEngine() *Engine {
	cfg := DefaultConfig()
	cfg.Gazetteer = []string{"Riverside", "Old Town", "Harbor District"}
	return NewEngine(cfg)
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	eng := testEngine()
	inputs := []struct {
		title, body string
	}{
		{"", ""},
		{"Short", "No punctuation at all"},
		{"Riverside market", "The Riverside market opens today at 10:00. Visit Old Town too. Contact info@example.org."},
		{strings.Repeat("word ", 50), strings.Repeat("word ", 500) + "."},
	}

	for _, in := range inputs {
		got := eng.Score(in.title, in.body, domain.CategoryEvents)
		require.GreaterOrEqual(t, got.Confidence, 0.0)
		require.LessOrEqual(t, got.Confidence, domain.MaxConfidence)
	}
}

func TestScoreZeroSentences(t *testing.T) {
	t.Parallel()

	eng := testEngine()
	got := eng.Score("title", "no terminal punctuation here", domain.CategoryLocal)

	require.Zero(t, got.Breakdown["readability"])
	require.Less(t, got.Confidence, 0.5)
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	eng := testEngine()
	const title = "Harbor District festival this weekend"
	const body = "The Harbor District festival starts tomorrow at 14:00. Expect music in Old Town. Tickets cost 5 - 10 euro."

	first := eng.Score(title, body, domain.CategoryEvents)
	second := eng.Score(title, body, domain.CategoryEvents)
	require.Equal(t, first, second)
}

func TestReadabilityTiers(t *testing.T) {
	t.Parallel()

	short := strings.Repeat("w ", 10) + "."
	medium := strings.Repeat("w ", 25) + "."
	long := strings.Repeat("w ", 40) + "."

	require.InDelta(t, 0.9, readability(short, []string{short}), 1e-9)
	require.InDelta(t, 0.7, readability(medium, []string{medium}), 1e-9)
	require.InDelta(t, 0.5, readability(long, []string{long}), 1e-9)
}

func TestLocalRelevanceFraction(t *testing.T) {
	t.Parallel()

	eng := testEngine()
	body := "Construction work around riverside and the harbor district continues."
	score := eng.Score("Construction", body+".", domain.CategoryLocal)

	// two of three gazetteer entries present
	require.InDelta(t, 2.0/3.0, score.Breakdown["local_relevance"], 1e-9)
}

func TestTitleAlignment(t *testing.T) {
	t.Parallel()

	// "library" and "reopens" significant; only "library" occurs in body
	got := titleAlignment("Library reopens", "The library is open daily.")
	require.InDelta(t, 0.5, got, 1e-9)

	// no significant words is neutral, not zero
	require.InDelta(t, 0.5, titleAlignment("a an of", "body."), 1e-9)
}

func TestFreshnessPerCategory(t *testing.T) {
	t.Parallel()

	eng := testEngine()
	body := "Service resumes today after delays. More news soon."

	transport := eng.Score("Bus update", body, domain.CategoryTransport)
	community := eng.Score("Bus update", body, domain.CategoryCommunity)

	require.Greater(t, transport.Breakdown["freshness"], community.Breakdown["freshness"])
}

func TestWellFormedBonus(t *testing.T) {
	t.Parallel()

	eng := testEngine()
	threeSentences := "One fact here. Another fact there. A third fact closes."
	oneSentence := "One fact here."

	with := eng.Score("Facts", threeSentences, domain.CategoryGeneral)
	without := eng.Score("Facts", oneSentence, domain.CategoryGeneral)

	require.GreaterOrEqual(t, with.Breakdown["bonus"], bonusWellFormed)
	require.Less(t, without.Breakdown["bonus"], bonusWellFormed)
}
