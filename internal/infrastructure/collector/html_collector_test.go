package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NewsPipeline/internal/domain"
)

const listingPage = `
<html><body>
  <article class="news-item">
    <h2 class="headline">Road closure on Elm Street</h2>
    <p class="teaser">Elm Street closes for repairs from Monday.</p>
    <a class="more" href="/news/elm-street">Read more</a>
  </article>
  <article class="news-item">
    <h2 class="headline">New bakery in Old Town</h2>
    <p class="teaser">A bakery opens its doors this weekend.</p>
    <a class="more" href="/news/bakery">Read more</a>
  </article>
  <article class="news-item">
    <h2 class="headline"></h2>
    <p class="teaser">Entry without a title is dropped.</p>
  </article>
</body></html>`

func testRequest(baseURL string) Request {
	return Request{
		SourceName:     "gazette",
		URL:            baseURL,
		Category:       domain.CategoryLocal,
		NeighborhoodID: "n1",
		BaseRelevance:  0.7,
		Selectors: Selectors{
			Item:  "article.news-item",
			Title: "h2.headline",
			Body:  "p.teaser",
			Link:  "a.more",
		},
	}
}

func TestCollectParsesEntries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	fixed := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)
	c := NewHTMLCollector(srv.Client(), func() time.Time { return fixed })

	items, err := c.Collect(context.Background(), testRequest(srv.URL))
	if err != nil {
		t.Fatalf("collect returned error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Road closure on Elm Street" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Body != "Elm Street closes for repairs from Monday." {
		t.Fatalf("unexpected body: %s", first.Body)
	}
	if first.URL != srv.URL+"/news/elm-street" {
		t.Fatalf("relative link not resolved: %s", first.URL)
	}
	if first.Category != domain.CategoryLocal {
		t.Fatalf("unexpected category: %s", first.Category)
	}
	if first.Relevance != 0.7 {
		t.Fatalf("unexpected relevance: %v", first.Relevance)
	}
	if !first.CollectedAt.Equal(fixed) {
		t.Fatalf("clock not used: %v", first.CollectedAt)
	}
	if first.Metadata.Extra["neighborhood_id"] != "n1" {
		t.Fatalf("neighborhood hint missing: %+v", first.Metadata)
	}
}

func TestCollectStableIDs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	c := NewHTMLCollector(srv.Client(), nil)

	first, err := c.Collect(context.Background(), testRequest(srv.URL))
	if err != nil {
		t.Fatalf("collect returned error: %v", err)
	}
	second, err := c.Collect(context.Background(), testRequest(srv.URL))
	if err != nil {
		t.Fatalf("collect returned error: %v", err)
	}

	if first[0].ID != second[0].ID {
		t.Fatalf("ids must be stable across scrapes: %s vs %s", first[0].ID, second[0].ID)
	}
}

func TestCollectErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTMLCollector(srv.Client(), nil)
	if _, err := c.Collect(context.Background(), testRequest(srv.URL)); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
