package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// HTMLCollector scrapes a listing page with configured CSS selectors and
// turns each entry into a raw item.
type HTMLCollector struct {
	client *http.Client
	clock  ports.Clock
}

// NewHTMLCollector wires an HTTP client and clock; both have defaults.
func NewHTMLCollector(client *http.Client, clock ports.Clock) *HTMLCollector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if clock == nil {
		clock = time.Now
	}
	return &HTMLCollector{client: client, clock: clock}
}

// Name identifies the strategy inside the registry.
func (c *HTMLCollector) Name() string {
	return "html"
}

// Collect fetches the configured page and extracts one raw item per
// matched entry. Entries without a title are skipped.
func (c *HTMLCollector) Collect(ctx context.Context, req Request) ([]domain.RawItem, error) {
	if req.URL == "" || req.Selectors.Item == "" {
		return nil, fmt.Errorf("source %s: url and item selector are required", req.SourceName)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", req.URL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.URL, err)
	}

	now := c.clock()
	var items []domain.RawItem
	doc.Find(req.Selectors.Item).Each(func(_ int, sel *goquery.Selection) {
		item, ok := c.parseEntry(sel, req, now)
		if ok {
			items = append(items, item)
		}
	})
	return items, nil
}

func (c *HTMLCollector) parseEntry(sel *goquery.Selection, req Request, now time.Time) (domain.RawItem, bool) {
	title := strings.TrimSpace(sel.Find(req.Selectors.Title).First().Text())
	if title == "" {
		return domain.RawItem{}, false
	}

	body := strings.TrimSpace(sel.Find(req.Selectors.Body).First().Text())

	var link string
	if req.Selectors.Link != "" {
		if href, ok := sel.Find(req.Selectors.Link).First().Attr("href"); ok {
			link = resolveLink(req.URL, href)
		}
	}

	meta := domain.NewMetadata()
	meta.SourceURL = link
	if req.NeighborhoodID != "" {
		meta = meta.WithExtra("neighborhood_id", req.NeighborhoodID)
	}

	return domain.RawItem{
		ID:          entryID(req.SourceName, title, link),
		Source:      req.SourceName,
		Title:       title,
		Body:        body,
		URL:         link,
		CollectedAt: now,
		Category:    req.Category,
		Relevance:   req.BaseRelevance,
		Metadata:    meta,
	}, true
}

// entryID derives a stable id from the source and entry identity, so a
// page scraped twice yields the same write-once raw items.
func entryID(source, title, link string) string {
	h := sha256.Sum256([]byte(source + "\x00" + title + "\x00" + link))
	return "raw-" + hex.EncodeToString(h[:12])
}

func resolveLink(base, href string) string {
	parsedBase, err := url.Parse(base)
	if err != nil {
		return href
	}
	parsedHref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return parsedBase.ResolveReference(parsedHref).String()
}
