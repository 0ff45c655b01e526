// Package scrape fetches web pages and extracts a bounded plain-text
// representation for prompt grounding.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/cache"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
	"github.com/manoa-its/helpdesk-assistant/pkg/metrics"
)

const (
	// maxContentChars bounds extracted text after whitespace normalization.
	maxContentChars = 40_000

	// scrapeErrMessage is the error recorded on any fetch or parse failure.
	scrapeErrMessage = "Failed to scrape URL"

	fetchTimeout = 15 * time.Second
	userAgent    = "helpdesk-assistant/1.0 (+https://its.hawaii.edu)"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	urlRe        = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// FindURL returns the first URL mentioned in a message, or "".
func FindURL(message string) string {
	return strings.TrimRight(urlRe.FindString(message), ".,)!?")
}

// Retriever fetches a URL, strips non-content markup and produces a
// CachedPage, consulting and populating the content cache.
type Retriever struct {
	cache  *cache.ContentCache
	client *http.Client
	logger *logger.Logger
}

// NewRetriever creates a page retriever backed by the given cache.
func NewRetriever(contentCache *cache.ContentCache, log *logger.Logger) *Retriever {
	return &Retriever{
		cache: contentCache,
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		logger: log,
	}
}

// Fetch returns the extracted page for a URL. It never returns an error to
// the caller: failures yield a structurally valid record with the Error
// field set and every other field empty.
func (r *Retriever) Fetch(ctx context.Context, url string) *model.CachedPage {
	if page, ok := r.cache.Get(ctx, url); ok {
		return page
	}

	start := time.Now()
	page, err := r.fetch(ctx, url)
	if err != nil {
		r.logger.Warn("page fetch failed", zap.String("url", url), zap.Error(err))
		metrics.ScrapeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return &model.CachedPage{
			URL:      url,
			Headings: model.PageHeadings{H1: []string{}, H2: []string{}},
			Error:    scrapeErrMessage,
			CachedAt: time.Now().UTC(),
		}
	}
	metrics.ScrapeDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	r.cache.Put(ctx, url, page)
	return page
}

func (r *Retriever) fetch(ctx context.Context, url string) (*model.CachedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	return extract(url, doc), nil
}

// extract harvests page text in a fixed priority order: title, meta
// description, h1s, h2s, article blocks, main blocks, content-classed
// blocks, paragraphs, list items.
func extract(url string, doc *goquery.Document) *model.CachedPage {
	doc.Find("script, style, noscript, iframe").Remove()

	title := normalize(doc.Find("title").First().Text())
	metaDescription := normalize(doc.Find(`meta[name="description"]`).AttrOr("content", ""))

	headings := model.PageHeadings{H1: []string{}, H2: []string{}}
	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		if t := normalize(s.Text()); t != "" {
			headings.H1 = append(headings.H1, t)
		}
	})
	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		if t := normalize(s.Text()); t != "" {
			headings.H2 = append(headings.H2, t)
		}
	})

	parts := []string{title, metaDescription}
	parts = append(parts, headings.H1...)
	parts = append(parts, headings.H2...)
	for _, selector := range []string{"article", "main", ".content", "p", "li"} {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if t := normalize(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
	}

	content := truncateRunes(normalize(strings.Join(parts, " ")), maxContentChars)

	return &model.CachedPage{
		URL:             url,
		Title:           title,
		Headings:        headings,
		MetaDescription: metaDescription,
		Content:         content,
		CachedAt:        time.Now().UTC(),
	}
}

// normalize collapses runs of whitespace and newlines to single spaces.
func normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// truncateRunes caps a string at n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
