package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/awano27/daily-ai-news/internal/cache"
	"github.com/awano27/daily-ai-news/internal/logger"
)

const userAgent = "Mozilla/5.0 (compatible; AI-News-Bot/1.0)"

// maxPageBytes bounds how much HTML is read to find the title.
const maxPageBytes = 512 << 10

// Client looks up page titles. Every URL is requested at most once.
type Client struct {
	http *http.Client
	memo *cache.Memo[string]
}

func NewClient(timeout time.Duration, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{http: client, memo: cache.New[string]()}
}

// PageTitle returns og:title, or <title> when there is none. Failures are
// remembered as "" so the page is not requested again.
func (c *Client) PageTitle(ctx context.Context, url string) string {
	if t, ok := c.memo.Get(url); ok {
		return t
	}
	title, err := c.fetchTitle(ctx, url)
	if err != nil {
		logger.Debug("page title lookup failed", "url", url, "err", err)
	}
	c.memo.Set(url, title)
	return title
}

func (c *Client) fetchTitle(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}
	return extractTitle(doc), nil
}

// extractTitle prefers social-card metadata over the document title.
func extractTitle(doc *goquery.Document) string {
	metas := []string{
		`meta[property="og:title"]`,
		`meta[name="og:title"]`,
		`meta[name="twitter:title"]`,
	}
	for _, selector := range metas {
		if v, ok := doc.Find(selector).First().Attr("content"); ok {
			if v = collapse(v); v != "" {
				return v
			}
		}
	}
	return collapse(doc.Find("title").First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
