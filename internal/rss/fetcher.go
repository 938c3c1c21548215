package rss

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/awano27/daily-ai-news/internal/cache"
	"github.com/awano27/daily-ai-news/internal/logger"
	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/retry"
)

// DefaultUserAgents are tried in order; the first is browser-like.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (compatible; AI-News-Bot/1.0)",
}

type Config struct {
	Timeout    time.Duration
	UserAgents []string
	// Retries is the number of alternate user agents tried after a 403 or timeout.
	Retries int
	// Hosts that rate-limit bots get a randomized pause before each retry.
	ThrottledHosts []string
	ThrottleMin    time.Duration
	ThrottleMax    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:        8 * time.Second,
		UserAgents:     DefaultUserAgents,
		Retries:        2,
		ThrottledHosts: []string{"reddit.com"},
		ThrottleMin:    time.Second,
		ThrottleMax:    3 * time.Second,
	}
}

type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, http.StatusText(e.Code))
}

// errEmptyEntry marks a feed entry dropped for having neither title nor link.
var errEmptyEntry = errors.New("entry has neither title nor link")

type fetchResult struct {
	entries []news.RawEntry
	skipped int
	err     error
}

// Fetcher downloads and parses feeds. Each URL is fetched at most once per
// Fetcher; later calls return the remembered result.
type Fetcher struct {
	client  *http.Client
	parser  *gofeed.Parser
	cfg     Config
	memo    *cache.Memo[fetchResult]
	skipped int
}

// NewFetcher builds a fetcher. A nil client gets one with cfg.Timeout.
func NewFetcher(cfg Config, client *http.Client) *Fetcher {
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client: client,
		parser: gofeed.NewParser(),
		cfg:    cfg,
		memo:   cache.New[fetchResult](),
	}
}

// Fetch returns the entries of one source. On failure it returns no entries
// and a *news.StageError; it never panics or aborts the run.
func (f *Fetcher) Fetch(ctx context.Context, src news.FeedSource) ([]news.RawEntry, error) {
	r, _ := f.load(ctx, src)
	return r.entries, r.err
}

// load reports whether the result came from the network rather than the memo.
func (f *Fetcher) load(ctx context.Context, src news.FeedSource) (fetchResult, bool) {
	if r, ok := f.memo.Get(src.URL); ok {
		return r, false
	}
	r := f.fetch(ctx, src)
	f.memo.Set(src.URL, r)
	f.skipped += r.skipped
	return r, true
}

// FetchCategory fetches every source of a category, skipping the ones that
// fail. Entries dropped while parsing are reported as parse failures the
// first time their source is fetched.
func (f *Fetcher) FetchCategory(ctx context.Context, cat news.Category) ([]news.RawEntry, *news.Report) {
	report := &news.Report{}
	var all []news.RawEntry
	ok := 0
	for _, src := range cat.Sources {
		r, fresh := f.load(ctx, src)
		if fresh {
			for i := 0; i < r.skipped; i++ {
				report.Record(news.KindParseFailure, "fetch", src.URL, errEmptyEntry)
			}
		}
		entries, err := r.entries, r.err
		if err != nil {
			var se *news.StageError
			if !errors.As(err, &se) {
				se = news.NewStageError(news.KindSourceUnavailable, "fetch", src.URL, err)
			}
			report.Add(se)
			logger.Warn("source skipped", "category", cat.Name, "source", src.Name, "url", src.URL, "err", err)
			continue
		}
		ok++
		all = append(all, entries...)
		logger.Debug("source loaded", "category", cat.Name, "source", src.Name, "entries", len(entries))
	}
	logger.Info("category fetched", "category", cat.Name, "sources_ok", ok, "sources", len(cat.Sources), "entries", len(all))
	return all, report
}

// Skipped is the number of entries dropped for having neither title nor link.
func (f *Fetcher) Skipped() int {
	return f.skipped
}

func (f *Fetcher) fetch(ctx context.Context, src news.FeedSource) fetchResult {
	throttled := f.throttled(src.URL)
	attempts := f.cfg.Retries + 1
	if attempts > len(f.cfg.UserAgents) {
		attempts = len(f.cfg.UserAgents)
	}

	var feed *gofeed.Feed
	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: attempts,
		Retryable:   retryable,
		DelayFunc: func(int) time.Duration {
			if throttled {
				return f.jitter()
			}
			return 0
		},
	}, func(attempt int) error {
		ua := f.cfg.UserAgents[(attempt-1)%len(f.cfg.UserAgents)]
		var err error
		feed, err = f.get(ctx, src.URL, ua)
		if err != nil {
			logger.Debug("fetch attempt failed", "url", src.URL, "attempt", attempt, "err", err)
		}
		return err
	})
	if err != nil {
		kind := news.KindSourceUnavailable
		if errors.Is(err, news.ErrParseFailure) {
			kind = news.KindParseFailure
		}
		return fetchResult{err: news.NewStageError(kind, "fetch", src.URL, err)}
	}

	name := src.Name
	if name == "" {
		name = feed.Title
	}

	r := fetchResult{entries: make([]news.RawEntry, 0, len(feed.Items))}
	for _, item := range feed.Items {
		entry, ok := convertFeedItem(item, name, src.General)
		if !ok {
			r.skipped++
			logger.Debug("entry skipped", "url", src.URL, "kind", news.KindParseFailure)
			continue
		}
		r.entries = append(r.entries, entry)
	}
	return r
}

func (f *Fetcher) get(ctx context.Context, rawURL, userAgent string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", retry.ErrPermanent)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Code: resp.StatusCode}
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %v: %w", err, news.ErrParseFailure)
	}
	return feed, nil
}

func convertFeedItem(item *gofeed.Item, source string, general bool) (news.RawEntry, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}
	title := strings.TrimSpace(item.Title)
	if title == "" && link == "" {
		return news.RawEntry{}, false
	}
	if link == "" {
		link = news.NoLink
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	entry := news.RawEntry{
		Title:   title,
		Link:    link,
		Summary: summary,
		Source:  source,
		General: general,
	}
	switch {
	case item.PublishedParsed != nil:
		entry.Published = item.PublishedParsed
	case item.UpdatedParsed != nil:
		entry.Published = item.UpdatedParsed
	}
	entry.PublishedRaw = item.Published
	if entry.PublishedRaw == "" {
		entry.PublishedRaw = item.Updated
	}
	return entry, true
}

// retryable is true for 403 responses and timeouts only.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusForbidden
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (f *Fetcher) throttled(rawURL string) bool {
	host := hostOf(rawURL)
	for _, h := range f.cfg.ThrottledHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (f *Fetcher) jitter() time.Duration {
	lo, hi := f.cfg.ThrottleMin, f.cfg.ThrottleMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}
