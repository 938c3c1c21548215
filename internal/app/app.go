// Package app wires the daily pipeline: fetch, normalize, score, dedup,
// select, translate and write the artifact.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/awano27/daily-ai-news/internal/config"
	"github.com/awano27/daily-ai-news/internal/logger"
	"github.com/awano27/daily-ai-news/internal/metrics"
	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/ratelimit"
	"github.com/awano27/daily-ai-news/internal/rss"
	"github.com/awano27/daily-ai-news/internal/score"
	"github.com/awano27/daily-ai-news/internal/scraper"
	"github.com/awano27/daily-ai-news/internal/social"
	"github.com/awano27/daily-ai-news/internal/storage"
	"github.com/awano27/daily-ai-news/internal/timeparse"
	"github.com/awano27/daily-ai-news/internal/translate"
)

type loader func(ctx context.Context, location string) ([]byte, error)

// Deps lets callers replace the clock and outside services. Zero values
// select the real ones.
type Deps struct {
	Now        time.Time
	HTTPClient *http.Client
	// Providers replaces the engines named in the config when non-nil.
	Providers []translate.Provider
	LoadPosts loader
}

// Run executes one batch. Only a failure to write the output artifact is
// returned as an error; everything else is logged and counted.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Output, error) {
	now := deps.Now
	if now.IsZero() {
		now = time.Now()
	}
	started := time.Now()
	m := metrics.New(now)
	report := &news.Report{}

	loc := timeparse.LoadLocation(cfg.Timezone)
	resolver := timeparse.NewResolver(now, cfg.Lookback(), loc)

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		logger.Warn("feeds config unavailable, using defaults", "path", cfg.FeedsConfigPath, "err", err)
		feeds = rss.DefaultFeeds()
	}

	store := storage.NewTranslationStore(cfg.CacheFilePath)
	if err := store.Load(); err != nil {
		if errors.Is(err, storage.ErrCacheCorrupt) {
			report.Record(news.KindCacheCorruption, "cache", cfg.CacheFilePath, err)
		}
		logger.Warn("translation cache discarded", "path", cfg.CacheFilePath, "err", err)
	} else {
		logger.Info("translation cache loaded", "path", cfg.CacheFilePath, "entries", store.Len())
	}

	col := &collector{
		resolver: resolver,
		general:  score.New(score.General(), now),
		social:   score.New(score.Social(socialReference(cfg, resolver)), now),
		metrics:  m,
		report:   report,
	}

	buckets := gather(ctx, cfg, deps, feeds, col)

	buckets, dropped := news.Deduplicate(buckets)
	m.AddDuplicatesFiltered(dropped)
	logger.Info("duplicates removed", "count", dropped)

	for i := range buckets {
		buckets[i].Items = news.Select(buckets[i].Items, cfg.MaxItemsPerCategory)
		m.AddItemsSelected(len(buckets[i].Items))
	}

	limiter := ratelimit.New(cfg.TranslateRPS, cfg.MaxTranslateRequests)
	if cfg.TranslateToJA {
		providers := deps.Providers
		if providers == nil {
			providers = buildProviders(ctx, cfg, deps.HTTPClient)
			defer closeProviders(providers)
		}
		tr := translate.NewTranslator(store, "ja", limiter, providers...)
		translateBuckets(ctx, tr, cfg.TranslateTimeout, buckets, m, report)
		limiter.LogStats()
	} else {
		markOriginal(buckets)
	}

	if store.Added() > 0 {
		if err := store.Flush(); err != nil {
			logger.Error("failed to save translation cache", "path", cfg.CacheFilePath, "err", err)
		} else {
			logger.Info("translation cache saved", "path", cfg.CacheFilePath, "entries", store.Len(), "added", store.Added())
		}
	}

	m.RecordProcessingTime(time.Since(started))
	out := buildOutput(now.In(loc), cfg.LookbackHours, buckets)
	out.Stats = m.Stats()
	if report.Len() > 0 {
		out.Errors = report.Summary()
		logger.Warn("run finished with recovered errors", "errors", out.Errors)
	}

	if err := writeOutput(cfg.OutputPath, out); err != nil {
		return out, err
	}
	logger.Info("output written", "path", cfg.OutputPath, "stats", out.Stats)
	return out, nil
}

// gather collects the items of every category in config order. The social
// category receives the posts of the CSV export in addition to its feeds.
func gather(ctx context.Context, cfg *config.Config, deps Deps, feeds []news.Category, col *collector) []news.Bucket {
	timeout := cfg.RequestTimeout
	fetchCfg := rss.DefaultConfig()
	fetchCfg.Timeout = timeout
	fetchCfg.Retries = cfg.FetchRetries
	fetcher := rss.NewFetcher(fetchCfg, deps.HTTPClient)

	hasSocial := false
	for _, cat := range feeds {
		if cat.Name == cfg.SocialCategory {
			hasSocial = true
		}
	}
	if !hasSocial && cfg.PostsCSV != "" {
		feeds = append(feeds, news.Category{Name: cfg.SocialCategory})
	}

	buckets := make([]news.Bucket, 0, len(feeds))
	for _, cat := range feeds {
		raw, rep := fetcher.FetchCategory(ctx, cat)
		col.report.Merge(rep)
		col.metrics.AddSourcesFailed(rep.Count(news.KindSourceUnavailable))
		col.metrics.AddParseFailures(rep.Count(news.KindParseFailure))
		col.metrics.AddEntriesFetched(len(raw))

		items := col.entries(cat.Name, raw)

		if cat.Name == cfg.SocialCategory {
			items = append(items, socialItems(ctx, cfg, deps, col)...)
		}
		logger.Info("category collected", "category", cat.Name, "items", len(items))
		buckets = append(buckets, news.Bucket{Category: cat.Name, Items: items})
	}
	return buckets
}

func socialItems(ctx context.Context, cfg *config.Config, deps Deps, col *collector) []news.Item {
	load := deps.LoadPosts
	if load == nil {
		load = func(ctx context.Context, location string) ([]byte, error) {
			return social.Load(ctx, location, cfg.RequestTimeout)
		}
	}

	var titles social.TitleLookup
	if cfg.OGLookup {
		titles = scraper.NewClient(cfg.RequestTimeout, deps.HTTPClient)
	}
	ex := social.NewExtractor(col.resolver, titles)

	posts := loadPosts(ctx, cfg.PostsCSV, load, ex, col.report)
	col.metrics.AddPostsExtracted(len(posts))
	return col.posts(cfg.SocialCategory, posts)
}

// socialReference is the day social posts get their full day bonus on.
func socialReference(cfg *config.Config, r *timeparse.Resolver) time.Time {
	if cfg.SocialReferenceDate != "" {
		if t, err := time.ParseInLocation(time.DateOnly, cfg.SocialReferenceDate, r.Location); err == nil {
			return t
		}
	}
	return r.Now
}

func buildProviders(ctx context.Context, cfg *config.Config, client *http.Client) []translate.Provider {
	if client == nil {
		client = &http.Client{Timeout: cfg.TranslateTimeout}
	}
	opts := translate.ProviderOptions{
		HTTPClient:   client,
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}

	var providers []translate.Provider
	for _, name := range []string{cfg.TranslateEngine, cfg.TranslateFallback} {
		p, err := translate.NewProvider(ctx, name, opts)
		if err != nil {
			logger.Warn("translation engine unavailable", "engine", name, "err", err)
			continue
		}
		if p != nil {
			providers = append(providers, p)
		}
	}
	return providers
}

// closeProviders releases engines that hold connections, such as gemini.
func closeProviders(providers []translate.Provider) {
	for _, p := range providers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Warn("failed to close translation engine", "engine", p.Name(), "err", err)
		}
	}
}

// translateBuckets replaces each selected summary with its Japanese translation.
func translateBuckets(ctx context.Context, tr *translate.Translator, timeout time.Duration, buckets []news.Bucket, m *metrics.Metrics, report *news.Report) {
	for bi := range buckets {
		for ii := range buckets[bi].Items {
			it := &buckets[bi].Items[ii]
			it.SummaryOriginal = it.Summary

			tctx, cancel := context.WithTimeout(ctx, timeout)
			res := tr.Translate(tctx, it.Link, it.Summary)
			cancel()

			it.Summary = res.Text
			it.Provenance = res.Provenance
			switch {
			case res.Skipped:
				m.IncrementTranslationsSkipped()
			case res.FromCache:
				m.IncrementTranslationsCached()
			case res.Err != nil:
				m.IncrementTranslationsFailed()
				report.Add(res.Err)
				logger.Warn("translation failed, keeping original", "link", it.Link, "err", res.Err)
			case res.Provenance == news.ProvenanceTranslated:
				m.IncrementTranslationsFresh()
			}
		}
	}
}

func markOriginal(buckets []news.Bucket) {
	for bi := range buckets {
		for ii := range buckets[bi].Items {
			it := &buckets[bi].Items[ii]
			it.SummaryOriginal = it.Summary
			it.Provenance = news.ProvenanceOriginal
		}
	}
}

// Describe renders the selection for the terminal.
func Describe(out *Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "generated %s (last %dh)\n", out.GeneratedAt.Format("2006-01-02 15:04 MST"), out.LookbackHours)
	for _, cat := range out.Categories {
		fmt.Fprintf(&b, "\n[%s] %d items\n", cat.Name, len(cat.Items))
		for i, it := range cat.Items {
			fmt.Fprintf(&b, "%2d. %4.1f %-6s %s (%s, %s)\n", i+1, it.Score, it.Tier, it.Title, it.Source, it.Ago)
		}
	}
	return b.String()
}
