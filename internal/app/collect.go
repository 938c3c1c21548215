package app

import (
	"context"
	"time"

	"github.com/awano27/daily-ai-news/internal/logger"
	"github.com/awano27/daily-ai-news/internal/metrics"
	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/normalize"
	"github.com/awano27/daily-ai-news/internal/score"
	"github.com/awano27/daily-ai-news/internal/social"
	"github.com/awano27/daily-ai-news/internal/timeparse"
)

const (
	noTitle      = "(no title)"
	summaryRunes = 400
)

// collector turns raw entries and social posts into scored items.
type collector struct {
	resolver *timeparse.Resolver
	general  *score.Scorer
	social   *score.Scorer
	metrics  *metrics.Metrics
	report   *news.Report
}

// entries normalizes feed entries of one category, dropping those outside the
// window and irrelevant entries of general-interest feeds.
func (c *collector) entries(category string, raw []news.RawEntry) []news.Item {
	items := make([]news.Item, 0, len(raw))
	for _, e := range raw {
		in, published := c.resolve(e)
		if !in {
			c.metrics.IncrementOutOfWindow()
			continue
		}

		title := normalize.PlainText(e.Title)
		if title == "" {
			title = noTitle
		}
		summary := normalize.PlainText(e.Summary)
		if summary == "" {
			summary = normalize.PlainText(e.Title)
		}
		summary = normalize.Truncate(summary, summaryRunes)

		link := e.Link
		if link == "" {
			link = news.NoLink
		}

		input := score.Input{Title: title, Summary: summary, Source: e.Source, Link: link, Published: published}
		if e.General && !c.general.Relevant(input) {
			c.metrics.IncrementIrrelevantGeneral()
			logger.Debug("general entry not relevant", "source", e.Source, "title", title)
			continue
		}

		s := c.general.Score(input)
		items = append(items, news.Item{
			Title:     title,
			Link:      link,
			Summary:   summary,
			Published: published,
			Source:    e.Source,
			Category:  category,
			Lang:      normalize.DetectLanguage(title + " " + summary),
			Score:     s,
			Tier:      news.TierOf(s),
		})
	}
	return items
}

func (c *collector) resolve(e news.RawEntry) (bool, time.Time) {
	if e.Published == nil && e.PublishedRaw != "" {
		in, t, err := c.resolver.ResolveString(e.PublishedRaw)
		if err != nil {
			c.report.Record(news.KindDateAmbiguity, "timestamp", e.Link, err)
			logger.Debug("entry timestamp unparseable, using now", "source", e.Source, "value", e.PublishedRaw)
		}
		return in, t
	}
	return c.resolver.Resolve(e.Published)
}

// posts converts social posts into items of category.
func (c *collector) posts(category string, posts []news.SocialPost) []news.Item {
	items := make([]news.Item, 0, len(posts))
	for _, p := range posts {
		if !c.resolver.InWindow(p.Published) {
			c.metrics.IncrementOutOfWindow()
			continue
		}

		title := p.Title
		if title == "" {
			title = "@" + p.Username
		}
		summary := p.Summary
		if summary == "" {
			summary = p.Body
		}
		source := "X"
		if p.Username != "" {
			source = "X (@" + p.Username + ")"
		}

		s := c.social.Score(score.Input{
			Title:     title,
			Summary:   p.Body,
			Source:    "@" + p.Username,
			Link:      p.Link,
			Published: p.Published,
		})
		items = append(items, news.Item{
			Title:       title,
			Link:        p.Link,
			Summary:     summary,
			Published:   p.Published,
			Source:      source,
			Category:    category,
			Lang:        normalize.DetectLanguage(p.Body),
			Score:       s,
			Tier:        news.TierOf(s),
			Username:    p.Username,
			ExternalURL: p.ExternalURL,
		})
	}
	return items
}

// loadPosts reads and extracts the social export. Any failure yields no posts.
func loadPosts(ctx context.Context, location string, load loader, ex *social.Extractor, report *news.Report) []news.SocialPost {
	if location == "" {
		return nil
	}
	raw, err := load(ctx, location)
	if err != nil {
		report.Record(news.KindSourceUnavailable, "social", location, err)
		logger.Warn("social export unavailable", "location", location, "err", err)
		return nil
	}
	posts, rep := ex.Extract(ctx, raw)
	report.Merge(rep)
	return posts
}
