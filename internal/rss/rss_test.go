package rss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/awano27/daily-ai-news/internal/news"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Article 1</title>
      <link>http://example.com/article1</link>
      <description>&lt;p&gt;First article&lt;/p&gt;</description>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Article 2</title>
      <link>http://example.com/article2</link>
      <description>Second article</description>
    </item>
    <item>
      <description>No title and no link</description>
    </item>
  </channel>
</rss>`

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 200 * time.Millisecond
	cfg.ThrottleMin = time.Millisecond
	cfg.ThrottleMax = 2 * time.Millisecond
	return cfg
}

func feedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesEntries(t *testing.T) {
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeed))
	})

	f := NewFetcher(testConfig(), nil)
	entries, err := f.Fetch(context.Background(), news.FeedSource{URL: srv.URL, Name: "Test", General: true})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if f.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", f.Skipped())
	}

	first := entries[0]
	if first.Title != "Article 1" || first.Link != "http://example.com/article1" {
		t.Errorf("unexpected entry: %+v", first)
	}
	if first.Published == nil || first.Published.Year() != 2024 {
		t.Errorf("published not parsed: %v", first.Published)
	}
	if first.Source != "Test" || !first.General {
		t.Errorf("source fields not carried: %+v", first)
	}
	if entries[1].Published != nil {
		t.Errorf("undated entry got a time: %v", entries[1].Published)
	}
}

func TestFetchRotatesUserAgentOn403(t *testing.T) {
	var calls atomic.Int32
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.UserAgent() == DefaultUserAgents[0] {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(testFeed))
	})

	f := NewFetcher(testConfig(), nil)
	entries, err := f.Fetch(context.Background(), news.FeedSource{URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(entries) != 2 || calls.Load() != 2 {
		t.Errorf("entries=%d calls=%d, want 2 and 2", len(entries), calls.Load())
	}
}

func TestFetchDoesNotRetry404(t *testing.T) {
	var calls atomic.Int32
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	f := NewFetcher(testConfig(), nil)
	entries, err := f.Fetch(context.Background(), news.FeedSource{URL: srv.URL})
	if !errors.Is(err, news.ErrSourceUnavailable) {
		t.Errorf("err = %v, want source unavailable", err)
	}
	if len(entries) != 0 || calls.Load() != 1 {
		t.Errorf("entries=%d calls=%d", len(entries), calls.Load())
	}
}

func TestFetchTimeoutYieldsEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.Retries = 1
	f := NewFetcher(cfg, nil)

	entries, err := f.Fetch(context.Background(), news.FeedSource{URL: srv.URL})
	if err == nil {
		t.Fatal("expected error")
	}
	var se *news.StageError
	if !errors.As(err, &se) || se.Kind != news.KindSourceUnavailable {
		t.Errorf("err = %v, want source unavailable stage error", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries", len(entries))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one alternate agent)", calls.Load())
	}
}

func TestFetchParseFailure(t *testing.T) {
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	})

	f := NewFetcher(testConfig(), nil)
	_, err := f.Fetch(context.Background(), news.FeedSource{URL: srv.URL})
	if !errors.Is(err, news.ErrParseFailure) {
		t.Errorf("err = %v, want parse failure", err)
	}
}

func TestFetchOncePerRun(t *testing.T) {
	var calls atomic.Int32
	srv := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(testFeed))
	})

	f := NewFetcher(testConfig(), nil)
	src := news.FeedSource{URL: srv.URL}
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), src); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFetchCategorySkipsFailingSources(t *testing.T) {
	good := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	})
	bad := feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	f := NewFetcher(testConfig(), nil)
	entries, report := f.FetchCategory(context.Background(), news.Category{
		Name:    "tools",
		Sources: []news.FeedSource{{URL: bad.URL, Name: "bad"}, {URL: good.URL, Name: "good"}},
	})
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
	if report.Count(news.KindSourceUnavailable) != 1 {
		t.Errorf("report = %+v", report.Summary())
	}
	if report.Count(news.KindParseFailure) != 1 {
		t.Errorf("entry without title and link not reported: %+v", report.Summary())
	}

	// The memoized source is not reported a second time.
	_, again := f.FetchCategory(context.Background(), news.Category{
		Name:    "posts",
		Sources: []news.FeedSource{{URL: good.URL, Name: "good"}},
	})
	if again.Count(news.KindParseFailure) != 0 {
		t.Errorf("second category report = %+v", again.Summary())
	}
}

func TestThrottledHosts(t *testing.T) {
	f := NewFetcher(testConfig(), nil)
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.reddit.com/r/MachineLearning/.rss", true},
		{"https://old.reddit.com/r/x/.rss", true},
		{"https://notreddit.com/feed", false},
		{"https://techcrunch.com/feed/", false},
	}
	for _, tt := range tests {
		if got := f.throttled(tt.url); got != tt.want {
			t.Errorf("throttled(%s) = %v, want %v", tt.url, got, tt.want)
		}
	}
	if d := f.jitter(); d < time.Millisecond || d > 2*time.Millisecond {
		t.Errorf("jitter %v outside bounds", d)
	}
}

func TestParseFeeds(t *testing.T) {
	data := []byte(`
Tools:
  - url: https://huggingface.co/blog/feed.xml
    name: Hugging Face
business:
  - https://techcrunch.com/feed/
  - url: https://news.example.com/rss
    general: true
tools:
  - url: https://pytorch.org/feed.xml
`)
	cats, err := ParseFeeds(data)
	if err != nil {
		t.Fatalf("ParseFeeds: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "tools" || cats[1].Name != "business" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	if len(cats[0].Sources) != 2 {
		t.Errorf("case-insensitive categories not merged: %+v", cats[0].Sources)
	}
	if cats[1].Sources[0].Name != "techcrunch.com" {
		t.Errorf("default name = %q", cats[1].Sources[0].Name)
	}
	if !cats[1].Sources[1].General {
		t.Error("general flag lost")
	}
}

func TestParseFeedsRejectsList(t *testing.T) {
	if _, err := ParseFeeds([]byte("- a\n- b\n")); err == nil {
		t.Error("expected error for top-level list")
	}
}
