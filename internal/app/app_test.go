package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/awano27/daily-ai-news/internal/config"
	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/storage"
	"github.com/awano27/daily-ai-news/internal/translate"
)

var runNow = time.Date(2025, 8, 23, 12, 0, 0, 0, time.UTC)

type item struct {
	title, link, desc string
	age               time.Duration
}

func rssFeed(items ...item) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>`)
	for _, it := range items {
		fmt.Fprintf(&b, "<item><title>%s</title><link>%s</link><description><![CDATA[%s]]></description><pubDate>%s</pubDate></item>",
			it.title, it.link, it.desc, runNow.Add(-it.age).Format(time.RFC1123Z))
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "fake" }

func (p *countingProvider) Translate(_ context.Context, text, _, _ string) (string, error) {
	p.calls++
	return "（訳）" + text, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/business.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFeed(
			item{"OpenAI launches GPT-5 with new reasoning capabilities", "https://news.example/a", "<b>GPT-5</b> is here & ready", 2 * time.Hour},
			item{"Minor blog update", "https://news.example/b", "Some housekeeping notes", 3 * time.Hour},
			item{"Old announcement", "https://news.example/old", "Last week", 48 * time.Hour},
			item{"Shared story about Google Gemini", "https://news.example/shared", "Gemini update", time.Hour},
		)))
	})
	mux.HandleFunc("/tools.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFeed(
			item{"Shared story about Google Gemini", "https://news.example/shared", "Gemini update", time.Hour},
			item{"Celebrity gossip of the week", "https://news.example/gossip", "Nothing to see here", time.Hour},
			item{"Hugging Face releases new open-source transformer library", "https://news.example/hf", "Faster inference for everyone", 4 * time.Hour},
			item{"国内AIニュース", "https://news.example/jp", "新しいモデルが公開されました", 5 * time.Hour},
		)))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:title" content="Launch Page"><title>x</title></head></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srv *httptest.Server) *config.Config {
	t.Helper()
	dir := t.TempDir()
	feeds := fmt.Sprintf(`business:
  - url: %[1]s/business.xml
    name: Business Wire
  - url: %[1]s/missing.xml
    name: Broken
Tools:
  - url: %[1]s/tools.xml
    name: Tool News
    general: true
posts: []
`, srv.URL)
	feedsPath := filepath.Join(dir, "feeds.yml")
	if err := os.WriteFile(feedsPath, []byte(feeds), 0o644); err != nil {
		t.Fatal(err)
	}

	return &config.Config{
		LookbackHours:        24,
		MaxItemsPerCategory:  8,
		SocialCategory:       "posts",
		Timezone:             "UTC",
		FeedsConfigPath:      feedsPath,
		PostsCSV:             "posts.csv",
		OGLookup:             true,
		RequestTimeout:       2 * time.Second,
		FetchRetries:         0,
		TranslateToJA:        true,
		TranslateEngine:      "google",
		TranslateTimeout:     2 * time.Second,
		MaxTranslateRequests: 0,
		CacheFilePath:        filepath.Join(dir, "cache", "translations.json"),
		OutputPath:           filepath.Join(dir, "dist", "items.json"),
	}
}

func postsLoader(srv *httptest.Server) loader {
	csv := "Timestamp,Username,Text,Media,URL\n" +
		"2025-08-23 09:00:00,@sama,We are launching a new reasoning model today " + srv.URL + "/page #AI,,https://x.com/sama/status/1\n" +
		"2025-08-01 09:00:00,old,This post is far outside of the window,,https://x.com/old/status/2\n"
	return func(context.Context, string) ([]byte, error) { return []byte(csv), nil }
}

func TestRunPipeline(t *testing.T) {
	srv := newServer(t)
	cfg := testConfig(t, srv)
	provider := &countingProvider{}

	out, err := Run(context.Background(), cfg, Deps{
		Now:        runNow,
		HTTPClient: srv.Client(),
		Providers:  []translate.Provider{provider},
		LoadPosts:  postsLoader(srv),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	names := make([]string, 0, len(out.Categories))
	for _, c := range out.Categories {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "business,tools,posts" {
		t.Fatalf("categories = %v", names)
	}

	business, tools, posts := out.Categories[0].Items, out.Categories[1].Items, out.Categories[2].Items
	if len(business) != 3 {
		t.Errorf("business items = %d, want 3", len(business))
	}
	if len(tools) != 2 {
		t.Errorf("tools items = %d, want 2 (duplicate and irrelevant dropped)", len(tools))
	}
	for _, it := range tools {
		if it.Link == "https://news.example/shared" || it.Link == "https://news.example/gossip" {
			t.Errorf("tools kept %s", it.Link)
		}
	}
	for _, cat := range out.Categories {
		for i := 1; i < len(cat.Items); i++ {
			if cat.Items[i].Score > cat.Items[i-1].Score {
				t.Errorf("%s not sorted by score at %d", cat.Name, i)
			}
		}
	}

	for _, it := range business {
		if it.Link == "https://news.example/a" {
			if it.Provenance != "translated" || !strings.HasPrefix(it.Summary, "（訳）") {
				t.Errorf("business item not translated: %+v", it)
			}
			if !strings.Contains(it.Summary, "&amp;") || strings.Contains(it.Summary, "<b>") {
				t.Errorf("summary not plain and escaped: %q", it.Summary)
			}
			if it.SummaryOriginal != "GPT-5 is here &amp; ready" {
				t.Errorf("summary_original = %q", it.SummaryOriginal)
			}
		}
	}
	for _, it := range tools {
		if it.Link == "https://news.example/jp" && it.Provenance != "original" {
			t.Errorf("japanese item was translated: %+v", it)
		}
	}

	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	p := posts[0]
	if p.Username != "sama" || p.Title != "@sama: Launch Page" || p.ExternalURL != srv.URL+"/page" {
		t.Errorf("post = %+v", p)
	}

	if provider.calls != 4 {
		t.Errorf("provider calls = %d, want 4", provider.calls)
	}
	if out.Stats["duplicates_filtered"] != int64(1) || out.Stats["sources_failed"] != int64(1) {
		t.Errorf("stats = %v", out.Stats)
	}
	if out.Errors[news.KindSourceUnavailable.String()] != 1 {
		t.Errorf("errors = %v", out.Errors)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	var decoded Output
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Categories) != 3 || decoded.LookbackHours != 24 {
		t.Errorf("decoded = %+v", decoded)
	}

	store := storage.NewTranslationStore(cfg.CacheFilePath)
	if err := store.Load(); err != nil || store.Len() != 4 {
		t.Errorf("cache entries = %d, err = %v", store.Len(), err)
	}
}

func TestRunReusesCache(t *testing.T) {
	srv := newServer(t)
	cfg := testConfig(t, srv)
	deps := Deps{Now: runNow, HTTPClient: srv.Client(), LoadPosts: postsLoader(srv)}

	first := &countingProvider{}
	deps.Providers = []translate.Provider{first}
	if _, err := Run(context.Background(), cfg, deps); err != nil {
		t.Fatal(err)
	}

	second := &countingProvider{}
	deps.Providers = []translate.Provider{second}
	out, err := Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatal(err)
	}
	if second.calls != 0 {
		t.Errorf("second run called the provider %d times", second.calls)
	}
	if out.Stats["translations_cached"] != int64(first.calls) {
		t.Errorf("cached = %v, want %d", out.Stats["translations_cached"], first.calls)
	}
}

func TestRunSurvivesBrokenInputs(t *testing.T) {
	srv := newServer(t)
	cfg := testConfig(t, srv)
	cfg.FeedsConfigPath = filepath.Join(t.TempDir(), "missing.yml")
	cfg.TranslateToJA = false
	if err := os.MkdirAll(filepath.Dir(cfg.CacheFilePath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.CacheFilePath, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Default feeds point at real hosts; an unroutable client keeps the test offline.
	offline := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("offline")
	})}
	out, err := Run(context.Background(), cfg, Deps{
		Now:        runNow,
		HTTPClient: offline,
		LoadPosts: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("sheet unavailable")
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Categories) != 3 {
		t.Errorf("categories = %d, want the 3 defaults", len(out.Categories))
	}
	if out.Errors[news.KindCacheCorruption.String()] != 1 {
		t.Errorf("cache corruption not reported: %v", out.Errors)
	}
	for _, c := range out.Categories {
		if len(c.Items) != 0 {
			t.Errorf("%s has %d items while offline", c.Name, len(c.Items))
		}
	}
}

func TestRunFailsWhenOutputCannotBeWritten(t *testing.T) {
	srv := newServer(t)
	cfg := testConfig(t, srv)
	cfg.TranslateToJA = false
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.OutputPath = filepath.Join(blocker, "items.json")

	_, err := Run(context.Background(), cfg, Deps{Now: runNow, HTTPClient: srv.Client(), LoadPosts: postsLoader(srv)})
	if err == nil {
		t.Fatal("expected an error when the output path is unusable")
	}
}

func TestAgo(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30秒前"},
		{5 * time.Minute, "5分前"},
		{3 * time.Hour, "3時間前"},
		{50 * time.Hour, "2日前"},
		{-time.Minute, "0秒前"},
	}
	for _, tt := range tests {
		if got := ago(runNow, runNow.Add(-tt.d)); got != tt.want {
			t.Errorf("ago(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

type closingProvider struct {
	countingProvider
	closed bool
}

func (p *closingProvider) Close() error {
	p.closed = true
	return nil
}

func TestCloseProviders(t *testing.T) {
	closing := &closingProvider{}
	plain := &countingProvider{}
	closeProviders([]translate.Provider{plain, closing})
	if !closing.closed {
		t.Error("provider holding a connection was not closed")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
