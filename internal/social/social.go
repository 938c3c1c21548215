// Package social extracts posts from the spreadsheet CSV export of a social feed.
//
// Columns are positional: timestamp, username, body, media URL, permalink.
// The last two are optional.
package social

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/awano27/daily-ai-news/internal/logger"
	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/normalize"
	"github.com/awano27/daily-ai-news/internal/timeparse"
)

const (
	colTimestamp = iota
	colUsername
	colBody
	colMedia
	colPermalink
)

const (
	DefaultMinBodyRunes = 10
	DefaultPrefixRunes  = 50
)

// TitleLookup resolves a page title for an external link.
type TitleLookup interface {
	PageTitle(ctx context.Context, url string) string
}

type Extractor struct {
	resolver     *timeparse.Resolver
	titles       TitleLookup
	MinBodyRunes int
	PrefixRunes  int
}

// NewExtractor builds an extractor. titles may be nil to skip page lookups.
func NewExtractor(resolver *timeparse.Resolver, titles TitleLookup) *Extractor {
	return &Extractor{
		resolver:     resolver,
		titles:       titles,
		MinBodyRunes: DefaultMinBodyRunes,
		PrefixRunes:  DefaultPrefixRunes,
	}
}

// Extract parses the export. Bad rows are skipped and reported; when no row
// can be parsed at all it falls back to scanning the text for permalinks.
func (e *Extractor) Extract(ctx context.Context, raw []byte) ([]news.SocialPost, *news.Report) {
	report := &news.Report{}
	text, enc := Decode(raw)
	logger.Debug("social export decoded", "encoding", enc, "bytes", len(raw))

	rows, err := readRows(text, report)
	if err == nil && len(rows) > 1 && !hasUsableRow(rows) {
		err = errors.New("no row with timestamp, username and body columns")
	}
	if err != nil {
		report.Record(news.KindParseFailure, "social", "csv", err)
		logger.Warn("social export unreadable as CSV, scanning for links", "err", err)
		return e.fallback(text), report
	}

	seenURL := map[string]struct{}{}
	seenPrefix := map[string]struct{}{}
	var posts []news.SocialPost

	for i, rec := range rows {
		if i == 0 {
			continue // header
		}
		post, ok := e.parseRow(ctx, i+1, rec, report)
		if !ok {
			continue
		}

		if _, dup := seenURL[post.Link]; dup && post.Link != news.NoLink {
			continue
		}
		prefix := strings.ToLower(post.Username) + "\x00" + firstRunes(post.Body, e.PrefixRunes)
		if _, dup := seenPrefix[prefix]; dup {
			continue
		}
		seenURL[post.Link] = struct{}{}
		seenPrefix[prefix] = struct{}{}
		posts = append(posts, post)
	}

	logger.Info("social posts extracted", "rows", max(len(rows)-1, 0), "posts", len(posts))
	return posts, report
}

func (e *Extractor) parseRow(ctx context.Context, line int, rec []string, report *news.Report) (news.SocialPost, bool) {
	subject := fmt.Sprintf("row %d", line)
	if len(rec) <= colBody {
		report.Record(news.KindParseFailure, "social", subject, errors.New("too few columns"))
		return news.SocialPost{}, false
	}

	username := cleanField(rec[colUsername])
	username = strings.TrimPrefix(username, "@")
	body := cleanField(rec[colBody])

	cleaned := CleanPostText(body)
	if utf8.RuneCountInString(cleaned) < e.MinBodyRunes {
		logger.Debug("social row too short", "row", line)
		return news.SocialPost{}, false
	}

	link := permalink(rec, body)
	if username == "" {
		username = UsernameFromStatusURL(link)
	}
	if link == "" {
		link = profileURL(username)
	}
	if link == "" {
		link = news.NoLink
	}

	_, published, err := e.resolver.ResolveString(rec[colTimestamp])
	if err != nil {
		report.Record(news.KindDateAmbiguity, "social", subject, err)
		logger.Debug("social timestamp unparseable, using now", "row", line, "value", rec[colTimestamp])
	}

	ext := ExternalLink(body)
	pageTitle := ""
	if ext != "" && e.titles != nil {
		pageTitle = e.titles.PageTitle(ctx, ext)
	}

	return news.SocialPost{
		Username:    username,
		Body:        cleaned,
		Link:        link,
		ExternalURL: ext,
		Published:   published,
		Title:       postTitle(username, cleaned, pageTitle),
		Summary:     ReadableSummary(cleaned, pageTitle, Domain(ext)),
	}, true
}

// fallback yields title-less posts for every permalink found in the text.
func (e *Extractor) fallback(text string) []news.SocialPost {
	seen := map[string]struct{}{}
	var posts []news.SocialPost
	for _, m := range statusRe.FindAllStringSubmatch(text, -1) {
		link := m[0]
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		posts = append(posts, news.SocialPost{
			Username:  m[1],
			Link:      link,
			Published: e.resolver.Now,
		})
	}
	return posts
}

// readRows reads every record, skipping malformed ones. It fails only when
// nothing at all could be read.
func readRows(text string, report *news.Report) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	var rows [][]string
	var lastErr error
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			lastErr = err
			report.Record(news.KindParseFailure, "social", fmt.Sprintf("line %d", pe.StartLine), err)
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return rows, nil
}

func hasUsableRow(rows [][]string) bool {
	for i, rec := range rows {
		if i > 0 && len(rec) > colBody {
			return true
		}
	}
	return false
}

// permalink takes the permalink column, then a platform link from the body,
// then a platform link from any other column.
func permalink(rec []string, body string) string {
	if len(rec) > colPermalink {
		if v := strings.TrimSpace(rec[colPermalink]); strings.HasPrefix(v, "http") {
			return v
		}
	}
	if link := findStatusLink(body); link != "" {
		return link
	}
	for i, v := range rec {
		if i == colBody {
			continue
		}
		if link := findStatusLink(v); link != "" {
			return link
		}
	}
	return ""
}

func cleanField(s string) string {
	s = normalize.RepairMojibake(html.UnescapeString(s))
	return strings.TrimSpace(s)
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
