// Package normalize turns feed and CSV text into clean plain text.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// PlainText strips markup, decodes entities and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Escape makes plain text safe to embed in HTML.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Summary is PlainText followed by Escape.
func Summary(s string) string {
	return Escape(PlainText(s))
}

// Truncate cuts s to at most n runes, ending with "..." when shortened.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}

// HasJapanese reports whether s contains kana or CJK ideographs.
func HasJapanese(s string) bool {
	for _, r := range s {
		if isJapanese(r) {
			return true
		}
	}
	return false
}

func isJapanese(r rune) bool {
	return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han)
}

// feedLanguages limits detection to languages the feeds are published in.
// Short summaries rarely clear whatlanggo's reliability threshold against
// the full language list.
var feedLanguages = whatlanggo.Options{Whitelist: map[whatlanggo.Lang]bool{
	whatlanggo.Eng: true,
	whatlanggo.Jpn: true,
	whatlanggo.Cmn: true,
	whatlanggo.Kor: true,
	whatlanggo.Fra: true,
	whatlanggo.Deu: true,
	whatlanggo.Spa: true,
	whatlanggo.Por: true,
	whatlanggo.Ita: true,
	whatlanggo.Rus: true,
}}

// DetectLanguage returns the ISO 639-1 code of s, or "" when no language
// stands out.
func DetectLanguage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if hasKana(s) {
		return "ja"
	}
	info := whatlanggo.DetectWithOptions(s, feedLanguages)
	if info.Lang < 0 || info.Confidence <= 0 {
		return ""
	}
	return info.Lang.Iso6391()
}

func hasKana(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}
