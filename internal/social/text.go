package social

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/awano27/daily-ai-news/internal/normalize"
)

var (
	urlRe      = regexp.MustCompile(`https?://[^\s<>"'）」』]+`)
	statusRe   = regexp.MustCompile(`https?://(?:www\.|mobile\.)?(?:x|twitter)\.com/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)`)
	platformRe = regexp.MustCompile(`https?://(?:www\.|mobile\.)?(?:x|twitter)\.com/[A-Za-z0-9_/?=&.%-]+`)
	trailTagRe = regexp.MustCompile(`(?:\s*[#＃@][\p{L}\p{N}_]+)+\s*$`)
)

// platformHosts never count as the "external" article link of a post.
var platformHosts = []string{"x.com", "twitter.com", "t.co"}

const (
	titleRunes   = 80
	briefRunes   = 140
	summaryRunes = 280
)

// CleanPostText drops URLs and trailing hashtag/mention runs and collapses whitespace.
func CleanPostText(s string) string {
	s = urlRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = trailTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExternalLink returns the first link in s that does not point back at the platform.
func ExternalLink(s string) string {
	for _, m := range urlRe.FindAllString(s, -1) {
		m = strings.TrimRight(m, ".,;:!?)]")
		u, err := url.Parse(m)
		if err != nil || u.Host == "" {
			continue
		}
		if isPlatformHost(u.Host) {
			continue
		}
		return m
	}
	return ""
}

func isPlatformHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range platformHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Domain is the host of raw without "www.".
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// findStatusLink returns the first platform link in s, preferring status permalinks.
func findStatusLink(s string) string {
	if m := statusRe.FindString(s); m != "" {
		return m
	}
	return strings.TrimRight(platformRe.FindString(s), ".,;:!?")
}

// UsernameFromStatusURL extracts the account name of a status permalink.
func UsernameFromStatusURL(raw string) string {
	m := statusRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

func profileURL(username string) string {
	if username == "" {
		return ""
	}
	return "https://x.com/" + username
}

var tagRules = []struct {
	tag   string
	words []string
}{
	{"実装", []string{"github", "code", "sdk", "api", "tutorial", "実装", "コード"}},
	{"効率化", []string{"automation", "workflow", "copilot", "prompt", "自動化", "効率"}},
	{"研究", []string{"arxiv", "paper", "research", "論文", "研究"}},
	{"発表", []string{"release", "launch", "announce", "発表", "リリース", "公開"}},
}

// GuessTag labels a post by its dominant theme, or returns "".
func GuessTag(s string) string {
	lower := strings.ToLower(s)
	for _, rule := range tagRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.tag
			}
		}
	}
	return ""
}

// ReadableSummary builds "[tag] | page title | 投稿要約: brief | 出典: domain".
func ReadableSummary(cleaned, pageTitle, domain string) string {
	var parts []string
	if tag := GuessTag(cleaned + " " + pageTitle); tag != "" {
		parts = append(parts, "["+tag+"]")
	}
	if pageTitle != "" {
		parts = append(parts, pageTitle)
	}
	if cleaned != "" {
		parts = append(parts, "投稿要約: "+normalize.Truncate(cleaned, briefRunes))
	}
	if domain != "" {
		parts = append(parts, "出典: "+domain)
	}
	return normalize.Truncate(strings.Join(parts, " | "), summaryRunes)
}

// postTitle is "@user: page title" when one is known, else the cleaned body.
func postTitle(username, cleaned, pageTitle string) string {
	prefix := ""
	if username != "" {
		prefix = "@" + username + ": "
	}
	if pageTitle != "" {
		return prefix + pageTitle
	}
	return prefix + normalize.Truncate(cleaned, titleRunes)
}
