package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/unicode/norm"
)

// misdecodings lists the encodings UTF-8 bytes are commonly misread as.
// Re-encoding the text with one of them recovers the original bytes.
var misdecodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
	japanese.ShiftJIS,
	japanese.EUCJP,
}

// Fragments that survive candidate selection, mostly from spreadsheet exports.
var fixups = []struct{ from, to string }{
	{"\ufeff", ""},
	{"謚慕ｨｿ", "投稿"},
	{"繝ｻ", "・"},
	{"â€\u009d", "”"},
	{"â€œ", "“"},
	{"â€™", "’"},
	{"â€˜", "‘"},
	{"â€”", "—"},
	{"â€“", "–"},
	{"â€¦", "…"},
	{"Â\u00a0", " "},
}

// RepairMojibake picks the best-looking decoding of s and cleans known leftovers.
// It is best-effort: it never fails and never returns less readable text than
// its own scoring prefers.
func RepairMojibake(s string) string {
	if s == "" {
		return s
	}

	best := s
	bestScore := mojibakeScore(s)
	for _, c := range repairCandidates(s) {
		if sc := mojibakeScore(c); sc > bestScore {
			best, bestScore = c, sc
		}
	}

	best = norm.NFC.String(best)
	for _, f := range fixups {
		best = strings.ReplaceAll(best, f.from, f.to)
	}
	return best
}

func repairCandidates(s string) []string {
	out := make([]string, 0, len(misdecodings))
	for _, enc := range misdecodings {
		raw, err := enc.NewEncoder().Bytes([]byte(s))
		if err != nil {
			continue
		}
		c := asUTF8(raw)
		if c != s {
			out = append(out, c)
		}
	}
	return out
}

func asUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// mojibakeScore favors CJK text and penalizes replacement and control characters.
func mojibakeScore(s string) int {
	cjk, repl, ctrl := 0, 0, 0
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			repl++
		case isJapanese(r):
			cjk++
		case r == '\n' || r == '\r' || r == '\t':
		case unicode.IsControl(r):
			ctrl++
		}
	}
	return cjk*2 - repl*2 - ctrl
}
