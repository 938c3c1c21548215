package translate

import (
	"regexp"
	"strings"
)

var (
	// (Note: this is a machine translation ...)
	parenNoteRe = regexp.MustCompile(`(?i)[(（]\s*(?:note|translator'?s? note|disclaimer|注)\s*[:：][^)）]*[)）]`)
	// [Note: machine translation]
	bracketNoteRe = regexp.MustCompile(`(?i)[\[【]\s*(?:note|disclaimer|machine translation|注)[^\]】]*[\]】]`)
	// whole lines like "Note: ..." or "翻訳注: ..."
	lineNoteRe = regexp.MustCompile(`(?im)^\s*(?:note|disclaimer|translator'?s? note|翻訳注|注意書き)\s*[:：].*$`)
	// leading "Translation:" / "翻訳:" labels
	labelRe = regexp.MustCompile(`(?i)^\s*(?:translation|japanese|翻訳|日本語訳)\s*[:：]\s*`)
)

// SanitizeAIText removes disclaimers and labels that LLM engines add around
// a translation and collapses the remaining whitespace.
func SanitizeAIText(s string) string {
	s = parenNoteRe.ReplaceAllString(s, " ")
	s = bracketNoteRe.ReplaceAllString(s, " ")
	s = lineNoteRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = labelRe.ReplaceAllString(s, "")
	s = strings.Trim(s, `" `)
	return strings.TrimSpace(s)
}
