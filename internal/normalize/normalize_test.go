package normalize

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b>&nbsp;and <i>italic</i>", "Bold and italic"},
		{"Fish &amp; Chips", "Fish & Chips"},
		{"<div>  Multiple \n\t spaces  </div>", "Multiple spaces"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PlainText(tt.input); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSummaryEscapes(t *testing.T) {
	got := Summary(`<p>a &lt;script&gt; "quote"</p>`)
	want := "a &lt;script&gt; &#34;quote&#34;"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestTruncateByRune(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"こんにちは世界です", 5, "こん..."},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestHasJapanese(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"OpenAI releases a model", false},
		{"新しいモデル", true},
		{"ｶﾀｶﾅ", true},
		{"漢字", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasJapanese(tt.input); got != tt.want {
			t.Errorf("HasJapanese(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"これは日本語の文章です", "ja"},
		{"The quick brown fox jumps over the lazy dog while the researchers publish a new language model", "en"},
		{"OpenAI releases a faster model for developers building agents", "en"},
		{"Google announced a new version of its open model family today", "en"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.input); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRepairMojibakeLatinMisdecode(t *testing.T) {
	// "投稿" as UTF-8 bytes read back as Windows-1252
	got := RepairMojibake("æŠ•ç¨¿")
	if got != "投稿" {
		t.Errorf("RepairMojibake = %q, want 投稿", got)
	}
}

func TestRepairMojibakeKeepsCleanText(t *testing.T) {
	for _, in := range []string{
		"新しいAIモデルを発表しました",
		"plain ascii text",
		"café résumé",
	} {
		if got := RepairMojibake(in); got != in {
			t.Errorf("RepairMojibake(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestRepairMojibakeFixupTable(t *testing.T) {
	got := RepairMojibake("謚慕ｨｿ: it’s")
	if !strings.HasPrefix(got, "投稿") {
		t.Errorf("fixup not applied: %q", got)
	}
}

func TestRepairMojibakeNeverLosesCJK(t *testing.T) {
	inputs := []string{"æŠ•ç¨¿", "新しい", "mixed 日本 text", "Ã©tÃ©"}
	for _, in := range inputs {
		out := RepairMojibake(in)
		best := mojibakeScore(in)
		for _, c := range repairCandidates(in) {
			if sc := mojibakeScore(c); sc > best {
				best = sc
			}
		}
		if got := mojibakeScore(out); got < best {
			t.Errorf("RepairMojibake(%q) scored %d, best candidate %d", in, got, best)
		}
		if strings.ContainsRune(out, '\uFFFD') && !strings.ContainsRune(in, '\uFFFD') {
			t.Errorf("RepairMojibake(%q) introduced replacement chars: %q", in, out)
		}
	}
}
