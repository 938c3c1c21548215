package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awano27/daily-ai-news/internal/news"
	"github.com/awano27/daily-ai-news/internal/normalize"
)

// Output is the artifact consumed by the page renderer.
type Output struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	LookbackHours int              `json:"lookback_hours"`
	Categories    []CategoryOutput `json:"categories"`
	Errors        map[string]int   `json:"errors,omitempty"`
	Stats         map[string]any   `json:"stats"`
}

type CategoryOutput struct {
	Name  string       `json:"name"`
	Items []ItemOutput `json:"items"`
}

type ItemOutput struct {
	Title           string  `json:"title"`
	Link            string  `json:"link"`
	Summary         string  `json:"summary"`
	SummaryOriginal string  `json:"summary_original"`
	Provenance      string  `json:"provenance"`
	Source          string  `json:"source"`
	Score           float64 `json:"score"`
	Tier            string  `json:"tier"`
	Published       string  `json:"published"`
	Ago             string  `json:"ago"`
	Lang            string  `json:"lang,omitempty"`
	Category        string  `json:"category"`
	Username        string  `json:"username,omitempty"`
	ExternalURL     string  `json:"external_url,omitempty"`
}

func buildOutput(now time.Time, lookbackHours int, buckets []news.Bucket) *Output {
	out := &Output{
		GeneratedAt:   now,
		LookbackHours: lookbackHours,
		Categories:    make([]CategoryOutput, 0, len(buckets)),
	}
	for _, b := range buckets {
		cat := CategoryOutput{Name: b.Category, Items: make([]ItemOutput, 0, len(b.Items))}
		for _, it := range b.Items {
			cat.Items = append(cat.Items, itemOutput(now, it))
		}
		out.Categories = append(out.Categories, cat)
	}
	return out
}

// itemOutput escapes summaries for direct embedding in markup.
func itemOutput(now time.Time, it news.Item) ItemOutput {
	original := it.SummaryOriginal
	if original == "" {
		original = it.Summary
	}
	provenance := it.Provenance
	if provenance == "" {
		provenance = news.ProvenanceOriginal
	}
	return ItemOutput{
		Title:           it.Title,
		Link:            it.Link,
		Summary:         normalize.Escape(it.Summary),
		SummaryOriginal: normalize.Escape(original),
		Provenance:      string(provenance),
		Source:          it.Source,
		Score:           it.Score,
		Tier:            string(it.Tier),
		Published:       it.Published.Format(time.RFC3339),
		Ago:             ago(now, it.Published),
		Lang:            it.Lang,
		Category:        it.Category,
		Username:        it.Username,
		ExternalURL:     it.ExternalURL,
	}
}

// ago renders the age of t in Japanese ("3時間前").
func ago(now, t time.Time) string {
	secs := int(now.Sub(t).Seconds())
	if secs < 0 {
		secs = 0
	}
	switch {
	case secs < 60:
		return fmt.Sprintf("%d秒前", secs)
	case secs < 3600:
		return fmt.Sprintf("%d分前", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%d時間前", secs/3600)
	}
	return fmt.Sprintf("%d日前", secs/86400)
}

// writeOutput writes the artifact to a temporary file next to path and renames
// it into place, so a killed run never leaves a half-written file.
func writeOutput(path string, out *Output) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
