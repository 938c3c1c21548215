package news

import "time"

// NoLink marks an item whose source gave no usable URL.
const NoLink = "#"

// FeedSource is one configured RSS/Atom endpoint.
type FeedSource struct {
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`
	General bool   `yaml:"general"`
}

// Category groups feed sources under a lower-cased display name.
type Category struct {
	Name    string
	Sources []FeedSource
}

// RawEntry is an entry as a source adapter produced it, before any cleanup.
type RawEntry struct {
	Title        string
	Link         string
	Summary      string
	Published    *time.Time
	PublishedRaw string
	Source       string
	General      bool
}

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Provenance says whether a summary went through a translator.
type Provenance string

const (
	ProvenanceTranslated Provenance = "translated"
	ProvenanceOriginal   Provenance = "original"
)

// Item is a normalized, scored news item.
type Item struct {
	Title     string
	Link      string
	Summary   string // plain text, escaped only when rendered
	Published time.Time
	Source    string
	Category  string
	Lang      string
	Score     float64
	Tier      Tier

	SummaryOriginal string
	Provenance      Provenance

	// Social posts only
	Username    string
	ExternalURL string
}

// SocialPost is one row recovered from the social CSV export.
type SocialPost struct {
	Username    string
	Body        string
	Link        string
	ExternalURL string
	Published   time.Time
	Title       string
	Summary     string
}

// Bucket holds the items collected for one category, in processing order.
type Bucket struct {
	Category string
	Items    []Item
}
