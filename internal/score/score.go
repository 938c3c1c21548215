// Package score computes the importance score of news items and social posts.
//
// Signals accumulate raw points on the legacy 0-100 scale. ToDisplay converts
// them once to the 0-10 scale used everywhere else.
package score

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Term is one weighted keyword.
type Term struct {
	Text   string
	Weight float64
}

// WeightSource supplies the weighted terms of one signal.
type WeightSource interface {
	Terms() []Term
}

// Table is a fixed, ordered WeightSource.
type Table []Term

func (t Table) Terms() []Term { return t }

type FreshnessTier struct {
	Within time.Duration
	Points float64
}

type LengthTier struct {
	MinWords int
	Points   float64
}

// DayBonus awards Max points to items published on the reference day and
// PerDay fewer for every calendar day away from it.
type DayBonus struct {
	Reference time.Time
	PerDay    float64
	Max       float64
}

// Profile parameterizes the scorer. Nil sources contribute nothing.
type Profile struct {
	Name string

	Orgs       WeightSource
	Keywords   WeightSource
	Sources    WeightSource
	Technical  WeightSource
	People     WeightSource
	Engagement WeightSource

	KeywordFactor    float64
	SourceFactor     float64
	TechnicalFactor  float64
	PeopleFactor     float64
	EngagementFactor float64

	Freshness []FreshnessTier // ordered, tightest window first
	Length    []LengthTier    // ordered, longest first
	Days      *DayBonus
}

// Input is what the scorer looks at.
type Input struct {
	Title     string
	Summary   string
	Source    string
	Link      string
	Published time.Time
}

// Breakdown shows how each signal contributed, in raw points.
type Breakdown struct {
	Org        float64
	Keywords   float64
	Source     float64
	Technical  float64
	Freshness  float64
	Length     float64
	People     float64
	Engagement float64
	Days       float64
	Raw        float64
	Final      float64
}

type compiledTerm struct {
	text   string
	weight float64
	re     *regexp.Regexp
}

type compiledTable []compiledTerm

// Scorer is a pure function of its profile, its captured clock and the input.
type Scorer struct {
	profile Profile
	now     time.Time

	orgs, keywords, sources, technical, people, engagement compiledTable
}

func New(p Profile, now time.Time) *Scorer {
	return &Scorer{
		profile:    p,
		now:        now,
		orgs:       compile(p.Orgs),
		keywords:   compile(p.Keywords),
		sources:    compile(p.Sources),
		technical:  compile(p.Technical),
		people:     compile(p.People),
		engagement: compile(p.Engagement),
	}
}

// Score returns the display score in [0, 10].
func (s *Scorer) Score(in Input) float64 {
	return s.Breakdown(in).Final
}

func (s *Scorer) Breakdown(in Input) Breakdown {
	text := strings.ToLower(in.Title + " " + in.Summary)
	p := s.profile

	b := Breakdown{
		Org:        s.orgs.best(text),
		Keywords:   s.keywords.sum(text) * p.KeywordFactor,
		Source:     s.sources.first(sourceText(in)) * p.SourceFactor,
		Technical:  s.technical.sum(text) * p.TechnicalFactor,
		Freshness:  s.freshness(in.Published),
		Length:     lengthPoints(in.Title, p.Length),
		People:     s.people.best(text) * p.PeopleFactor,
		Engagement: s.engagement.sum(text) * p.EngagementFactor,
		Days:       dayPoints(in.Published, p.Days),
	}
	b.Raw = b.Org + b.Keywords + b.Source + b.Technical + b.Freshness +
		b.Length + b.People + b.Engagement + b.Days
	b.Final = ToDisplay(b.Raw)
	return b
}

// Relevant reports whether the text mentions any organization, impact keyword
// or technical term. General-interest feeds only contribute relevant items.
func (s *Scorer) Relevant(in Input) bool {
	text := strings.ToLower(in.Title + " " + in.Summary)
	return s.orgs.any(text) || s.keywords.any(text) || s.technical.any(text)
}

// ToDisplay converts raw legacy points to the 0-10 scale, one decimal.
func ToDisplay(raw float64) float64 {
	v := math.Round(raw) / 10
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	}
	return v
}

func (s *Scorer) freshness(published time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := s.now.Sub(published)
	if age < 0 {
		age = 0
	}
	for _, tier := range s.profile.Freshness {
		if age < tier.Within {
			return tier.Points
		}
	}
	return 0
}

func lengthPoints(title string, tiers []LengthTier) float64 {
	words := len(strings.Fields(title))
	for _, tier := range tiers {
		if words >= tier.MinWords {
			return tier.Points
		}
	}
	return 0
}

func dayPoints(published time.Time, d *DayBonus) float64 {
	if d == nil || published.IsZero() || d.Reference.IsZero() {
		return 0
	}
	loc := d.Reference.Location()
	ref := civilDay(d.Reference, loc)
	day := civilDay(published.In(loc), loc)
	days := math.Abs(ref.Sub(day).Hours() / 24)
	return math.Max(0, d.Max-d.PerDay*math.Round(days))
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sourceText(in Input) string {
	text := strings.ToLower(in.Source)
	if u, err := url.Parse(in.Link); err == nil && u.Host != "" {
		text += " " + strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	}
	return text
}

func compile(src WeightSource) compiledTable {
	if src == nil {
		return nil
	}
	terms := src.Terms()
	out := make(compiledTable, 0, len(terms))
	for _, t := range terms {
		k := strings.ToLower(strings.TrimSpace(t.Text))
		if k == "" {
			continue
		}
		ct := compiledTerm{text: k, weight: t.Weight}
		// ASCII terms match whole words plus common inflections, so "meta" does
		// not hit "metadata" and "launch" covers "launches" and "launched".
		if isASCII(k) && isWordByte(k[0]) && isWordByte(k[len(k)-1]) {
			ct.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `(?:s|es|d|ed|ing)?\b`)
		}
		out = append(out, ct)
	}
	return out
}

func (t compiledTerm) match(text string) bool {
	if t.re != nil {
		return t.re.MatchString(text)
	}
	return strings.Contains(text, t.text)
}

func (c compiledTable) any(text string) bool {
	for _, t := range c {
		if t.match(text) {
			return true
		}
	}
	return false
}

func (c compiledTable) sum(text string) float64 {
	total := 0.0
	for _, t := range c {
		if t.match(text) {
			total += t.weight
		}
	}
	return total
}

// first returns the weight of the first matching term in table order.
func (c compiledTable) first(text string) float64 {
	for _, t := range c {
		if t.match(text) {
			return t.weight
		}
	}
	return 0
}

// best returns the highest matching weight; on equal weights the longer name wins.
func (c compiledTable) best(text string) float64 {
	var found *compiledTerm
	for i := range c {
		t := &c[i]
		if !t.match(text) {
			continue
		}
		if found == nil || t.weight > found.weight ||
			(t.weight == found.weight && len(t.text) > len(found.text)) {
			found = t
		}
	}
	if found == nil {
		return 0
	}
	return found.weight
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
