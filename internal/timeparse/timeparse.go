// Package timeparse resolves heterogeneous timestamps into one zone and
// decides whether they fall inside the lookback window.
package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// Layouts tried in order by ParseFree. The first match wins.
var layouts = []string{
	"January 2, 2006 at 3:04PM",
	"Jan 2, 2006 at 3:04PM",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006年1月2日 15:04",
	"2006年1月2日",
	time.RFC1123Z,
	time.RFC1123,
}

// yearless layouts borrow the year of the resolver's clock.
var yearless = []string{
	"1月2日 15:04",
	"01月02日 15:04",
}

var jst = time.FixedZone("JST", 9*60*60)

// Resolver carries the run's captured clock. It never reads time.Now itself.
type Resolver struct {
	Now      time.Time
	Lookback time.Duration
	Location *time.Location // output zone
	Naive    *time.Location // zone assumed for strings without an offset
}

// NewResolver builds a resolver for one run. A nil loc means JST.
func NewResolver(now time.Time, lookback time.Duration, loc *time.Location) *Resolver {
	if loc == nil {
		loc = jst
	}
	return &Resolver{
		Now:      now.In(loc),
		Lookback: lookback,
		Location: loc,
		Naive:    time.UTC,
	}
}

// LoadLocation returns the named zone, or fixed JST when tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return jst
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return jst
	}
	return loc
}

// Resolve normalizes a parsed timestamp. A missing timestamp resolves to now
// and counts as in-window.
func (r *Resolver) Resolve(t *time.Time) (bool, time.Time) {
	if t == nil || t.IsZero() {
		return true, r.Now
	}
	resolved := t.In(r.Location)
	return r.InWindow(resolved), resolved
}

// ResolveString parses a free-text timestamp. Unparseable text resolves to
// now and counts as in-window; the returned error reports the ambiguity.
func (r *Resolver) ResolveString(s string) (bool, time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return true, r.Now, nil
	}
	t, err := r.ParseFree(s)
	if err != nil {
		return true, r.Now, err
	}
	in, resolved := r.Resolve(&t)
	return in, resolved, nil
}

// InWindow reports now-lookback <= t <= now. Future timestamps are out.
func (r *Resolver) InWindow(t time.Time) bool {
	if t.After(r.Now) {
		return false
	}
	return r.Now.Sub(t) <= r.Lookback
}

// ParseFree tries each known layout in order.
func (r *Resolver) ParseFree(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	naive := r.Naive
	if naive == nil {
		naive = time.UTC
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, naive); err == nil {
			return t.In(r.Location), nil
		}
	}
	// Lower-case meridiem as some exports write it.
	if n := len(s); n > 2 && (strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm")) {
		up := s[:n-2] + strings.ToUpper(s[n-2:])
		for _, layout := range layouts[:2] {
			if t, err := time.ParseInLocation(layout, up, naive); err == nil {
				return t.In(r.Location), nil
			}
		}
	}
	for _, layout := range yearless {
		if t, err := time.ParseInLocation(layout, s, naive); err == nil {
			t = time.Date(r.Now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, naive)
			return t.In(r.Location), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
