package news

import "strings"

// Deduplicate removes items already seen, by link or by normalized title, in an
// earlier position. Buckets are visited in order, so earlier categories win.
// The input is not modified. The second result is the number of dropped items.
func Deduplicate(buckets []Bucket) ([]Bucket, int) {
	seenLinks := map[string]struct{}{}
	seenTitles := map[string]struct{}{}
	dropped := 0

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		kept := make([]Item, 0, len(b.Items))
		for _, item := range b.Items {
			link := linkKey(item.Link)
			title := titleKey(item.Title)

			if link != "" {
				if _, dup := seenLinks[link]; dup {
					dropped++
					continue
				}
			}
			if title != "" {
				if _, dup := seenTitles[title]; dup {
					dropped++
					continue
				}
			}

			if link != "" {
				seenLinks[link] = struct{}{}
			}
			if title != "" {
				seenTitles[title] = struct{}{}
			}
			kept = append(kept, item)
		}
		out = append(out, Bucket{Category: b.Category, Items: kept})
	}
	return out, dropped
}

// linkKey is empty for links that cannot identify an item.
func linkKey(link string) string {
	link = strings.TrimSpace(link)
	if link == NoLink {
		return ""
	}
	return link
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
