package search

import (
	"strings"
)

// Filters holds what ParseQuery pulled out of a note search box.
type Filters struct {
	Tags     []string
	Favorite bool
	Text     string // remaining words, matched against the title
}

// ParseQuery extracts inline filters from the raw query string
// Supported:
// #<tag> -> note must carry the tag (repeatable, all must match)
// is:favorite / is:fav -> favorites only
// <text> -> everything else
func ParseQuery(raw string) Filters {
	filters := Filters{}
	var cleanParts []string
	seen := make(map[string]bool)

	for _, part := range strings.Fields(raw) {
		lowerPart := strings.ToLower(part)

		switch {
		case strings.HasPrefix(lowerPart, "#") && len(lowerPart) > 1:
			tag := strings.TrimPrefix(lowerPart, "#")
			if !seen[tag] {
				seen[tag] = true
				filters.Tags = append(filters.Tags, tag)
			}
		case lowerPart == "is:favorite" || lowerPart == "is:fav":
			filters.Favorite = true
		default:
			cleanParts = append(cleanParts, part)
		}
	}

	filters.Text = strings.Join(cleanParts, " ")
	return filters
}
