package strategy

import (
	"fmt"
	"sort"
	"strings"

	"cardsage/internal/vector"
)

// metadataPlaceholder renders for any missing payload field so the
// context blocks stay structurally uniform.
const metadataPlaceholder = "N/A"

// dedupAndRank drops duplicate chunk ids (first occurrence wins) and
// orders the rest by similarity score descending.
func dedupAndRank(matches []vector.Match) []vector.Match {
	seen := make(map[string]struct{}, len(matches))
	out := make([]vector.Match, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// formatContext renders deduplicated matches into the context block
// appended to the persona prompt. Results of the links category get a
// format that foregrounds their URL, and a trailing block lists every
// distinct URL seen.
func formatContext(matches []vector.Match) string {
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	var urls []string
	seenURL := make(map[string]struct{})

	for _, m := range matches {
		category := payloadField(m, "category")
		source := payloadField(m, "source")
		content := payloadField(m, "content")
		url := payloadField(m, "url")

		if category == CategoryLinks {
			fmt.Fprintf(&b, "--- %s ---\nURL: %s\nSource: %s\n%s\n\n", category, url, source, content)
		} else {
			fmt.Fprintf(&b, "--- %s (source: %s) ---\n%s\n\n", category, source, content)
		}

		if url != metadataPlaceholder {
			if _, dup := seenURL[url]; !dup {
				seenURL[url] = struct{}{}
				urls = append(urls, url)
			}
		}
	}

	if len(urls) > 0 {
		b.WriteString("Reference links:\n")
		for _, u := range urls {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func payloadField(m vector.Match, key string) string {
	v, ok := m.Payload[key]
	if !ok || v == nil {
		return metadataPlaceholder
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return metadataPlaceholder
	}
	return s
}
