// Package references merges raw retrieval hits into deduplicated, per-source
// page citations and builds the numbered answer text the retrieval worker
// returns.
package references

import (
	"fmt"
	"sort"
	"strings"
)

// Hit is a single raw retrieval result, pre-aggregation.
type Hit struct {
	Source string   `json:"source"`
	Text   string   `json:"text"`
	Pages  []string `json:"pages"`
}

// Reference is a deduplicated citation keyed by source identifier. Pages are
// the union of that source's page labels across all hits, deduplicated and
// sorted lexicographically (page labels are free text, not numbers).
type Reference struct {
	Source string   `json:"source"`
	Pages  []string `json:"pages"`
}

// Aggregate builds one Reference per distinct source identifier, in first-seen
// order of source identifiers. Aggregating twice over the same hits yields
// identical output.
func Aggregate(hits []Hit) []Reference {
	order := make([]string, 0, len(hits))
	pages := make(map[string]map[string]struct{}, len(hits))

	for _, h := range hits {
		set, seen := pages[h.Source]
		if !seen {
			set = make(map[string]struct{})
			pages[h.Source] = set
			order = append(order, h.Source)
		}
		for _, p := range h.Pages {
			set[p] = struct{}{}
		}
	}

	refs := make([]Reference, 0, len(order))
	for _, src := range order {
		refs = append(refs, Reference{Source: src, Pages: sortedPages(pages[src])})
	}
	return refs
}

// BuildAnswer concatenates per-hit numbered passages. Each distinct source is
// assigned an increasing integer label in first-seen order; every passage line
// carries its source's label and the source's aggregated page set:
//
//	1- Page 3, 7: <hit text>
//
// Passages are separated by a blank line; trailing whitespace is trimmed.
func BuildAnswer(hits []Hit) string {
	refs := Aggregate(hits)
	label := make(map[string]int, len(refs))
	pagesBySource := make(map[string][]string, len(refs))
	for i, r := range refs {
		label[r.Source] = i + 1
		pagesBySource[r.Source] = r.Pages
	}

	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "%d- Page %s: %s\n\n",
			label[h.Source],
			strings.Join(pagesBySource[h.Source], ", "),
			h.Text,
		)
	}
	return strings.TrimRight(b.String(), " \t\n")
}

func sortedPages(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
