package places

import (
	"strings"
	"unicode"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CategoryMatcher tags free text (place names, display strings) with the
// category labels whose keywords appear in it. Matching is done over
// diacritic-folded, lowercased text so "Bảo Tàng" matches "bao tang".
type CategoryMatcher struct {
	ac     ahocorasick.AhoCorasick
	labels []string // label per pattern index
}

// NewCategoryMatcher builds a matcher over every label in the category
// table.
func NewCategoryMatcher() *CategoryMatcher {
	seen := make(map[string]struct{})
	var patterns, labels []string
	for _, pair := range categoryMapping {
		for _, label := range pair {
			folded := FoldVietnamese(label)
			if _, dup := seen[folded]; dup {
				continue
			}
			seen[folded] = struct{}{}
			patterns = append(patterns, folded)
			labels = append(labels, label)
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		MatchOnlyWholeWords: false,
		MatchKind:           ahocorasick.LeftMostLongestMatch,
	})

	return &CategoryMatcher{
		ac:     builder.Build(patterns),
		labels: labels,
	}
}

// Match returns the category labels found in text, in match order without
// duplicates.
func (m *CategoryMatcher) Match(text string) []string {
	folded := FoldVietnamese(text)
	seen := make(map[int]struct{})
	var out []string
	for _, match := range m.ac.FindAll(folded) {
		idx := match.Pattern()
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, m.labels[idx])
	}
	return out
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldVietnamese lowercases text and strips diacritics, mapping đ/Đ to d
// (NFD decomposition does not cover them).
func FoldVietnamese(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}, folded)
	return strings.ToLower(folded)
}
