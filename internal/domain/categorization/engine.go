// Package categorization tags and labels imported expenses: a keyword engine
// derives tags from statement text and a catalog holds the category reference data.
package categorization

import (
	"slices"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Rule maps a keyword found anywhere in a text to a tag.
type Rule struct {
	Keyword string
	Tag     string
	// FoldCase matches the keyword regardless of letter case.
	FoldCase bool
}

// Engine matches every rule keyword in a single pass using the Aho-Corasick algorithm.
// Matching is case-sensitive unless a rule sets FoldCase. An Engine is immutable
// once built and safe for concurrent use.
type Engine struct {
	exact  *ahocorasick.Matcher
	folded *ahocorasick.Matcher
	// Tags for each pattern, in matcher order.
	exactTags  [][]string
	foldedTags [][]string
	// Declaration order of tags, used to order results.
	order map[string]int
}

// NewEngine creates an engine from rules. Rules sharing a keyword contribute all
// their tags; rules with an empty keyword or tag are ignored.
func NewEngine(rules []Rule) *Engine {
	order := make(map[string]int)
	exactIdx := make(map[string]int)
	foldedIdx := make(map[string]int)
	var exactPatterns, foldedPatterns []string
	var exactTags, foldedTags [][]string

	for _, r := range rules {
		if r.Keyword == "" || r.Tag == "" {
			continue
		}
		if _, ok := order[r.Tag]; !ok {
			order[r.Tag] = len(order)
		}

		if r.FoldCase {
			kw := strings.ToUpper(r.Keyword)
			if idx, ok := foldedIdx[kw]; ok {
				foldedTags[idx] = append(foldedTags[idx], r.Tag)
				continue
			}
			foldedIdx[kw] = len(foldedPatterns)
			foldedPatterns = append(foldedPatterns, kw)
			foldedTags = append(foldedTags, []string{r.Tag})
			continue
		}

		if idx, ok := exactIdx[r.Keyword]; ok {
			exactTags[idx] = append(exactTags[idx], r.Tag)
			continue
		}
		exactIdx[r.Keyword] = len(exactPatterns)
		exactPatterns = append(exactPatterns, r.Keyword)
		exactTags = append(exactTags, []string{r.Tag})
	}

	return &Engine{
		exact:      newMatcher(exactPatterns),
		folded:     newMatcher(foldedPatterns),
		exactTags:  exactTags,
		foldedTags: foldedTags,
		order:      order,
	}
}

func newMatcher(patterns []string) *ahocorasick.Matcher {
	if len(patterns) == 0 {
		return nil
	}
	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	return ahocorasick.NewMatcher(bytePatterns)
}

// Tags returns the distinct tags whose keywords occur in text, in rule declaration
// order. It returns nil when nothing matches.
func (e *Engine) Tags(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	collect := func(m *ahocorasick.Matcher, tags [][]string, input string) {
		if m == nil {
			return
		}
		for _, idx := range m.MatchThreadSafe([]byte(input)) {
			if idx < 0 || idx >= len(tags) {
				continue
			}
			for _, tag := range tags[idx] {
				seen[tag] = true
			}
		}
	}
	collect(e.exact, e.exactTags, text)
	collect(e.folded, e.foldedTags, strings.ToUpper(text))

	if len(seen) == 0 {
		return nil
	}
	result := make([]string, 0, len(seen))
	for tag := range seen {
		result = append(result, tag)
	}
	slices.SortFunc(result, func(a, b string) int { return e.order[a] - e.order[b] })
	return result
}

// Has reports whether text triggers tag.
func (e *Engine) Has(text, tag string) bool {
	return slices.Contains(e.Tags(text), tag)
}
