package category

import (
	"sort"
	"strings"

	"commentary-ai/internal/types"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// defaultTable maps canonical vision labels onto categories. Config can
// merge extra entries over it; the table itself is static data, not logic.
var defaultTable = map[string]types.Category{
	// nature
	"nature":    types.CategoryNature,
	"forest":    types.CategoryNature,
	"river":     types.CategoryNature,
	"wildlife":  types.CategoryNature,
	"mountain":  types.CategoryNature,
	"ocean":     types.CategoryNature,
	"animal":    types.CategoryNature,
	"bird":      types.CategoryNature,
	"landscape": types.CategoryNature,
	"tree":      types.CategoryNature,

	// news
	"news":          types.CategoryNews,
	"news studio":   types.CategoryNews,
	"newsroom":      types.CategoryNews,
	"anchor":        types.CategoryNews,
	"reporter":      types.CategoryNews,
	"press":         types.CategoryNews,
	"breaking news": types.CategoryNews,
	"politics":      types.CategoryNews,
	"interview":     types.CategoryNews,

	// funny
	"funny":    types.CategoryFunny,
	"comedy":   types.CategoryFunny,
	"meme":     types.CategoryFunny,
	"prank":    types.CategoryFunny,
	"laughing": types.CategoryFunny,
	"cartoon":  types.CategoryFunny,
	"blooper":  types.CategoryFunny,

	// infographic
	"infographic":        types.CategoryInfographic,
	"chart":              types.CategoryInfographic,
	"graph":              types.CategoryInfographic,
	"diagram":            types.CategoryInfographic,
	"statistics":         types.CategoryInfographic,
	"data visualization": types.CategoryInfographic,
	"presentation":       types.CategoryInfographic,
	"slide":              types.CategoryInfographic,
	"whiteboard":         types.CategoryInfographic,
}

// maxEditDistance tolerates small provider spelling variants ("forrest").
// Short labels get no slack so "new" never matches "news" by accident on
// top of a real miss.
func maxEditDistance(key string) int {
	if len(key) <= 4 {
		return 0
	}
	if len(key) <= 8 {
		return 1
	}
	return 2
}

type Table struct {
	entries map[string]types.Category
	keys    []string // sorted, for deterministic fuzzy matching
}

// NewTable builds the lookup table, merging config overrides over the
// built-in entries. Override values must be canonical category names;
// unknown ones are ignored.
func NewTable(overrides map[string]string) *Table {
	entries := make(map[string]types.Category, len(defaultTable)+len(overrides))
	for k, v := range defaultTable {
		entries[k] = v
	}
	for k, v := range overrides {
		label := strings.ToLower(strings.TrimSpace(k))
		if label == "" {
			continue
		}
		switch c := types.Category(strings.ToLower(strings.TrimSpace(v))); c {
		case types.CategoryNature, types.CategoryNews, types.CategoryFunny, types.CategoryInfographic:
			entries[label] = c
		}
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Table{entries: entries, keys: keys}
}

// Lookup resolves a raw provider label to a category. Exact match first,
// then the nearest table key within the edit-distance budget. The keys are
// scanned in sorted order so ties resolve the same way every run.
func (t *Table) Lookup(rawLabel string) (types.Category, bool) {
	label := strings.ToLower(strings.TrimSpace(rawLabel))
	if label == "" {
		return types.CategoryUnclassified, false
	}
	if c, ok := t.entries[label]; ok {
		return c, true
	}

	bestKey := ""
	bestDistance := -1
	for _, key := range t.keys {
		budget := maxEditDistance(key)
		if budget == 0 {
			continue
		}
		d := levenshtein.DistanceForStrings([]rune(label), []rune(key), levenshtein.DefaultOptions)
		if d > budget {
			continue
		}
		if bestDistance == -1 || d < bestDistance {
			bestKey = key
			bestDistance = d
		}
	}
	if bestKey == "" {
		return types.CategoryUnclassified, false
	}
	return t.entries[bestKey], true
}

// Infer picks the category whose mapped labels carry the most aggregated
// confidence. Pure: same labels and table always give the same answer,
// regardless of input order. Falls back to Unclassified when no category's
// weight clears the threshold.
func (t *Table) Infer(labels []types.Label, threshold float64) types.Category {
	weights := map[types.Category]float64{}
	for _, label := range labels {
		c, ok := t.Lookup(label.Name)
		if !ok {
			continue
		}
		weights[c] += label.Confidence
	}

	best := types.CategoryUnclassified
	bestWeight := 0.0
	// Fixed iteration order makes exact-weight ties deterministic.
	for _, c := range types.Categories {
		if weights[c] > bestWeight {
			best = c
			bestWeight = weights[c]
		}
	}

	if bestWeight < threshold {
		return types.CategoryUnclassified
	}
	return best
}
