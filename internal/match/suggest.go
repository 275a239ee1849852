package match

import (
	"sort"
	"strings"
	"unicode"
)

// Distance is the Levenshtein edit distance between a and b.
func Distance(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	row := make([]int, len(ra)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		diag := row[0]
		row[0] = j

		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			next := min(row[i]+1, row[i-1]+1, diag+cost)
			diag = row[i]
			row[i] = next
		}
	}

	return row[len(ra)]
}

// Normalize folds case and drops '_', '-' and spaces so "order_id" and
// "OrderID" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// Suggest returns up to limit candidates close to name, best first. A
// candidate qualifies when its normalized distance is at most a third of
// the longer normalized name, rounded up.
func Suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name     string
		distance int
	}

	norm := Normalize(name)

	var ranked []scored
	for _, c := range candidates {
		cn := Normalize(c)

		d := Distance(norm, cn)
		if d > (max(len(norm), len(cn))+2)/3 {
			continue
		}

		ranked = append(ranked, scored{c, d})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}

		return ranked[i].name < ranked[j].name
	})

	var out []string
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].name)
	}

	return out
}
