package align

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
)

func TestClassify_Totality(t *testing.T) {
	for ds := 0; ds <= 6; ds++ {
		for dt := 0; dt <= 6; dt++ {
			for _, literal := range []bool{false, true} {
				c := Classify(ds, dt, literal)

				switch {
				case literal:
					assert.Equal(t, ScalarFanOut, c.Kind)
				case ds == 0 && dt == 0:
					assert.Equal(t, NoCollection, c.Kind)
				default:
					require.Equal(t, CollectionAligned, c.Kind)

					switch {
					case dt > ds:
						assert.Equal(t, TargetDeeper, c.Relation, "ds=%d dt=%d", ds, dt)
					case ds > dt:
						assert.Equal(t, SourceDeeper, c.Relation, "ds=%d dt=%d", ds, dt)
					default:
						assert.Equal(t, Equal, c.Relation, "ds=%d dt=%d", ds, dt)
					}

					// swapping the sides swaps the relation
					swapped := Classify(dt, ds, false)
					assert.Equal(t, mirror(c.Relation), swapped.Relation)
				}
			}
		}
	}
}

func mirror(r Relation) Relation {
	switch r {
	case SourceDeeper:
		return TargetDeeper
	case TargetDeeper:
		return SourceDeeper
	default:
		return r
	}
}

func TestAlign(t *testing.T) {
	tests := []struct {
		name    string
		src     string // empty for a literal list
		dst     string
		execute bool
		class   string
		target  string
		dist    int
	}{
		{"flat", "fullName", "name", false, "no-collection", "", -1},
		{"equal depth", "orders[].lines[].sku", "groups[].skus[]", false, "collection-aligned/equal", "correlate(0) correlate(1)", -1},
		{"target deeper", "lines[].sku", "groups[].skus[]", false, "collection-aligned/target-deeper", "single correlate(0)", -1},
		{"flatten", "orders[].lines[].sku", "skus[]", false, "collection-aligned/source-deeper", "append", -1},
		{"scalar into collection", "fullName", "groups[].names[]", false, "collection-aligned/target-deeper", "single single", -1},
		{"collection into scalar", "lines[].sku", "last", false, "collection-aligned/source-deeper", "", -1},
		{"map anchor", "items[<K>].code", "catalog[<K>].sku", false, "collection-aligned/equal anchor(source=0, target=0)", "correlate(0)", -1},
		{"pre anchor", "lines[<].sku", "skus[<]", false, "collection-aligned/equal anchor(source=0, target=0)", "offset(0)", -1},
		{"post anchor", "lines[>].sku", "skus[>]", false, "collection-aligned/equal anchor(source=0, target=0)", "correlate(0)", -1},
		{"anchor inner append", "orders[>].lines[].sku", "groups[>].skus[]", false, "collection-aligned/equal anchor(source=0, target=0)", "correlate(0) append", -1},
		{"source anchor only", "orders[].lines[>].sku", "groups[].bins[].skus[]", false, "collection-aligned/target-deeper anchor(source=1, target=2)", "single single correlate(1)", -1},
		{"target anchor only clamps", "lines[].sku", "groups[>].bins[].skus[]", false, "collection-aligned/target-deeper anchor(source=0, target=0)", "correlate(0) append append", -1},
		{"outer anchor", "orders[>].lines[].sku", "groups[>].skus[]", false, "collection-aligned/equal anchor(source=0, target=0)", "correlate(0) append", -1},
		{"deep anchor flatten", "a[].b[<].c[].x", "y[<].z[]", false, "collection-aligned/source-deeper anchor(source=1, target=0)", "offset(1) append", -1},
		{"fan-out none", "", "tags[]", false, "scalar-fan-out", "running-offset", 0},
		{"fan-out pre", "", "groups[<].tags[]", false, "scalar-fan-out", "running-offset append", 0},
		{"fan-out post", "", "groups[].tags[>]", false, "scalar-fan-out", "single ordinal", 1},
		{"fan-out scalar", "", "name", false, "scalar-fan-out", "", -1},
		{"execute collect", "lines[].sku", "summary", true, "collection-aligned/source-deeper", "", -1},
		{"execute distribute", "fullName", "parts[]", true, "collection-aligned/target-deeper", "running-offset", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var src *chain.PathChain
			if tt.src != "" {
				src = chain.MustParse(tt.src)
			}

			a, err := Align(src, chain.MustParse(tt.dst), tt.execute)
			require.NoError(t, err)

			assert.Equal(t, tt.class, a.Classification.String())
			assert.Equal(t, tt.target, policies(a.Target))
			assert.Equal(t, tt.dist, a.Distribute)
			assert.Equal(t, tt.execute && tt.src != "" && a.TargetDepth == 0 && a.SourceDepth > 0, a.Collect)
		})
	}
}

func policies(ps []Policy) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += " "
		}

		s += p.String()
	}

	return s
}

func TestAlign_GenerationErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		dst     string
		execute bool
	}{
		{"ambiguous depths", "a[].b[].c[].x", "y[].z[]", false},
		{"execute on both sides", "lines[].sku", "skus[]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(chain.MustParse(tt.src), chain.MustParse(tt.dst), tt.execute)
			require.Error(t, err)

			var ge *diagnostic.GenerationError
			assert.True(t, errors.As(err, &ge))
		})
	}
}

func TestCorrelated(t *testing.T) {
	a, err := Align(chain.MustParse("lines[].sku"), chain.MustParse("groups[].skus[]"), false)
	require.NoError(t, err)

	_, ok := a.Correlated(0)
	assert.False(t, ok)

	level, ok := a.Correlated(1)
	assert.True(t, ok)
	assert.Equal(t, 0, level)

	_, ok = a.Correlated(5)
	assert.False(t, ok)
}
