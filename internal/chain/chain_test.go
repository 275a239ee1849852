package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-mapper/internal/diagnostic"
)

func TestParse_Notations(t *testing.T) {
	c, err := Parse("orders[3].items[<K>].code")
	require.NoError(t, err)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, Token{Raw: "orders[3]", Name: "orders", Role: RoleMember, Index: 3}, c.Token(0))
	assert.Equal(t, Token{Raw: "items[<K>]", Name: "items", Role: RoleKey, Index: -1, Anchor: AnchorMap}, c.Token(1))
	assert.Equal(t, Token{Raw: "code", Name: "code", Index: -1}, c.Token(2))

	assert.Equal(t, 1, c.Collections())
	assert.Equal(t, 1, c.Maps())
	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, []int{0, 1}, c.Levels())
	assert.Equal(t, 1, c.AnchorToken())
	assert.Equal(t, 1, c.AnchorLevel())
	assert.Equal(t, AnchorMap, c.AnchorKind())
	assert.Equal(t, "orders[].items[K].code", c.Sanitized())
	assert.Equal(t, "orders", c.LevelPrefix(0))
	assert.Equal(t, "orders[].items", c.LevelPrefix(1))
}

func TestParse_Anchors(t *testing.T) {
	tests := []struct {
		raw    string
		anchor Anchor
		role   Role
	}{
		{"tags[<]", AnchorPre, RoleMember},
		{"tags[>]", AnchorPost, RoleMember},
		{"tags[<K]", AnchorPre, RoleKey},
		{"tags[V>]", AnchorPost, RoleValue},
		{"tags[<V>]", AnchorMap, RoleValue},
		{"tags[2V]", AnchorNone, RoleValue},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.anchor, c.Token(0).Anchor)
			assert.Equal(t, tt.role, c.Token(0).Role)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		raw   string
		token int
		msg   string
	}{
		{"", -1, "empty chain"},
		{"a..b", 1, "empty token"},
		{"items[.code", 0, "unterminated '['"},
		{"items[x]", 0, `non-integer index "x"`},
		{"items[-1]", 0, `non-integer index "-1"`},
		{"items[<>]", 0, "map anchor <...> requires a K or V role"},
		{"items[<3]", 0, "an anchor cannot pin a literal index"},
		{"items<.code", 0, "anchor notation outside brackets"},
		{"items[]>", 0, "anchor notation outside brackets"},
		{"items[]x", 0, `unexpected "x" after ']'`},
		{"a[<].b[>]", 1, "more than one anchor in chain"},
		{"1abc", 0, `invalid field name "1abc"`},
		{"a]", 0, "unbalanced ']'"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)

			var se *diagnostic.SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.token, se.Token)
			assert.Equal(t, tt.msg, se.Msg)
			assert.Equal(t, tt.raw, se.Chain)
		})
	}
}

func TestParse_AnchorCardinality(t *testing.T) {
	marks := []string{"[]", "[<]", "[>]", "[K]", "[<K>]", "[V>]", "[1]"}
	anchored := map[string]bool{"[<]": true, "[>]": true, "[<K>]": true, "[V>]": true}

	for _, a := range marks {
		for _, b := range marks {
			for _, c := range marks {
				raw := fmt.Sprintf("x%s.y%s.z%s", a, b, c)

				n := 0
				for _, m := range []string{a, b, c} {
					if anchored[m] {
						n++
					}
				}

				_, err := Parse(raw)
				if n > 1 {
					assert.Error(t, err, raw)
				} else {
					assert.NoError(t, err, raw)
				}
			}
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"name",
		"tags[2]",
		"orders[0].items[<K>].code",
		"catalog[3V].labels[K]",
		"a[<].b[].c[V>]",
	}

	for _, raw := range inputs {
		once, err := Sanitize(raw)
		require.NoError(t, err)

		twice, err := Sanitize(once)
		require.NoError(t, err)

		assert.Equal(t, once, twice, raw)
	}

	once, err := Sanitize("orders[7].items[<2K]")
	assert.Error(t, err)
	assert.Empty(t, once)

	once, err = Sanitize("orders[7].items[2K]")
	require.NoError(t, err)
	assert.Equal(t, "orders[].items[K]", once)
}
