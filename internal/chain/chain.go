package chain

import (
	"strings"

	"chain-mapper/internal/diagnostic"
)

// PathChain is a parsed chain. It is immutable once built.
type PathChain struct {
	raw         string
	tokens      []Token
	levels      []int // token index of each bracketed token
	collections int
	maps        int
	anchor      int // token index of the anchor, -1 when absent
}

// Parse tokenizes and validates a chain. Failures are
// *diagnostic.SyntaxError values without a rule id.
func Parse(raw string) (*PathChain, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &diagnostic.SyntaxError{Chain: raw, Token: -1, Msg: "empty chain"}
	}

	parts := strings.Split(raw, ".")
	c := &PathChain{
		raw:    raw,
		tokens: make([]Token, 0, len(parts)),
		anchor: -1,
	}

	for i, part := range parts {
		tok, msg := parseToken(part)
		if msg != "" {
			return nil, &diagnostic.SyntaxError{Chain: raw, Token: i, Msg: msg}
		}

		if tok.Anchor != AnchorNone {
			if c.anchor >= 0 {
				return nil, &diagnostic.SyntaxError{Chain: raw, Token: i, Msg: "more than one anchor in chain"}
			}

			c.anchor = i
		}

		switch {
		case tok.Role == RoleMember:
			c.collections++
			c.levels = append(c.levels, i)
		case tok.IsMap():
			c.maps++
			c.levels = append(c.levels, i)
		}

		c.tokens = append(c.tokens, tok)
	}

	return c, nil
}

// MustParse is Parse for chains known to be valid.
func MustParse(raw string) *PathChain {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return c
}

// Sanitize rewrites a chain into its canonical form, in which ordinals and
// anchors are dropped. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) (string, error) {
	c, err := Parse(raw)
	if err != nil {
		return "", err
	}

	return c.Sanitized(), nil
}

func (c *PathChain) Raw() string    { return c.raw }
func (c *PathChain) String() string { return c.raw }
func (c *PathChain) Len() int       { return len(c.tokens) }

// Token returns the i-th token.
func (c *PathChain) Token(i int) Token { return c.tokens[i] }

// Tokens returns a copy of the tokens.
func (c *PathChain) Tokens() []Token {
	return append([]Token(nil), c.tokens...)
}

// Sanitized joins the sanitized tokens.
func (c *PathChain) Sanitized() string {
	return c.SanitizedPrefix(len(c.tokens))
}

// SanitizedPrefix joins the sanitized form of the first n tokens.
func (c *PathChain) SanitizedPrefix(n int) string {
	parts := make([]string, 0, n)
	for _, t := range c.tokens[:n] {
		parts = append(parts, t.Sanitized())
	}

	return strings.Join(parts, ".")
}

// LevelPrefix is the sanitized chain up to the field of nesting level l,
// without that field's brackets: "orders[].items" for level 1 of
// "orders[].items[].sku".
func (c *PathChain) LevelPrefix(level int) string {
	ti := c.levels[level]
	if ti == 0 {
		return c.tokens[0].Name
	}

	return c.SanitizedPrefix(ti) + "." + c.tokens[ti].Name
}

// Collections counts the collection member levels.
func (c *PathChain) Collections() int { return c.collections }

// Maps counts the map key/value levels.
func (c *PathChain) Maps() int { return c.maps }

// Depth is the number of nesting levels.
func (c *PathChain) Depth() int { return len(c.levels) }

// Levels returns the token index of every nesting level, outermost first.
func (c *PathChain) Levels() []int {
	return append([]int(nil), c.levels...)
}

// LevelToken is the token of nesting level l.
func (c *PathChain) LevelToken(level int) Token {
	return c.tokens[c.levels[level]]
}

// LevelOf maps a token index to its nesting level, or -1.
func (c *PathChain) LevelOf(token int) int {
	for l, ti := range c.levels {
		if ti == token {
			return l
		}
	}

	return -1
}

// AnchorToken is the token index of the anchor, or -1.
func (c *PathChain) AnchorToken() int { return c.anchor }

// AnchorLevel is the nesting level of the anchor, or -1.
func (c *PathChain) AnchorLevel() int {
	if c.anchor < 0 {
		return -1
	}

	return c.LevelOf(c.anchor)
}

// AnchorKind is the anchor notation, AnchorNone without an anchor.
func (c *PathChain) AnchorKind() Anchor {
	if c.anchor < 0 {
		return AnchorNone
	}

	return c.tokens[c.anchor].Anchor
}
