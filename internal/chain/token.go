package chain

import (
	"strconv"
	"strings"
)

//go:generate go tool stringer -type=Role,Anchor -linecomment -output=token_string.go

// Role is the member a bracketed token selects.
type Role int

const (
	RoleNone   Role = iota // none
	RoleMember             // member
	RoleKey                // key
	RoleValue              // value
)

// Marker is the sanitized bracket text of the role.
func (r Role) Marker() string {
	switch r {
	case RoleMember:
		return "[]"
	case RoleKey:
		return "[K]"
	case RoleValue:
		return "[V]"
	default:
		return ""
	}
}

// Anchor marks the nesting level correlated between source and target.
type Anchor int

const (
	AnchorNone Anchor = iota // none
	AnchorPre                // pre
	AnchorPost               // post
	AnchorMap                // map
)

// Token is one parsed segment of a chain.
type Token struct {
	Raw    string
	Name   string
	Role   Role
	Index  int // pinned ordinal, -1 when absent
	Anchor Anchor
}

// Sanitized drops ordinals and anchors: "items[<2K]" becomes "items[K]".
func (t Token) Sanitized() string {
	return t.Name + t.Role.Marker()
}

// Bracketed reports a collection or map token.
func (t Token) Bracketed() bool {
	return t.Role != RoleNone
}

// IsMap reports a key or value token.
func (t Token) IsMap() bool {
	return t.Role == RoleKey || t.Role == RoleValue
}

// parseToken returns the token or a syntax error message.
func parseToken(raw string) (Token, string) {
	tok := Token{Raw: raw, Index: -1}

	if raw == "" {
		return tok, "empty token"
	}

	open := strings.IndexByte(raw, '[')
	if open < 0 {
		switch {
		case strings.ContainsAny(raw, "<>"):
			return tok, "anchor notation outside brackets"
		case strings.ContainsRune(raw, ']'):
			return tok, "unbalanced ']'"
		case !isValidIdent(raw):
			return tok, "invalid field name " + strconv.Quote(raw)
		}

		tok.Name = raw

		return tok, ""
	}

	name := raw[:open]
	if strings.ContainsAny(name, "<>") {
		return tok, "anchor notation outside brackets"
	}

	if !isValidIdent(name) {
		return tok, "invalid field name " + strconv.Quote(name)
	}

	tok.Name = name

	end := strings.IndexByte(raw[open:], ']')
	if end < 0 {
		return tok, "unterminated '['"
	}

	end += open
	if rest := raw[end+1:]; rest != "" {
		if strings.ContainsAny(rest, "<>") {
			return tok, "anchor notation outside brackets"
		}

		return tok, "unexpected " + strconv.Quote(rest) + " after ']'"
	}

	inner := raw[open+1 : end]
	if strings.ContainsRune(inner, '[') {
		return tok, "nested '['"
	}

	pre := strings.HasPrefix(inner, "<")
	if pre {
		inner = inner[1:]
	}

	post := strings.HasSuffix(inner, ">")
	if post {
		inner = inner[:len(inner)-1]
	}

	tok.Role = RoleMember
	switch {
	case strings.HasSuffix(inner, "K"):
		tok.Role = RoleKey
		inner = inner[:len(inner)-1]
	case strings.HasSuffix(inner, "V"):
		tok.Role = RoleValue
		inner = inner[:len(inner)-1]
	}

	if inner != "" {
		n, err := strconv.Atoi(inner)
		if err != nil || n < 0 || !isDigits(inner) {
			return tok, "non-integer index " + strconv.Quote(inner)
		}

		tok.Index = n
	}

	switch {
	case pre && post:
		if !tok.IsMap() {
			return tok, "map anchor <...> requires a K or V role"
		}
		tok.Anchor = AnchorMap
	case pre:
		tok.Anchor = AnchorPre
	case post:
		tok.Anchor = AnchorPost
	}

	if tok.Anchor != AnchorNone && tok.Index >= 0 {
		return tok, "an anchor cannot pin a literal index"
	}

	return tok, ""
}

func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if !isLetter(r) && (i == 0 || !isDigit(r)) {
			return false
		}
	}

	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}

	return s != ""
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
