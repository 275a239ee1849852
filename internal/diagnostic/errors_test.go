package diagnostic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_Messages(t *testing.T) {
	err := WithRule(&SyntaxError{Chain: "a[.b", Token: 0, Msg: "unterminated '['"}, "r1")
	assert.Equal(t, `rule r1: syntax error in "a[.b" at token 0: unterminated '['`, err.Error())

	err = &SemanticError{RuleID: "r2", Chain: "nmae", Token: 0, Field: "nmae", Msg: `no field "nmae"`, Suggestions: []string{"name"}}
	assert.Equal(t, `rule r2: semantic error in "nmae" at token 0: no field "nmae" (did you mean name?)`, err.Error())

	err = WithRule(&GenerationError{RuleID: "kept", Msg: "ambiguous"}, "other")
	assert.Equal(t, "rule kept: generation error: ambiguous", err.Error())
}

func TestReport(t *testing.T) {
	var r Report
	r.Namespace = "orders"
	r.Compiled = append(r.Compiled, "a")
	r.Fail("b", &GenerationError{RuleID: "b", Msg: "boom"})
	r.Diagnostics.AddWarning("override-conflict", "first wins", "c", "lines")

	assert.False(t, r.OK())

	f, ok := r.Failure("b")
	require.True(t, ok)

	var genErr *GenerationError
	assert.True(t, errors.As(f.Err, &genErr))
	assert.True(t, errors.As(r.Err(), &genErr))

	assert.Contains(t, r.String(), "orders: 1 compiled, 1 failed, 0 skipped")
	assert.Contains(t, r.String(), "warning: rule c lines: [override-conflict] first wins")
}
