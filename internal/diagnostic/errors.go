package diagnostic

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed chain notation. Token is the zero-based
// token index, or -1 when the chain as a whole is malformed.
type SyntaxError struct {
	RuleID string
	Chain  string
	Token  int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return ruleMessage(e.RuleID, "syntax error", e.Chain, e.Token, e.Msg)
}

// SemanticError reports a chain that does not fit the introspected schema.
type SemanticError struct {
	RuleID      string
	Chain       string
	Token       int
	Field       string
	Msg         string
	Suggestions []string
}

func (e *SemanticError) Error() string {
	msg := e.Msg
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}

	return ruleMessage(e.RuleID, "semantic error", e.Chain, e.Token, msg)
}

// GenerationError reports a rule whose plan cannot be produced.
type GenerationError struct {
	RuleID string
	Msg    string
}

func (e *GenerationError) Error() string {
	return ruleMessage(e.RuleID, "generation error", "", -1, e.Msg)
}

// WithRule stamps the rule id on the rule error kinds that do not carry one
// yet and returns err.
func WithRule(err error, ruleID string) error {
	switch e := err.(type) {
	case *SyntaxError:
		if e.RuleID == "" {
			e.RuleID = ruleID
		}
	case *SemanticError:
		if e.RuleID == "" {
			e.RuleID = ruleID
		}
	case *GenerationError:
		if e.RuleID == "" {
			e.RuleID = ruleID
		}
	}

	return err
}

func ruleMessage(ruleID, kind, chain string, token int, msg string) string {
	var b strings.Builder
	if ruleID != "" {
		fmt.Fprintf(&b, "rule %s: ", ruleID)
	}

	b.WriteString(kind)

	if chain != "" {
		fmt.Fprintf(&b, " in %q", chain)
		if token >= 0 {
			fmt.Fprintf(&b, " at token %d", token)
		}
	}

	b.WriteString(": ")
	b.WriteString(msg)

	return b.String()
}
