package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Failure is one rule that did not compile.
type Failure struct {
	RuleID string
	Err    error
}

// Report is the partial success result of compiling one spec.
type Report struct {
	Namespace   string
	Build       string // id of the compilation
	Compiled    []string
	Skipped     []string
	Failed      []Failure
	Diagnostics Diagnostics
}

// Fail records a failed rule.
func (r *Report) Fail(ruleID string, err error) {
	r.Failed = append(r.Failed, Failure{RuleID: ruleID, Err: err})
}

// OK reports whether every enabled rule compiled.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Failure returns the failure of a rule, if any.
func (r *Report) Failure(ruleID string) (Failure, bool) {
	for _, f := range r.Failed {
		if f.RuleID == ruleID {
			return f, true
		}
	}

	return Failure{}, false
}

// Err joins the failures into one error, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}

	return errors.Join(errs...)
}

func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %d compiled, %d failed, %d skipped",
		r.Namespace, len(r.Compiled), len(r.Failed), len(r.Skipped))

	for _, f := range r.Failed {
		b.WriteString("\n  ")
		b.WriteString(f.Err.Error())
	}

	for _, d := range r.Diagnostics.All() {
		b.WriteString("\n  ")
		b.WriteString(d.Severity.String())
		b.WriteString(": ")
		b.WriteString(d.String())
	}

	return b.String()
}
