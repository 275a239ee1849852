package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=DiagnosticSeverity -linecomment -output=types_string.go

// DiagnosticSeverity ranks a finding. Only errors make a spec invalid.
type DiagnosticSeverity int

const (
	DiagnosticInfo    DiagnosticSeverity = iota // info
	DiagnosticWarning                           // warning
	DiagnosticError                             // error
)

// Diagnostic is one finding about a spec, usually tied to a rule and one
// of its chains.
type Diagnostic struct {
	Severity DiagnosticSeverity
	// Code is the machine-readable kind, e.g. "unknown_field".
	Code    string
	Message string
	// Rule is the id of the offending rule, empty for findings about the
	// document as a whole.
	Rule string
	// Path is the chain the finding points into.
	Path string
	// Suggestions lists field names the chain probably meant.
	Suggestions []string
}

// String renders "rule ID PATH: [code] message", leaving out the parts
// that are empty.
func (d Diagnostic) String() string {
	var b strings.Builder

	if d.Rule != "" {
		b.WriteString("rule " + d.Rule)
	}

	if d.Path != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}

		b.WriteString(d.Path)
	}

	if b.Len() > 0 {
		b.WriteString(": ")
	}

	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] ", d.Code)
	}

	b.WriteString(d.Message)

	return b.String()
}

// Diagnostics collects the findings of loading, linting and compiling a
// spec, split by severity.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

func (d *Diagnostics) add(sev DiagnosticSeverity, code, message, rule, path string) {
	diag := Diagnostic{Severity: sev, Code: code, Message: message, Rule: rule, Path: path}

	switch sev {
	case DiagnosticError:
		d.Errors = append(d.Errors, diag)
	case DiagnosticWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError records a finding that makes the spec, or the rule, unusable.
func (d *Diagnostics) AddError(code, message, rule, path string) {
	d.add(DiagnosticError, code, message, rule, path)
}

// AddWarning records a finding compilation works around, such as a
// disabled rule or a conflicting override.
func (d *Diagnostics) AddWarning(code, message, rule, path string) {
	d.add(DiagnosticWarning, code, message, rule, path)
}

func (d *Diagnostics) AddInfo(code, message, rule, path string) {
	d.add(DiagnosticInfo, code, message, rule, path)
}

func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// IsValid reports a spec without error findings.
func (d *Diagnostics) IsValid() bool { return !d.HasErrors() }

// Len counts the findings of every severity.
func (d *Diagnostics) Len() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

// All returns errors, warnings and infos in that order.
func (d *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, d.Len())
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)

	return append(all, d.Infos...)
}

// Error joins the error findings with "; ". It is nil for a valid spec.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, len(d.Errors))
	for i, e := range d.Errors {
		parts[i] = e.String()
	}

	return errors.New(strings.Join(parts, "; "))
}
