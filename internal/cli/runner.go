package cli

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"chain-mapper/internal/align"
	"chain-mapper/internal/analyze"
	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/mapping"
)

// ErrFindings is returned when a checked spec has error diagnostics. They
// have been printed already.
var ErrFindings = errors.New("spec has errors")

// Runner executes one CLI command.
type Runner struct {
	out    io.Writer
	logger *zap.Logger
}

// NewRunner creates a new Runner printing to out.
func NewRunner(out io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{out: out, logger: logger}
}

// Run executes cfg.Command.
func (r *Runner) Run(cfg *Config) error {
	switch cfg.Command {
	case CommandCheck:
		return r.check(cfg)
	case CommandLint:
		return r.lint(cfg)
	case CommandPaths:
		return r.paths(cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func (r *Runner) load(path string) (*mapping.Document, error) {
	doc, err := mapping.LoadFile(path)
	if err != nil {
		return nil, err
	}

	r.logger.Info("spec loaded",
		zap.String("path", path),
		zap.String("namespace", doc.Namespace),
		zap.Int("rules", len(doc.Rules)))

	return doc, nil
}

func (r *Runner) check(cfg *Config) error {
	doc, err := r.load(cfg.SpecPath)
	if err != nil {
		return err
	}

	diags := mapping.Validate(doc)

	fmt.Fprintf(r.out, "spec %s (%s -> %s)\n", doc.Namespace, doc.Source, doc.Target)

	for i := range doc.Rules {
		rule := &doc.Rules[i]
		if line, ok := r.classify(rule, diags); ok {
			fmt.Fprintln(r.out, line)
		}
	}

	return r.report(diags)
}

// classify renders one rule: its sanitized chains and alignment class.
// Parse and alignment failures go to diags instead.
func (r *Runner) classify(rule *mapping.Rule, diags *diagnostic.Diagnostics) (string, bool) {
	if rule.Disabled {
		return fmt.Sprintf("  %s  %s  disabled", rule.ID, rule.Kind), true
	}

	to, err := chain.Parse(rule.To)
	if err != nil {
		diags.AddError("syntax_error", err.Error(), rule.ID, rule.To)
		return "", false
	}

	var (
		from *chain.PathChain
		src  string
	)

	switch {
	case rule.From.Literal:
		src = fmt.Sprintf("values(%d)", len(rule.From.Values))
	case rule.From.Chain != "":
		if from, err = chain.Parse(rule.From.Chain); err != nil {
			diags.AddError("syntax_error", err.Error(), rule.ID, rule.From.Chain)
			return "", false
		}

		src = from.Sanitized()
	default:
		return "", false
	}

	a, err := align.Align(from, to, rule.IsExecute())
	if err != nil {
		diags.AddError("alignment", err.Error(), rule.ID, rule.To)
		return "", false
	}

	return fmt.Sprintf("  %s  %s  %s <- %s  %s", rule.ID, rule.Kind, to.Sanitized(), src, a.Classification), true
}

func (r *Runner) lint(cfg *Config) error {
	doc, err := r.load(cfg.SpecPath)
	if err != nil {
		return err
	}

	graph, err := r.graph(cfg)
	if err != nil {
		return err
	}

	diags := analyze.Lint(graph, doc)
	if diags.Len() == 0 {
		fmt.Fprintf(r.out, "spec %s: %d rules, no findings\n", doc.Namespace, len(doc.Rules))
	}

	return r.report(diags)
}

func (r *Runner) paths(cfg *Config) error {
	graph, err := r.graph(cfg)
	if err != nil {
		return err
	}

	id, err := analyze.ResolveTypeID(graph, cfg.TypeName)
	if err != nil {
		return err
	}

	root := graph.GetType(id).Resolved()
	if root.Kind != analyze.TypeKindStruct {
		return fmt.Errorf("type %s is a %s, not a struct", id, root.Kind)
	}

	for _, p := range analyze.NewTypeStringer().ChainPaths(root, cfg.Depth) {
		fmt.Fprintln(r.out, p)
	}

	return nil
}

func (r *Runner) graph(cfg *Config) (*analyze.TypeGraph, error) {
	graph, err := analyze.NewAnalyzer(analyze.WithDir(cfg.Dir)).LoadPackages(cfg.Packages...)
	if err != nil {
		return nil, err
	}

	r.logger.Info("packages loaded",
		zap.Strings("patterns", cfg.Packages),
		zap.Int("types", len(graph.Types)))

	return graph, nil
}

// report prints every diagnostic, errors last, and returns ErrFindings
// when there are errors.
func (r *Runner) report(diags *diagnostic.Diagnostics) error {
	for _, group := range [][]diagnostic.Diagnostic{diags.Infos, diags.Warnings, diags.Errors} {
		for _, d := range group {
			fmt.Fprintf(r.out, "%s: %s\n", d.Severity, d)

			if len(d.Suggestions) > 0 {
				fmt.Fprintf(r.out, "  did you mean: %v\n", d.Suggestions)
			}
		}
	}

	if diags.HasErrors() {
		return ErrFindings
	}

	return nil
}
