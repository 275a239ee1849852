package mapper

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/index"
	"chain-mapper/internal/mapping"
	"chain-mapper/internal/metrics"
	"chain-mapper/internal/pathtree"
	"chain-mapper/internal/plan"
)

// Compiled is a compiled spec: the source and target trees and one plan
// per compiled rule. Executions may run concurrently, also while the spec
// is redeployed; each one sees a single compilation.
type Compiled struct {
	engine *Engine
	doc    *mapping.Document

	mu sync.RWMutex
	b  *build
}

func (c *Compiled) current() *build {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.b
}

func (c *Compiled) Namespace() string { return c.doc.Namespace }
func (c *Compiled) Name() string      { return c.doc.Name }

// Document returns the retained mapping document.
func (c *Compiled) Document() *mapping.Document { return c.doc }

func (c *Compiled) SourceType() reflect.Type { return c.current().source.RootType() }
func (c *Compiled) TargetType() reflect.Type { return c.current().target.RootType() }

func (c *Compiled) SourceTree() *pathtree.Tree { return c.current().source }
func (c *Compiled) TargetTree() *pathtree.Tree { return c.current().target }

// Report returns the report of the last compilation.
func (c *Compiled) Report() *diagnostic.Report { return c.current().report }

// Plans returns the plans of the compiled rules in rule order.
func (c *Compiled) Plans() []*plan.Plan {
	return append([]*plan.Plan(nil), c.current().plans...)
}

// Plan returns the plan of a rule.
func (c *Compiled) Plan(ruleID string) (*plan.Plan, bool) {
	for _, r := range c.current().rules {
		if r.rule.ID == ruleID {
			return r.plan, true
		}
	}

	return nil, false
}

// Artifact returns the registry record of the compilation.
func (c *Compiled) Artifact() *plan.Artifact {
	b := c.current()

	a := plan.NewArtifact(c.doc)
	a.Build = b.report.Build
	a.AddTrees(b.source, b.target)

	for _, r := range b.rules {
		a.AddRule(r.rule, r.from, r.to, r.plan)
	}

	return a
}

// Redeploy compiles the retained document again from scratch and swaps the
// result in. On error the previous compilation stays in place.
func (c *Compiled) Redeploy() (*diagnostic.Report, error) {
	b, err := c.engine.build(c.doc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.b = b
	c.mu.Unlock()

	return b.report, nil
}

// Execute maps src, a source root value, a pointer to one or nil, into a
// new target value and returns a pointer to it. On error the partially
// filled target is returned with it.
func (c *Compiled) Execute(src any) (any, error) {
	b := c.current()

	sv, err := b.sourceValue(src)
	if err != nil {
		return nil, err
	}

	dst := reflect.New(b.target.RootType())
	err = c.run(b, sv, dst)

	return dst.Interface(), err
}

// ExecuteInto maps src into the target value dst points to. Fields no rule
// writes keep their values.
func (c *Compiled) ExecuteInto(src, dst any) error {
	b := c.current()

	sv, err := b.sourceValue(src)
	if err != nil {
		return err
	}

	target := b.target.RootType()

	dv := reflect.ValueOf(dst)
	if !dv.IsValid() || dv.Kind() != reflect.Pointer || dv.IsNil() || dv.Type().Elem() != target {
		return fmt.Errorf("target must be a non-nil *%s, got %T", target, dst)
	}

	return c.run(b, sv, dv)
}

// Index builds the runtime collection index of src for the compiled plans.
// It is nil when src holds no collection data.
func (c *Compiled) Index(src any) (*index.Index, error) {
	b := c.current()

	sv, err := b.sourceValue(src)
	if err != nil {
		return nil, err
	}

	return b.machine.Index(sv)
}

// run executes the plans of build b, a single snapshot of the spec taken
// by the caller.
func (c *Compiled) run(b *build, src, dst reflect.Value) (err error) {
	start := time.Now()
	defer func() { metrics.RecordExecution(c.Namespace(), time.Since(start), err) }()

	var idx *index.Index

	if c.engine.opts.UseIndex {
		if idx, err = b.machine.Index(src); err != nil {
			return err
		}
	}

	return b.machine.Run(src, dst, idx)
}

func (b *build) sourceValue(src any) (reflect.Value, error) {
	if src == nil {
		return reflect.Value{}, nil
	}

	v := reflect.ValueOf(src)

	t := v.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != b.source.RootType() {
		return reflect.Value{}, fmt.Errorf("source must be a %s, got %T", b.source.RootType(), src)
	}

	return v, nil
}
