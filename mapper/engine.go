package mapper

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/mapping"
	"chain-mapper/internal/schema"
	"chain-mapper/primitive"
)

// Options configures an Engine.
type Options struct {
	Logger *zap.Logger
	// Categories are the conversion categories assignments may use.
	// Assignable and convertible pairs are always allowed.
	Categories primitive.CategoryEnum
	// UseIndex builds a runtime collection index of the source before each
	// execution. Without it plans resolve their collections reflectively.
	UseIndex bool
}

// DefaultOptions returns the options New uses for a zero field.
func DefaultOptions() Options {
	return Options{
		Logger:     zap.NewNop(),
		Categories: primitive.CategoryAll,
		UseIndex:   true,
	}
}

// Engine compiles mapping documents against the registered schema types and
// keeps the compiled specs by namespace, so that execute rules can run one
// spec as a module of another.
//
// Different documents may be compiled concurrently; the field cache and the
// registries are shared and safe for concurrent use.
type Engine struct {
	opts       Options
	registry   *schema.Registry
	in         *schema.Introspector
	converters *mapping.ConverterRegistry

	mu    sync.RWMutex
	specs map[string]*Compiled
}

func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	reg := schema.NewRegistry()

	return &Engine{
		opts:       opts,
		registry:   reg,
		in:         schema.NewIntrospector(nil, reg),
		converters: mapping.NewConverterRegistry(),
		specs:      make(map[string]*Compiled),
	}
}

// Register makes the types of the sample values known by name.
func (e *Engine) Register(samples ...any) {
	e.registry.Register(samples...)
}

func (e *Engine) Registry() *schema.Registry { return e.registry }

// RegisterConverter adds a converter function for execute rules. fn is a
// func(A) B or func(A) (B, error).
func (e *Engine) RegisterConverter(name string, fn any) error {
	return e.converters.Register(name, fn)
}

// Spec returns the compiled spec of a namespace.
func (e *Engine) Spec(namespace string) (*Compiled, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.specs[namespace]

	return c, ok
}

// CompileFile loads a YAML mapping document and compiles it.
func (e *Engine) CompileFile(path string) (*Compiled, *diagnostic.Report, error) {
	doc, err := mapping.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	return e.Compile(doc)
}

// Compile compiles doc and registers it under its namespace, replacing an
// earlier spec of that namespace. Rules that fail are listed in the report
// and left out of the compiled spec. An error is returned only when the
// document itself is unusable: structural problems or unknown root types.
func (e *Engine) Compile(doc *mapping.Document) (*Compiled, *diagnostic.Report, error) {
	if doc == nil {
		return nil, nil, mapping.Validate(nil).Error()
	}

	retained := clone(doc)
	mapping.Normalize(retained)

	b, err := e.build(retained)
	if err != nil {
		return nil, nil, err
	}

	c := &Compiled{engine: e, doc: retained, b: b}

	e.mu.Lock()
	e.specs[retained.Namespace] = c
	e.mu.Unlock()

	return c, b.report, nil
}

func (e *Engine) rootType(role, name string) (reflect.Type, error) {
	t, err := e.registry.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%s type: %w", role, err)
	}

	if schema.Indirect(t).Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s type %s is not a struct", role, t)
	}

	return schema.Indirect(t), nil
}

// clone copies the parts of doc that compilation keeps, so later edits of
// the caller's document do not leak into redeployments.
func clone(doc *mapping.Document) *mapping.Document {
	c := *doc
	c.Rules = make([]mapping.Rule, len(doc.Rules))

	for i, r := range doc.Rules {
		r.From.Values = append([]string(nil), r.From.Values...)
		r.ToOverrides = append([]mapping.Override(nil), r.ToOverrides...)
		r.FromOverrides = append([]mapping.Override(nil), r.FromOverrides...)
		r.Order = append([]string(nil), r.Order...)
		c.Rules[i] = r
	}

	return &c
}
