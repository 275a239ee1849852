package mapping

// Document is the root structure of a mapping specification file. It maps
// one source type to one target type inside a namespace.
type Document struct {
	// Version is the schema version (currently "1").
	Version string `yaml:"version"`
	// Namespace addresses the compiled spec, for example from the module
	// of an execute rule in another spec.
	Namespace string `yaml:"namespace"`
	// Name is the entry point name. Defaults to the namespace.
	Name string `yaml:"name,omitempty"`
	// Source is the source root type name (e.g., "store.Order").
	Source string `yaml:"source"`
	// Target is the target root type name.
	Target string `yaml:"target"`
	// Helper names the type whose methods helper overrides call.
	Helper string `yaml:"helper,omitempty"`
	// Rules are applied in declaration order.
	Rules []Rule `yaml:"rules"`
}

// RuleKind distinguishes copy and execute directives.
type RuleKind int

const (
	RuleCopy RuleKind = iota
	RuleExecute
)

// String returns the YAML key of the kind.
func (k RuleKind) String() string {
	if k == RuleExecute {
		return "execute"
	}

	return "copy"
}

// Rule is one directive of a document. The YAML form is a single-key map
// whose key is the kind:
//
//	- copy:
//	    to: tags[]
//	    from:
//	      values: [a, b, c]
//	- execute:
//	    to: total
//	    from: lines[].qty
//	    converter: Sum
type Rule struct {
	Kind RuleKind `yaml:"-"`
	// ID identifies the rule in reports. Generated when empty.
	ID string `yaml:"id,omitempty"`
	// To is the target chain.
	To string `yaml:"to"`
	// From is the source chain or a literal value list.
	From Source `yaml:"from,omitempty"`
	// ToOverrides and FromOverrides adjust single tokens of the chains.
	ToOverrides   []Override `yaml:"to_overrides,omitempty"`
	FromOverrides []Override `yaml:"from_overrides,omitempty"`
	// Converter names a function of the converter registry (execute only).
	Converter string `yaml:"converter,omitempty"`
	// Module is the namespace of another compiled spec (execute only).
	Module string `yaml:"module,omitempty"`
	// Order fixes the sequence of converter and module.
	Order []string `yaml:"order,omitempty"`
	// Disabled rules are skipped.
	Disabled bool `yaml:"disabled,omitempty"`
	// Debug rules log their generated plan.
	Debug bool `yaml:"debug,omitempty"`
}

// IsExecute reports execute directives.
func (r *Rule) IsExecute() bool {
	return r.Kind == RuleExecute
}

// Source is where a rule reads from: a chain or a literal value list.
type Source struct {
	Chain   string
	Values  []string
	Literal bool // Values is set, even when empty
}

// IsZero reports a missing source; it makes omitempty work.
func (s Source) IsZero() bool {
	return s.Chain == "" && !s.Literal
}

// Override adjusts the defaults of the token at index At.
type Override struct {
	At       int    `yaml:"at"`
	Accessor string `yaml:"accessor,omitempty"`
	Mutator  string `yaml:"mutator,omitempty"`
	// Type is a concrete type expression for an interface field.
	Type   string `yaml:"type,omitempty"`
	Helper bool   `yaml:"helper,omitempty"`
}

// Stage names accepted in Rule.Order.
const (
	StageConverter = "converter"
	StageModule    = "module"
)

// Stages returns the pipeline stages of an execute rule in run order.
func (r *Rule) Stages() []string {
	if len(r.Order) > 0 {
		return append([]string(nil), r.Order...)
	}

	var stages []string
	if r.Converter != "" {
		stages = append(stages, StageConverter)
	}

	if r.Module != "" {
		stages = append(stages, StageModule)
	}

	return stages
}
