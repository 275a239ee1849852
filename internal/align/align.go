// Package align decides how the collection levels of a rule's source and
// target chains are iterated against each other.
package align

import (
	"fmt"

	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/utils"
)

//go:generate go tool stringer -type=Kind,Relation,PolicyKind -linecomment -output=align_string.go

// Kind is the classification of a rule.
type Kind int

const (
	NoCollection      Kind = iota // no-collection
	ScalarFanOut                  // scalar-fan-out
	CollectionAligned             // collection-aligned
)

// Relation compares the nesting depths of the two chains.
type Relation int

const (
	RelationNone Relation = iota // none
	Equal                        // equal
	SourceDeeper                 // source-deeper
	TargetDeeper                 // target-deeper
)

// Classification is the alignment class of one rule.
type Classification struct {
	Kind         Kind
	Relation     Relation // set for CollectionAligned only
	SourceDepth  int
	TargetDepth  int
	SourceAnchor int // anchored source level, -1 without
	TargetAnchor int // anchored target level, -1 without
}

// Classify derives the class from the depth counts. A literal value list
// always fans out; otherwise any collection level on either side makes the
// rule collection-aligned.
func Classify(sourceDepth, targetDepth int, literal bool) Classification {
	c := Classification{
		SourceDepth:  sourceDepth,
		TargetDepth:  targetDepth,
		SourceAnchor: -1,
		TargetAnchor: -1,
	}

	switch {
	case literal:
		c.Kind = ScalarFanOut
	case sourceDepth == 0 && targetDepth == 0:
		c.Kind = NoCollection
	default:
		c.Kind = CollectionAligned
		c.Relation = compare(sourceDepth, targetDepth)
	}

	return c
}

func compare(sourceDepth, targetDepth int) Relation {
	switch {
	case targetDepth > sourceDepth:
		return TargetDeeper
	case sourceDepth > targetDepth:
		return SourceDeeper
	default:
		return Equal
	}
}

func (c Classification) String() string {
	if c.Kind != CollectionAligned {
		return c.Kind.String()
	}

	s := fmt.Sprintf("%s/%s", c.Kind, c.Relation)
	if c.SourceAnchor >= 0 || c.TargetAnchor >= 0 {
		s += fmt.Sprintf(" anchor(source=%d, target=%d)", c.SourceAnchor, c.TargetAnchor)
	}

	return s
}

// PolicyKind tells how the position inside one target collection level is
// chosen on every visit.
type PolicyKind int

const (
	// Single writes the last element, creating one when the level is empty.
	Single PolicyKind = iota // single
	// Append adds a fresh element.
	Append // append
	// Correlate uses the position of the source level.
	Correlate // correlate
	// Offset adds the position of the source level to the size the target
	// collection had when the rule first touched it.
	Offset // offset
	// Ordinal uses the position of the value in a fan-out list.
	Ordinal // ordinal
	// RunningOffset is Offset driven by the fan-out value counter.
	RunningOffset // running-offset
)

func (p PolicyKind) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PolicyKind) UnmarshalText(text []byte) error {
	for k := Single; k <= RunningOffset; k++ {
		if k.String() == string(text) {
			*p = k
			return nil
		}
	}

	return fmt.Errorf("unknown policy %q", text)
}

// Policy is the position rule of one target level.
type Policy struct {
	Kind  PolicyKind `yaml:"kind"`
	Level int        `yaml:"level"` // source level for Correlate and Offset, -1 otherwise
}

func (p Policy) String() string {
	if p.Level >= 0 {
		return fmt.Sprintf("%s(%d)", p.Kind, p.Level)
	}

	return p.Kind.String()
}

func policy(kind PolicyKind) Policy { return Policy{Kind: kind, Level: -1} }

// Alignment is the iteration plan of one rule.
type Alignment struct {
	Classification

	// Target holds one policy per target level, outermost first.
	Target []Policy
	// Distribute is the target level receiving fan-out values, -1 when the
	// rule does not distribute.
	Distribute int
	// Collect is set for execute rules whose source iterates: leaf values
	// are gathered and handed to the pipeline once.
	Collect bool
}

// Align plans a rule. src is nil for a literal value list. execute marks
// rules running a converter or module, which may iterate on one side only.
func Align(src, dst *chain.PathChain, execute bool) (*Alignment, error) {
	ds := 0
	if src != nil {
		ds = src.Depth()
	}

	dt := dst.Depth()

	a := &Alignment{
		Classification: Classify(ds, dt, src == nil),
		Distribute:     -1,
	}

	if src != nil {
		a.SourceAnchor = src.AnchorLevel()
	}

	a.TargetAnchor = dst.AnchorLevel()

	switch {
	case src == nil:
		a.fanOut(dst)
		return a, nil

	case execute && ds > 0 && dt > 0:
		return nil, &diagnostic.GenerationError{Msg: fmt.Sprintf(
			"an execute rule iterates either its source or its target, not both (source depth %d, target depth %d)", ds, dt)}

	case execute && ds > 0:
		a.Collect = true
		return a, nil

	case execute && dt > 0:
		a.fanOut(dst)
		return a, nil

	case dt == 0:
		return a, nil

	case ds == 0:
		a.fill(0, dt, policy(Single))
		return a, nil
	}

	if a.SourceAnchor < 0 && a.TargetAnchor < 0 {
		return a, a.unanchored()
	}

	a.anchored(src, dst)

	return a, nil
}

// fanOut distributes values over the target: at the anchored level when
// there is one, else at the innermost level.
func (a *Alignment) fanOut(dst *chain.PathChain) {
	dt := dst.Depth()
	if dt == 0 {
		return
	}

	d := a.TargetAnchor
	if d < 0 {
		d = dt - 1
	}

	a.Distribute = d

	a.fill(0, d, policy(Single))

	switch dst.AnchorKind() {
	case chain.AnchorPost, chain.AnchorMap:
		a.Target = append(a.Target, policy(Ordinal))
	default:
		a.Target = append(a.Target, policy(RunningOffset))
	}

	a.fill(d+1, dt, policy(Append))
}

func (a *Alignment) unanchored() error {
	ds, dt := a.SourceDepth, a.TargetDepth

	switch {
	case ds == dt:
		for j := 0; j < dt; j++ {
			a.Target = append(a.Target, Policy{Kind: Correlate, Level: j})
		}

	case dt > ds:
		extra := dt - ds
		a.fill(0, extra, policy(Single))

		for j := extra; j < dt; j++ {
			a.Target = append(a.Target, Policy{Kind: Correlate, Level: j - extra})
		}

	case dt == 1:
		a.Target = append(a.Target, policy(Append))

	default:
		return &diagnostic.GenerationError{Msg: fmt.Sprintf(
			"source depth %d and target depth %d cannot be aligned without an anchor", ds, dt)}
	}

	return nil
}

// anchored correlates the anchored levels and derives the others from them.
// A one-sided anchor is matched by the level at the same distance from the
// innermost level on the other side.
func (a *Alignment) anchored(src, dst *chain.PathChain) {
	ds, dt := a.SourceDepth, a.TargetDepth
	as, at := a.SourceAnchor, a.TargetAnchor

	kind := dst.AnchorKind()

	switch {
	case at < 0:
		at = utils.Clamp(dt-1-(ds-1-as), 0, dt-1)
		kind = src.AnchorKind()
	case as < 0:
		as = utils.Clamp(ds-1-(dt-1-at), 0, ds-1)
	}

	a.SourceAnchor, a.TargetAnchor = as, at

	for j := 0; j < at; j++ {
		if as == at {
			a.Target = append(a.Target, Policy{Kind: Correlate, Level: j})
		} else {
			a.Target = append(a.Target, policy(Single))
		}
	}

	if kind == chain.AnchorPre {
		a.Target = append(a.Target, Policy{Kind: Offset, Level: as})
	} else {
		a.Target = append(a.Target, Policy{Kind: Correlate, Level: as})
	}

	a.fill(at+1, dt, policy(Append))
}

func (a *Alignment) fill(from, to int, p Policy) {
	for j := from; j < to; j++ {
		a.Target = append(a.Target, p)
	}
}

// Correlated returns the source level that target level j follows.
func (a *Alignment) Correlated(j int) (int, bool) {
	if j < 0 || j >= len(a.Target) {
		return -1, false
	}

	p := a.Target[j]
	if p.Kind == Correlate || p.Kind == Offset {
		return p.Level, true
	}

	return -1, false
}
