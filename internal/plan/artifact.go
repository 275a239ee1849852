package plan

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"chain-mapper/internal/mapping"
	"chain-mapper/internal/pathtree"
)

// ArtifactVersion is written into every artifact.
const ArtifactVersion = "1"

// Artifact is the serializable record of a compiled spec: both trees and
// the ops of every rule. It documents a compilation and can be diffed
// across builds; executing always compiles again from the document.
type Artifact struct {
	Version   string         `yaml:"version"`
	Namespace string         `yaml:"namespace"`
	Build     string         `yaml:"build,omitempty"`
	Name      string         `yaml:"name,omitempty"`
	Source    string         `yaml:"source"`
	Target    string         `yaml:"target"`
	Helper    string         `yaml:"helper,omitempty"`
	Trees     Trees          `yaml:"trees"`
	Rules     []RuleArtifact `yaml:"rules"`
}

type Trees struct {
	Source []NodeRecord `yaml:"source"`
	Target []NodeRecord `yaml:"target"`
}

// NodeRecord is one tree node.
type NodeRecord struct {
	ID       pathtree.NodeID `yaml:"id"`
	Parent   pathtree.NodeID `yaml:"parent"`
	Key      string          `yaml:"key"`
	Path     string          `yaml:"path,omitempty"`
	Field    string          `yaml:"field,omitempty"`
	Type     string          `yaml:"type"`
	Concrete string          `yaml:"concrete,omitempty"`
	Shape    string          `yaml:"shape"`
	Notated  bool            `yaml:"notated,omitempty"`
	Accessor string          `yaml:"accessor,omitempty"`
	Mutator  string          `yaml:"mutator,omitempty"`
	Helper   bool            `yaml:"helper,omitempty"`
	Rules    []string        `yaml:"rules,omitempty"`
}

// RuleArtifact is one rule with its compiled chains and plan.
type RuleArtifact struct {
	Rule           mapping.Rule `yaml:"rule"`
	From           string       `yaml:"from,omitempty"`
	To             string       `yaml:"to"`
	FromSanitized  string       `yaml:"from_sanitized,omitempty"`
	ToSanitized    string       `yaml:"to_sanitized"`
	FromStem       int          `yaml:"from_stem,omitempty"`
	ToStem         int          `yaml:"to_stem"`
	Collections    int          `yaml:"collections,omitempty"`
	Classification string       `yaml:"classification"`
	Registers      int          `yaml:"registers"`
	Ops            []Op         `yaml:"ops"`
}

// NewArtifact starts an artifact for a document. Trees and rules are added
// with AddTrees and AddRule.
func NewArtifact(doc *mapping.Document) *Artifact {
	return &Artifact{
		Version:   ArtifactVersion,
		Namespace: doc.Namespace,
		Name:      doc.Name,
		Source:    doc.Source,
		Target:    doc.Target,
		Helper:    doc.Helper,
	}
}

// AddTrees records the nodes of both trees.
func (a *Artifact) AddTrees(source, target *pathtree.Tree) {
	a.Trees = Trees{Source: records(source), Target: records(target)}
}

func records(t *pathtree.Tree) []NodeRecord {
	nodes := t.Nodes()
	out := make([]NodeRecord, 0, len(nodes))

	for _, n := range nodes {
		rec := NodeRecord{
			ID:       n.ID,
			Parent:   n.Parent,
			Key:      n.Key,
			Path:     t.Path(n.ID),
			Field:    n.Field,
			Type:     n.Type.String(),
			Shape:    n.Shape.String(),
			Notated:  n.Notated,
			Accessor: n.Accessor,
			Mutator:  n.Mutator,
			Helper:   n.Helper,
			Rules:    n.Rules(),
		}

		if n.Concrete != nil {
			rec.Concrete = n.Concrete.String()
		}

		if len(rec.Rules) == 0 {
			rec.Rules = nil
		}

		out = append(out, rec)
	}

	return out
}

// AddRule records a rule whose plan was generated. from is nil for
// literal rules.
func (a *Artifact) AddRule(rule mapping.Rule, from, to *pathtree.Path, p *Plan) {
	ra := RuleArtifact{
		Rule:           rule,
		To:             to.Chain.Raw(),
		ToSanitized:    to.Chain.Sanitized(),
		ToStem:         int(to.Stem),
		Classification: p.Alignment.Classification.String(),
		Registers:      p.Registers,
		Ops:            make([]Op, 0, len(p.Ops)),
	}

	if from != nil {
		ra.From = from.Chain.Raw()
		ra.FromSanitized = from.Chain.Sanitized()
		ra.FromStem = int(from.Stem)
		ra.Collections = from.Chain.Collections()
	}

	for _, op := range p.Ops {
		ra.Ops = append(ra.Ops, op.Record())
	}

	a.Rules = append(a.Rules, ra)
}

// Rule returns the record of a rule by id.
func (a *Artifact) Rule(id string) (*RuleArtifact, bool) {
	for i := range a.Rules {
		if a.Rules[i].Rule.ID == id {
			return &a.Rules[i], true
		}
	}

	return nil, false
}

// Encode writes the artifact as YAML.
func (a *Artifact) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	return enc.Close()
}

// Bytes is Encode into memory.
func (a *Artifact) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeArtifact reads an artifact written by Encode.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := yaml.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}

	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %q", a.Version)
	}

	return &a, nil
}
