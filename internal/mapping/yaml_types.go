package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ruleFields is Rule without its YAML methods.
type ruleFields Rule

// --- Rule YAML methods ---

// UnmarshalYAML accepts a single-key map: {copy: {...}} or {execute: {...}}.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: a rule is a map with a single copy or execute key", node.Line)
	}

	var kind RuleKind

	switch key := node.Content[0].Value; key {
	case "copy":
		kind = RuleCopy
	case "execute":
		kind = RuleExecute
	default:
		return fmt.Errorf("line %d: unknown rule kind %q, expected copy or execute", node.Line, key)
	}

	var fields ruleFields
	if err := node.Content[1].Decode(&fields); err != nil {
		return err
	}

	*r = Rule(fields)
	r.Kind = kind

	return nil
}

// MarshalYAML writes the single-key form.
func (r Rule) MarshalYAML() (any, error) {
	return map[string]ruleFields{r.Kind.String(): ruleFields(r)}, nil
}

// --- Source YAML methods ---

// UnmarshalYAML accepts a chain string or a {values: [...]} map.
func (s *Source) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var chain string
		if err := node.Decode(&chain); err != nil {
			return err
		}

		*s = Source{Chain: chain}

		return nil

	case yaml.MappingNode:
		var lit struct {
			Values *[]string `yaml:"values"`
		}

		if err := node.Decode(&lit); err != nil {
			return err
		}

		if lit.Values == nil {
			return fmt.Errorf("line %d: expected a chain or a values list", node.Line)
		}

		values := *lit.Values
		if values == nil {
			values = []string{}
		}

		*s = Source{Values: values, Literal: true}

		return nil

	default:
		return fmt.Errorf("line %d: expected a chain or a values list, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML writes a chain as a string and literals as a values map.
func (s Source) MarshalYAML() (any, error) {
	if s.Literal {
		values := s.Values
		if values == nil {
			values = []string{}
		}

		return map[string][]string{"values": values}, nil
	}

	return s.Chain, nil
}
