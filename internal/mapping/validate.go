package mapping

import (
	"fmt"

	"chain-mapper/internal/diagnostic"
)

// Validate checks the structure of a document without resolving any type.
// Errors here abort the whole document; problems of single chains are
// reported later by compilation, rule by rule.
func Validate(doc *Document) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if doc == nil {
		res.AddError("document_is_nil", "mapping document is nil", "", "")
		return res
	}

	if doc.Namespace == "" {
		res.AddError("missing_namespace", "namespace is required", "", "")
	}

	if doc.Source == "" {
		res.AddError("missing_source_type", "source type is required", "", "")
	}

	if doc.Target == "" {
		res.AddError("missing_target_type", "target type is required", "", "")
	}

	if len(doc.Rules) == 0 {
		res.AddError("no_rules", "the document declares no rules", "", "")
	}

	seen := make(map[string]struct{}, len(doc.Rules))

	for i := range doc.Rules {
		r := &doc.Rules[i]

		if r.ID != "" {
			if _, dup := seen[r.ID]; dup {
				res.AddError("duplicate_rule", fmt.Sprintf("duplicate rule id %q", r.ID), r.ID, "")
			}

			seen[r.ID] = struct{}{}
		}

		validateRule(res, r)
	}

	return res
}

func validateRule(res *diagnostic.Diagnostics, r *Rule) {
	if r.To == "" {
		res.AddError("missing_target_chain", "rule has no target chain", r.ID, "")
	}

	if r.From.IsZero() {
		res.AddError("missing_source", "rule needs a source chain or a values list", r.ID, r.To)
	}

	for _, ov := range append(append([]Override(nil), r.ToOverrides...), r.FromOverrides...) {
		if ov.At < 0 {
			res.AddError("invalid_override", fmt.Sprintf("override token index %d is negative", ov.At), r.ID, r.To)
		}
	}

	if r.From.Literal && len(r.FromOverrides) > 0 {
		res.AddError("invalid_override", "a values list takes no source overrides", r.ID, r.To)
	}

	if !r.IsExecute() {
		if r.Converter != "" || r.Module != "" || len(r.Order) > 0 {
			res.AddError("copy_with_pipeline", "converter, module and order belong to execute rules", r.ID, r.To)
		}

		return
	}

	if r.From.Literal {
		res.AddError("execute_with_values", "an execute rule reads a source chain, not a values list", r.ID, r.To)
	}

	if r.Converter == "" && r.Module == "" {
		res.AddError("empty_pipeline", "an execute rule needs a converter or a module", r.ID, r.To)
	}

	validateOrder(res, r)
}

func validateOrder(res *diagnostic.Diagnostics, r *Rule) {
	seen := map[string]bool{}

	for _, stage := range r.Order {
		switch stage {
		case StageConverter:
			if r.Converter == "" {
				res.AddError("invalid_order", "order lists converter but the rule names none", r.ID, r.To)
			}
		case StageModule:
			if r.Module == "" {
				res.AddError("invalid_order", "order lists module but the rule names none", r.ID, r.To)
			}
		default:
			res.AddError("invalid_order", fmt.Sprintf("unknown stage %q in order, expected converter or module", stage), r.ID, r.To)
			continue
		}

		if seen[stage] {
			res.AddError("invalid_order", fmt.Sprintf("stage %q listed twice", stage), r.ID, r.To)
		}

		seen[stage] = true
	}

	if len(r.Order) == 0 {
		return
	}

	if r.Converter != "" && !seen[StageConverter] {
		res.AddError("invalid_order", "order omits the converter", r.ID, r.To)
	}

	if r.Module != "" && !seen[StageModule] {
		res.AddError("invalid_order", "order omits the module", r.ID, r.To)
	}
}
