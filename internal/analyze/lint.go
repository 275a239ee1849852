package analyze

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"chain-mapper/internal/chain"
	"chain-mapper/internal/diagnostic"
	"chain-mapper/internal/mapping"
	"chain-mapper/internal/match"
)

// ResolveTypeID finds a named type of the graph by a spec type name:
// "store.Order" matches on the package name, "chain-mapper/store.Order" on
// the import path. A leading '*' is ignored.
func ResolveTypeID(graph *TypeGraph, name string) (TypeID, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "*")

	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return TypeID{}, fmt.Errorf("type name %q is not qualified by a package", name)
	}

	pkg, typeName := name[:dot], name[dot+1:]

	var found []TypeID

	for _, p := range graph.Packages {
		if p.Path != pkg && p.Name != pkg {
			continue
		}

		id := TypeID{PkgPath: p.Path, Name: typeName}
		if graph.GetType(id) != nil {
			found = append(found, id)
		}
	}

	switch len(found) {
	case 0:
		return TypeID{}, fmt.Errorf("type %s not found in the loaded packages", name)
	case 1:
		return found[0], nil
	default:
		return TypeID{}, fmt.Errorf("type %s is ambiguous: found %s and %s", name, found[0], found[1])
	}
}

// Lint checks the chains of doc against the loaded types without running
// any code: field names, notation against field shapes, accessors and
// mutators of unexported fields, and interface fields lacking a type
// override. Tokens past a type override are not checked.
func Lint(graph *TypeGraph, doc *mapping.Document) *diagnostic.Diagnostics {
	diags := mapping.Validate(doc)
	if doc == nil {
		return diags
	}

	source := lintRoot(graph, diags, "source", doc.Source)
	target := lintRoot(graph, diags, "target", doc.Target)

	for i := range doc.Rules {
		r := &doc.Rules[i]
		if r.Disabled {
			continue
		}

		if target != nil {
			l := &linter{diags: diags, rule: r.ID, chain: r.To, side: sideTarget, overrides: r.ToOverrides}
			l.walk(target)
		}

		if source != nil && !r.From.Literal && r.From.Chain != "" {
			l := &linter{diags: diags, rule: r.ID, chain: r.From.Chain, side: sideSource, overrides: r.FromOverrides}
			l.walk(source)
		}
	}

	return diags
}

func lintRoot(graph *TypeGraph, diags *diagnostic.Diagnostics, role, name string) *TypeInfo {
	if name == "" {
		return nil
	}

	id, err := ResolveTypeID(graph, name)
	if err != nil {
		diags.AddError("unknown_type", fmt.Sprintf("%s type: %v", role, err), "", "")
		return nil
	}

	t := graph.GetType(id)
	if t.Resolved().Kind != TypeKindStruct {
		diags.AddError("not_a_struct", fmt.Sprintf("%s type %s is a %s, not a struct", role, id, t.Resolved().Kind), "", "")
		return nil
	}

	return t
}

type side int

const (
	sideSource side = iota
	sideTarget
)

// linter walks one chain through the type graph.
type linter struct {
	diags     *diagnostic.Diagnostics
	rule      string
	chain     string
	side      side
	overrides []mapping.Override
}

func (l *linter) override(at int) (mapping.Override, bool) {
	for _, ov := range l.overrides {
		if ov.At == at {
			return ov, true
		}
	}

	return mapping.Override{}, false
}

func (l *linter) errorf(code string, suggestions []string, format string, args ...any) {
	l.diags.Errors = append(l.diags.Errors, diagnostic.Diagnostic{
		Severity:    diagnostic.DiagnosticError,
		Code:        code,
		Message:     fmt.Sprintf(format, args...),
		Rule:        l.rule,
		Path:        l.chain,
		Suggestions: suggestions,
	})
}

func (l *linter) walk(root *TypeInfo) {
	ch, err := chain.Parse(l.chain)
	if err != nil {
		l.diags.AddError("syntax_error", err.Error(), l.rule, l.chain)
		return
	}

	cur := root
	last := ch.Len() - 1

	for i, tok := range ch.Tokens() {
		owner := cur.Resolved()

		switch {
		case owner == nil:
			return
		case owner.Kind == TypeKindInterface:
			l.errorf("interface_field", nil,
				"token %d: cannot select %q through an interface without a type override", i, tok.Name)
			return
		case owner.Kind != TypeKindStruct:
			l.errorf("not_a_struct", nil, "token %d: cannot select %q from %s", i, tok.Name, describe(owner))
			return
		}

		f, ok, ambiguous := lookupField(owner, tok.Name)
		if !ok {
			if ambiguous {
				l.errorf("ambiguous_field", nil, "token %d: field name %q matches more than one field of %s",
					i, tok.Name, describe(owner))
			} else {
				l.errorf("unknown_field", match.Suggest(tok.Name, fieldNames(owner), 3),
					"token %d: %s has no field %q", i, describe(owner), tok.Name)
			}

			return
		}

		ov, hasOverride := l.override(i)
		l.checkAccess(i, cur, f, ov)

		if hasOverride && ov.Type != "" {
			l.diags.AddInfo("unchecked", fmt.Sprintf(
				"token %d: type override %s is checked at compile time; the rest of the chain is not linted", i, ov.Type),
				l.rule, l.chain)

			return
		}

		next, ok := l.descend(i, f, tok, i == last)
		if !ok {
			return
		}

		cur = next
	}
}

// checkAccess reports unexported fields whose accessor or mutator method
// does not exist. Helper overrides name methods of the helper type, which
// the graph does not tie to the spec.
func (l *linter) checkAccess(i int, owner *TypeInfo, f *FieldInfo, ov mapping.Override) {
	if f.Exported || ov.Helper {
		return
	}

	methods := owner
	if !methods.IsNamed() {
		methods = owner.Resolved()
	}

	if l.side == sideSource {
		name := ov.Accessor
		if name == "" {
			name = defaultAccessor(f)
		}

		if !methods.HasMethod(name) {
			l.errorf("missing_accessor", nil, "token %d: unexported field %q needs the accessor %s() on %s",
				i, f.Name, name, describe(methods))
		}

		return
	}

	name := ov.Mutator
	if name == "" {
		name = "Set" + exportName(f.Name)
	}

	if !methods.HasMethod(name) {
		l.errorf("missing_mutator", nil, "token %d: unexported field %q needs the mutator %s() on %s",
			i, f.Name, name, describe(methods))
	}
}

// descend checks the notation of tok against the field type and returns
// the type the next token selects from.
func (l *linter) descend(i int, f *FieldInfo, tok chain.Token, leaf bool) (*TypeInfo, bool) {
	ft := f.Type.Resolved()
	if ft == nil {
		return nil, false
	}

	if ft.Kind == TypeKindInterface && (tok.Bracketed() || !leaf) {
		l.errorf("interface_field", nil,
			"token %d: field %q is an interface; add a concrete type override to descend into it", i, f.Name)
		return nil, false
	}

	switch tok.Role {
	case chain.RoleMember:
		switch {
		case ft.Kind == TypeKindSlice || ft.Kind == TypeKindArray:
			return ft.ElemType, true
		case ft.IsSet():
			return ft.KeyType, true
		}

		l.errorf("notation_mismatch", nil,
			"token %d: collection notation on field %q of type %s; expected an array, slice or set", i, f.Name, describe(ft))

		return nil, false

	case chain.RoleKey, chain.RoleValue:
		if ft.Kind != TypeKindMap {
			l.errorf("notation_mismatch", nil,
				"token %d: map notation on field %q of type %s; expected a map", i, f.Name, describe(ft))
			return nil, false
		}

		if tok.Role == chain.RoleKey {
			return ft.KeyType, true
		}

		return ft.ElemType, true
	}

	if !leaf {
		switch ft.Kind {
		case TypeKindSlice, TypeKindArray, TypeKindMap:
			l.errorf("notation_required", nil,
				"token %d: field %q is a %s; use collection or map notation to descend into it", i, f.Name, ft.Kind)
			return nil, false
		}
	}

	return f.Type, true
}

// lookupField matches name against the fields of st, promoted fields of
// embedded structs included: as written or with its first letter
// upper-cased, then case-insensitively. A shallower field hides deeper
// ones; two case-insensitive matches at the same depth are ambiguous.
func lookupField(st *TypeInfo, name string) (*FieldInfo, bool, bool) {
	level := []*TypeInfo{st}
	seen := map[*TypeInfo]bool{st: true}

	for len(level) > 0 {
		var (
			exact *FieldInfo
			found *FieldInfo
			count int
			next  []*TypeInfo
		)

		for _, t := range level {
			for i := range t.Fields {
				f := &t.Fields[i]

				if f.Embedded {
					if et := f.Type.Resolved(); et != nil && et.Kind == TypeKindStruct && !seen[et] {
						seen[et] = true
						next = append(next, et)
					}

					continue
				}

				if f.Name == name || f.Name == exportName(name) {
					exact = f
				}

				if strings.EqualFold(f.Name, name) {
					found = f
					count++
				}
			}
		}

		switch {
		case exact != nil:
			return exact, true, false
		case count == 1:
			return found, true, false
		case count > 1:
			return nil, false, true
		}

		level = next
	}

	return nil, false, false
}

func fieldNames(st *TypeInfo) []string {
	names := make([]string, 0, len(st.Fields))
	for _, f := range st.Fields {
		if !f.Embedded {
			names = append(names, f.Name)
		}
	}

	return names
}

func defaultAccessor(f *FieldInfo) string {
	name := exportName(f.Name)
	if t := f.Type.Resolved(); t != nil && t.Kind == TypeKindBasic && t.GoType.String() == "bool" {
		return "Is" + name
	}

	return name
}

func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	return string(unicode.ToUpper(r)) + name[size:]
}

func describe(t *TypeInfo) string {
	if t.IsNamed() {
		return t.ID.String()
	}

	return NewTypeStringer().TypeString(t)
}
