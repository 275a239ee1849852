package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
namespace: orders.shipment
source: store.Order
target: warehouse.Shipment
helper: warehouse.Helper
rules:
  - copy:
      id: name
      to: name
      from: fullName
  - copy:
      to: tags[]
      from:
        values: [a, b, c]
  - copy:
      to: note
      from: memo
      to_overrides:
        - {at: 0, mutator: WriteNote, helper: true}
      from_overrides:
        - at: 0
          type: "[]string"
  - execute:
      to: total
      from: lines[].qty
      converter: Sum
      module: pricing
      order: [module, converter]
      debug: true
  - copy:
      to: skipped
      from: other
      disabled: true
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "1", doc.Version)
	assert.Equal(t, "orders.shipment", doc.Namespace)
	assert.Equal(t, "orders.shipment", doc.Name, "name defaults to the namespace")
	assert.Equal(t, "store.Order", doc.Source)
	assert.Equal(t, "warehouse.Shipment", doc.Target)
	assert.Equal(t, "warehouse.Helper", doc.Helper)
	require.Len(t, doc.Rules, 5)

	r := doc.Rules[0]
	assert.Equal(t, RuleCopy, r.Kind)
	assert.Equal(t, "name", r.ID)
	assert.Equal(t, Source{Chain: "fullName"}, r.From)

	r = doc.Rules[1]
	assert.Equal(t, "rule1", r.ID)
	assert.Equal(t, Source{Values: []string{"a", "b", "c"}, Literal: true}, r.From)

	r = doc.Rules[2]
	assert.Equal(t, []Override{{At: 0, Mutator: "WriteNote", Helper: true}}, r.ToOverrides)
	assert.Equal(t, []Override{{At: 0, Type: "[]string"}}, r.FromOverrides)

	r = doc.Rules[3]
	assert.True(t, r.IsExecute())
	assert.Equal(t, "Sum", r.Converter)
	assert.Equal(t, "pricing", r.Module)
	assert.Equal(t, []string{StageModule, StageConverter}, r.Stages())
	assert.True(t, r.Debug)

	assert.True(t, doc.Rules[4].Disabled)
	assert.Equal(t, "rule4", doc.Rules[4].ID)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"unknown kind", "rules:\n  - move: {to: a, from: b}\n", "unknown rule kind"},
		{"two kinds", "rules:\n  - copy: {to: a, from: b}\n    execute: {to: a, from: b}\n", "single copy or execute key"},
		{"bad source map", "rules:\n  - copy: {to: a, from: {chain: b}}\n", "expected a chain or a values list"},
		{"source list", "rules:\n  - copy: {to: a, from: [b]}\n", "expected a chain or a values list"},
		{"invalid yaml", "rules: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestStages_DefaultOrder(t *testing.T) {
	r := Rule{Kind: RuleExecute, Converter: "Sum", Module: "pricing"}
	assert.Equal(t, []string{StageConverter, StageModule}, r.Stages())

	r = Rule{Kind: RuleExecute, Module: "pricing"}
	assert.Equal(t, []string{StageModule}, r.Stages())
}

func TestMarshalRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	data, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "execute:")
	assert.Contains(t, string(data), "values:")

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestMarshal_EmptyValues(t *testing.T) {
	doc := &Document{
		Version:   "1",
		Namespace: "ns",
		Name:      "ns",
		Source:    "a.A",
		Target:    "b.B",
		Rules:     []Rule{{ID: "r", To: "tags[]", From: Source{Literal: true}}},
	}

	data, err := Marshal(doc)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, again.Rules[0].From.Literal)
	assert.Empty(t, again.Rules[0].From.Values)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Rules, 5)

	out := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, WriteFile(doc, out))

	again, err := LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, doc, again)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read mapping file")
}
