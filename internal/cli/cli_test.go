package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shipmentSpec = `version: "1"
namespace: shipments
source: store.Order
target: warehouse.Shipment
rules:
  - copy:
      id: packages
      to: packages[].sku
      from: lines[].sku
  - copy:
      id: catalog
      to: catalog[<K>].sku
      from: items[<K>].code
  - copy:
      id: tags
      to: tags[]
      from:
        values: [a, b]
  - execute:
      id: total
      to: total
      from: lines[].unitPrice
      converter: Sum
`

const brokenSpec = `version: "1"
namespace: broken
source: store.Order
target: warehouse.Shipment
rules:
  - copy:
      id: typo
      to: packages[].sku
      from: lines[].skew
  - copy:
      id: bad
      to: packages[.sku
      from: lines[].sku
`

func writeSpec(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestParseArgs_Success(t *testing.T) {
	cfg, err := ParseArgs([]string{"lint", "--spec", "a.yaml", "--pkg", "./store,./warehouse", "-p", "./extra"})
	require.NoError(t, err)
	assert.Equal(t, CommandLint, cfg.Command)
	assert.Equal(t, "a.yaml", cfg.SpecPath)
	assert.Equal(t, []string{"./store", "./warehouse", "./extra"}, cfg.Packages)

	cfg, err = ParseArgs([]string{"paths", "-p", "./store", "-t", "store.Order"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Depth)

	cfg, err = ParseArgs([]string{"--version"})
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}

func TestParseArgs_RequiresFields(t *testing.T) {
	tests := [][]string{
		nil,
		{"frobnicate"},
		{"check"},
		{"lint", "--spec", "a.yaml"},
		{"paths", "--pkg", "./store"},
		{"paths", "--pkg", "./store", "--type", "store.Order", "--depth", "-1"},
		{"check", "--pkg", "./store"},
	}

	for _, args := range tests {
		_, err := ParseArgs(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestRunner_Check(t *testing.T) {
	var out bytes.Buffer

	err := NewRunner(&out, nil).Run(&Config{Command: CommandCheck, SpecPath: writeSpec(t, shipmentSpec)})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "spec shipments (store.Order -> warehouse.Shipment)")
	assert.Contains(t, text, "packages  copy  packages[].sku <- lines[].sku  collection-aligned/equal")
	assert.Contains(t, text, "catalog  copy  catalog[K].sku <- items[K].code  collection-aligned/equal anchor(source=0, target=0)")
	assert.Contains(t, text, "tags  copy  tags[] <- values(2)  scalar-fan-out")
	assert.Contains(t, text, "total  execute")
}

func TestRunner_CheckErrors(t *testing.T) {
	var out bytes.Buffer

	err := NewRunner(&out, nil).Run(&Config{Command: CommandCheck, SpecPath: writeSpec(t, brokenSpec)})
	require.ErrorIs(t, err, ErrFindings)
	assert.Contains(t, out.String(), "error: rule bad packages[.sku: [syntax_error]")
}

func TestRunner_Lint(t *testing.T) {
	var out bytes.Buffer

	cfg := &Config{
		Command:  CommandLint,
		SpecPath: writeSpec(t, shipmentSpec),
		Packages: []string{"chain-mapper/store", "chain-mapper/warehouse"},
	}
	require.NoError(t, NewRunner(&out, nil).Run(cfg))
	assert.Contains(t, out.String(), "spec shipments: 4 rules, no findings")

	out.Reset()
	cfg.SpecPath = writeSpec(t, brokenSpec)
	require.ErrorIs(t, NewRunner(&out, nil).Run(cfg), ErrFindings)
	assert.Contains(t, out.String(), "[unknown_field]")
	assert.Contains(t, out.String(), "did you mean: [SKU]")
	assert.Contains(t, out.String(), "[syntax_error]")
}

func TestRunner_Paths(t *testing.T) {
	var out bytes.Buffer

	cfg := &Config{
		Command:  CommandPaths,
		Packages: []string{"chain-mapper/store"},
		TypeName: "store.Order",
		Depth:    1,
	}
	require.NoError(t, NewRunner(&out, nil).Run(cfg))
	assert.Contains(t, out.String(), "Lines[].SKU\n")
	assert.Contains(t, out.String(), "Items[K].Code\n")

	cfg.TypeName = "store.OrderStatus"
	require.Error(t, NewRunner(&out, nil).Run(cfg))
}
