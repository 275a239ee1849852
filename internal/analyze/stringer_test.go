package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypePath(t *testing.T) {
	// Simple path
	p1 := NewTypePath("Order")
	assert.Equal(t, "Order", p1.String())

	// Field path
	p2 := p1.Field("Lines")
	assert.Equal(t, "Order.Lines", p2.String())

	// Slice path
	p3 := p2.Slice()
	assert.Equal(t, "Order.Lines[]", p3.String())

	// Field in slice element
	p4 := p3.Field("SKU")
	assert.Equal(t, "Order.Lines[].SKU", p4.String())

	// Map roles
	items := p1.Field("Items")
	assert.Equal(t, "Order.Items[K].Code", items.Key().Field("Code").String())
	assert.Equal(t, "Order.Items[V].Bin", items.Value().Field("Bin").String())

	// Rootless paths read like chains
	assert.Equal(t, "lines[].sku", NewTypePath("").Field("lines").Slice().Field("sku").String())
}

func TestTypeStringer_TypeString(t *testing.T) {
	graph := loadFixtures(t)
	stringer := NewTypeStringer()

	order := graph.GetType(TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)
	assert.Equal(t, "Order", stringer.TypeString(order))

	assert.Equal(t, "[]Line", stringer.TypeString(fieldOf(t, order, "Lines").Type))
	assert.Equal(t, "map[ItemKey]Stock", stringer.TypeString(fieldOf(t, order, "Items").Type))
	assert.Equal(t, "map[string]int64", stringer.TypeString(fieldOf(t, order, "Prices").Type))
	assert.Equal(t, "*Customer", stringer.TypeString(fieldOf(t, order, "Customer").Type))
	assert.Equal(t, "any", stringer.TypeString(fieldOf(t, order, "Payload").Type))

	status := graph.GetType(TypeID{PkgPath: storePkg, Name: "OrderStatus"})
	require.NotNil(t, status)
	assert.Equal(t, "OrderStatus", stringer.TypeString(status))

	shipment := graph.GetType(TypeID{PkgPath: warehousePkg, Name: "Shipment"})
	require.NotNil(t, shipment)
	assert.Equal(t, "[2]string", stringer.TypeString(fieldOf(t, shipment, "Slots").Type))
	assert.Equal(t, "time.Time", stringer.TypeString(fieldOf(t, shipment, "Received").Type))
}

func TestTypeStringer_FieldPath(t *testing.T) {
	stringer := NewTypeStringer()

	assert.Equal(t, "Order.ID", stringer.FieldPath("Order", "ID"))
	assert.Equal(t, "Order.Lines.SKU", stringer.FieldPath("Order", "Lines", "SKU"))
}

func TestTypeStringer_BuildFieldPaths(t *testing.T) {
	graph := loadFixtures(t)
	stringer := NewTypeStringer()

	order := graph.GetType(TypeID{PkgPath: storePkg, Name: "Order"})
	require.NotNil(t, order)

	paths := stringer.BuildFieldPaths(order, 2)

	// Check direct fields
	assert.Contains(t, paths, "Order.ID")
	assert.Contains(t, paths, "Order.Status")
	assert.Contains(t, paths, "Order.Lines")
	assert.Contains(t, paths, "Order.note")

	// Nested fields through slices, maps and pointers
	assert.Contains(t, paths, "Order.Lines[].SKU")
	assert.Contains(t, paths, "Order.Items[K].Code")
	assert.Contains(t, paths, "Order.Items[V].Bin")
	assert.Contains(t, paths, "Order.Customer.Email")
	assert.Contains(t, paths, "Order.Batches[].Lines[].Qty")

	// Depth limit
	shallow := stringer.BuildFieldPaths(order, 0)
	assert.Contains(t, shallow, "Order.Lines")
	assert.NotContains(t, shallow, "Order.Lines[].SKU")
}

func TestTypeStringer_ChainPaths(t *testing.T) {
	graph := loadFixtures(t)
	stringer := NewTypeStringer()

	shipment := graph.GetType(TypeID{PkgPath: warehousePkg, Name: "Shipment"})
	require.NotNil(t, shipment)

	paths := stringer.ChainPaths(shipment, 3)
	assert.Contains(t, paths, "Pallets[].Crates[].SKU")
	assert.Contains(t, paths, "Catalog[K].SKU")
	assert.Contains(t, paths, "Contact.Email")
	assert.IsIncreasing(t, paths)

	assert.Nil(t, stringer.ChainPaths(nil, 1))
}

func TestTypeStringer_NilType(t *testing.T) {
	stringer := NewTypeStringer()
	assert.Equal(t, "<nil>", stringer.TypeString(nil))
}
