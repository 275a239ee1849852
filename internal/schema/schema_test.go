package schema

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-mapper/store"
	"chain-mapper/warehouse"
)

type base struct {
	Code string
}

type tagged struct {
	base

	Label string
	flag  bool
	count int
}

func (t *tagged) IsFlag() bool { return t.flag }

type twins struct {
	Name string
	NAME string
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Register(store.Order{}, &warehouse.Shipment{})

	order := reflect.TypeOf(store.Order{})

	for _, name := range []string{"store.Order", "chain-mapper/store.Order"} {
		got, ok := r.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, order, got, name)
	}

	got, ok := r.Lookup("Shipment")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(warehouse.Shipment{}), got)

	// bare names resolve while they are unique
	r.Register(store.StatusPaid, warehouse.StatusPaid)
	_, ok = r.Lookup("OrderStatus")
	assert.True(t, ok)

	_, ok = r.Lookup("store.Missing")
	assert.False(t, ok)

	assert.Contains(t, r.Names(), "time.Time")
	assert.Contains(t, r.Names(), "store.Order")
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	r.Register(store.Box{}, store.ItemKey{}, store.Stock{})

	tests := []struct {
		expr string
		want reflect.Type
	}{
		{"int64", reflect.TypeOf(int64(0))},
		{"byte", reflect.TypeOf(byte(0))},
		{"any", reflect.TypeOf((*any)(nil)).Elem()},
		{"struct{}", reflect.TypeOf(struct{}{})},
		{"*store.Box", reflect.TypeOf(&store.Box{})},
		{"[]string", reflect.TypeOf([]string(nil))},
		{"[3]int", reflect.TypeOf([3]int{})},
		{"map[store.ItemKey]store.Stock", reflect.TypeOf(map[store.ItemKey]store.Stock(nil))},
		{"map[string][]map[int]bool", reflect.TypeOf(map[string][]map[int]bool(nil))},
		{" time.Duration ", reflect.TypeOf(time.Duration(0))},
	}

	for _, tt := range tests {
		got, err := r.Resolve(tt.expr)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, got, tt.expr)

		back, err := r.Resolve(TypeName(got))
		require.NoError(t, err, tt.expr)
		assert.Equal(t, got, back, tt.expr)
	}

	for _, expr := range []string{"", "nope", "[x]int", "[2int", "map[string", "map[[]int]bool"} {
		_, err := r.Resolve(expr)
		assert.Error(t, err, expr)
	}
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register(store.Order{}, store.Line{})
			_, _ = r.Lookup("store.Line")
		}()
	}
	wg.Wait()

	_, ok := r.Lookup("store.Line")
	assert.True(t, ok)
}

func TestShapes(t *testing.T) {
	assert.True(t, IsSetType(reflect.TypeOf(map[string]struct{}{})))
	assert.True(t, IsSetType(reflect.TypeOf(&map[int]bool{})))
	assert.False(t, IsSetType(reflect.TypeOf(map[string]int{})))

	shape, ok := CollectionShape(reflect.TypeOf([2]string{}))
	assert.True(t, ok)
	assert.Equal(t, ShapeArray, shape)

	shape, ok = CollectionShape(reflect.TypeOf([]int{}))
	assert.True(t, ok)
	assert.Equal(t, ShapeList, shape)

	_, ok = CollectionShape(reflect.TypeOf(map[string]int{}))
	assert.False(t, ok)

	assert.Equal(t, reflect.TypeOf(""), MemberType(reflect.TypeOf(map[string]bool{}), ShapeMember))
	assert.Equal(t, reflect.TypeOf(0), MemberType(reflect.TypeOf(map[string]int{}), ShapeMapValue))
	assert.True(t, IsInterface(reflect.TypeOf((*any)(nil))))
	assert.True(t, ShapeMap.IsContainer())
	assert.True(t, ShapeMapKey.IsMember())
	assert.Equal(t, "collection-element", ShapeMember.String())
	assert.Equal(t, "Shape(99)", Shape(99).String())
}

func TestIntrospector_Field(t *testing.T) {
	in := NewIntrospector(nil, nil)
	owner := reflect.TypeOf(&tagged{})

	f, ok := in.Field(owner, "label")
	require.True(t, ok)
	assert.Equal(t, "Label", f.Name)

	f, ok = in.Field(owner, "code")
	require.True(t, ok, "promoted fields are found")
	assert.Equal(t, []int{0, 0}, f.Index)

	f, ok = in.Field(owner, "COUNT")
	require.True(t, ok)
	assert.Equal(t, "count", f.Name)

	_, ok = in.Field(reflect.TypeOf(twins{}), "nAmE")
	assert.False(t, ok, "two case-insensitive matches are ambiguous")

	f, ok = in.Field(reflect.TypeOf(twins{}), "NAME")
	require.True(t, ok, "an exact name wins")
	assert.Equal(t, "NAME", f.Name)

	_, ok = in.Field(reflect.TypeOf(""), "len")
	assert.False(t, ok)

	// repeated lookups hit the cache
	n := in.Cache().Len()
	_, _ = in.Field(owner, "label")
	assert.Equal(t, n, in.Cache().Len())

	assert.Equal(t, []string{"Code", "Label", "count", "flag"}, in.FieldNames(owner))
}

func TestIntrospector_Defaults(t *testing.T) {
	in := NewIntrospector(nil, nil)
	owner := reflect.TypeOf(tagged{})

	flag, _ := in.Field(owner, "flag")
	count, _ := in.Field(owner, "count")
	label, _ := in.Field(owner, "Label")

	assert.Equal(t, "IsFlag", DefaultAccessor(flag))
	assert.Equal(t, "Count", DefaultAccessor(count))
	assert.Equal(t, "", DefaultAccessor(label))
	assert.Equal(t, "SetCount", DefaultMutator(count))
	assert.Equal(t, "", DefaultMutator(label))

	m, ok := in.Method(owner, "IsFlag")
	require.True(t, ok)
	assert.Equal(t, reflect.PointerTo(owner), m.Type.In(0))

	_, ok = in.Method(owner, "SetFlag")
	assert.False(t, ok)
}
