package mapping

import (
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverterRegistry(t *testing.T) {
	r := NewConverterRegistry()

	require.NoError(t, r.Register("Sum", func(xs []int) int {
		total := 0
		for _, x := range xs {
			total += x
		}

		return total
	}))
	require.NoError(t, r.Register("Atoi", strconv.Atoi))

	assert.True(t, r.Has("Sum"))
	assert.False(t, r.Has("Nope"))
	assert.Nil(t, r.Get("Nope"))
	assert.Equal(t, []string{"Atoi", "Sum"}, r.Names())

	sum := r.Get("Sum")
	assert.Equal(t, "Sum", sum.Name())
	assert.Equal(t, reflect.TypeOf([]int(nil)), sum.In())
	assert.Equal(t, reflect.TypeOf(0), sum.Out())
	assert.Equal(t, "func([]int) int", sum.Signature())

	out, err := sum.Run(reflect.ValueOf([]int{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, 6, out.Interface())

	out, err = sum.Run(reflect.Value{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Interface(), "a missing value is the zero argument")

	_, err = sum.Run(reflect.ValueOf("x"))
	assert.ErrorContains(t, err, "takes []int")

	atoi := r.Get("Atoi")

	out, err = atoi.Run(reflect.ValueOf("42"))
	require.NoError(t, err)
	assert.Equal(t, 42, out.Interface())

	_, err = atoi.Run(reflect.ValueOf("x"))
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestConverterRegistry_Rejects(t *testing.T) {
	r := NewConverterRegistry()

	tests := []struct {
		name string
		fn   any
		msg  string
	}{
		{"not a function", 42, "expected a function"},
		{"nil function", (func(int) int)(nil), "expected a function"},
		{"two arguments", func(a, b int) int { return a + b }, "exactly one argument"},
		{"variadic", func(a ...int) int { return len(a) }, "exactly one argument"},
		{"no result", func(int) {}, "must return"},
		{"error only", func(int) error { return nil }, "must return"},
		{"second result not error", func(int) (int, int) { return 0, 0 }, "must return"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.name, tt.fn)
			assert.ErrorContains(t, err, tt.msg)
		})
	}

	require.NoError(t, r.Register("Len", func(s string) int { return len(s) }))
	assert.ErrorContains(t, r.Register("Len", func(s string) int { return 0 }), "already registered")
	assert.ErrorContains(t, r.Register("", func(s string) int { return 0 }), "name is empty")
}
