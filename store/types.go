// Package store holds the source schema used by the mapper tests and the
// sample specs: an order as the shop front records it.
package store

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Order is a transaction placed by a customer.
type Order struct {
	ID       int64
	FullName string
	Status   OrderStatus
	// PlacedAt is an RFC 3339 timestamp.
	PlacedAt string
	Lines    []Line
	// Items is the stock reserved for the order.
	Items   map[ItemKey]Stock
	Prices  map[string]int64
	Batches []Batch
	// Payload holds a *Box once the order is packed.
	Payload  any
	Customer *Customer

	note string
}

func (o *Order) Note() string     { return o.note }
func (o *Order) SetNote(n string) { o.note = n }

// Line is one product line of an order.
type Line struct {
	SKU       string
	Qty       int
	UnitPrice int64 // cents
}

type ItemKey struct {
	Code string
}

type Stock struct {
	Count int
	Bin   string
}

// Batch groups the lines packed together.
type Batch struct {
	Label string
	Lines []Line
}

type Box struct {
	Lines []Line
}

type Customer struct {
	Name  string
	Email string
}
