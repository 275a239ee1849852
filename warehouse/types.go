// Package warehouse holds the target schema used by the mapper tests and
// the sample specs: the shipment the warehouse prepares for an order.
package warehouse

import "time"

// Status mirrors the order states the warehouse tracks.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

type Shipment struct {
	Name     string
	Status   Status
	Received time.Time
	Tags     []string
	Packages []Package
	Catalog  map[CatalogKey]Entry
	Prices   map[string]int64
	Pallets  []Pallet
	Contents []string
	Total    int64
	First    Package
	Contact  Contact
	Slots    [2]string

	memo string
}

func (s *Shipment) Memo() string     { return s.memo }
func (s *Shipment) SetMemo(m string) { s.memo = m }

type Package struct {
	SKU string
	Qty int
}

type CatalogKey struct {
	SKU string
}

type Entry struct {
	Count int
	Bin   string
}

type Pallet struct {
	Label  string
	Crates []Crate
}

type Crate struct {
	SKU string
}

type Contact struct {
	Email string
}
