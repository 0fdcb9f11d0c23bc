package entity

import "time"

// Warehouse types mirror the product tiers they store.
const (
	WarehouseRawMaterial = "NVL"
	WarehouseSemiProduct = "BTP"
	WarehouseFinished    = "TP"
	WarehouseOther       = "Other"
)

// Warehouse is a physical store for one product tier.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Type      string // NVL, BTP, TP, Other
	Location  string
	CreatedAt time.Time
}

// WarehouseTypeFor maps a product group to the warehouse type that holds its
// produced stock (finished goods to TP, semi-products to BTP).
func WarehouseTypeFor(productGroup string) string {
	if productGroup == GroupSemiProduct {
		return WarehouseSemiProduct
	}
	return WarehouseFinished
}
