package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Availability enumerates product stock states.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityPreorder  Availability = "preorder"
	AvailabilityExpected  Availability = "expected"
)

// CatalogType enumerates which catalog a product is listed in.
type CatalogType string

const (
	CatalogPreorder CatalogType = "preorder"
	CatalogInstock  CatalogType = "instock"
)

// Product is a catalog item. USD and UAH prices are stored independently;
// the UAH price is optional and the settlement engine falls back to the
// USD price converted at the configured rate.
type Product struct {
	ID           string
	Name         string
	PriceUSD     decimal.Decimal
	PriceUAH     decimal.NullDecimal
	PackSize     int
	Availability Availability
	Promo        bool
	CatalogType  CatalogType
	CountryID    string
	Country      string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
