package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog: product not found")

type Category struct {
	ID       string
	Name     string
	Slug     string
	IsActive bool
}

// Product is read-mostly catalog data. The cart never freezes its price: the
// effective price is resolved at read time, so a price change retroactively
// changes cart totals.
type Product struct {
	ID            string
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.Decimal
	CategoryID    string
	ImageURL      string
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Category *Category
}

// ResolvedPrice returns the discount price when one is set, else the list price.
func (p *Product) ResolvedPrice() decimal.Decimal {
	if p.DiscountPrice.IsPositive() {
		return p.DiscountPrice
	}
	return p.Price
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Category != nil {
		cat := *p.Category
		clone.Category = &cat
	}
	return &clone
}
