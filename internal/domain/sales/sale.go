// Package sales provides read and delete access to the immutable sales
// history plus derived daily aggregates. Sales are never created here; the
// storefront writes them.
package sales

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested sale does not exist.
var ErrNotFound = errors.New("sale not found")

// Sale is one historical transaction.
type Sale struct {
	ID            string
	CustomerName  string
	PaymentMethod string
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
	Items         []SaleItem
}

// SaleItem is one line of a sale. Product name and image are denormalized at
// sale time so the row stays displayable after the product changes or is
// destroyed; ProductID is empty once the product is gone.
type SaleItem struct {
	ProductID    string
	ProductName  string
	ProductImage string
	Quantity     int32
	PriceAtSale  decimal.Decimal
}

// LineTotal returns PriceAtSale multiplied by Quantity.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Repository defines persistence operations for the sales ledger. Item
// cascade on delete is owned by the store.
type Repository interface {
	// List returns all sales with their items, newest first.
	List(ctx context.Context) ([]Sale, error)
	Delete(ctx context.Context, id string) error
}

// Summary holds the daily aggregate for the dashboard cards.
type Summary struct {
	Count   int
	Revenue decimal.Decimal
}

// DailySummary counts and sums the sales whose CreatedAt falls on the same
// calendar day as ref in loc. The time zone is an explicit parameter rather
// than the ambient locale; callers default to UTC.
func DailySummary(sales []Sale, ref time.Time, loc *time.Location) Summary {
	refY, refM, refD := ref.In(loc).Date()

	sum := Summary{Revenue: decimal.Zero}
	for _, s := range sales {
		y, m, d := s.CreatedAt.In(loc).Date()
		if y == refY && m == refM && d == refD {
			sum.Count++
			sum.Revenue = sum.Revenue.Add(s.TotalAmount)
		}
	}
	return sum
}
