package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/snackbox/admin-api/internal/domain/sales"
)

const (
	// One joined query; rows are grouped back into sales in Go. The item
	// columns are NULL for sales without items.
	listSalesSQL = `SELECT s.id, s.customer_name, s.payment_method, s.total_amount, s.created_at,
		i.product_id, i.product_name, i.product_image, i.quantity, i.price_at_sale
		FROM sales s LEFT JOIN sale_items i ON i.sale_id = s.id
		ORDER BY s.created_at DESC, s.id, i.id`

	deleteSaleSQL = `DELETE FROM sales WHERE id = $1`
)

var _ sales.Repository = (*SaleRepository)(nil)

// SaleRepository implements sales.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// List returns all sales with their items, newest first.
func (r *SaleRepository) List(ctx context.Context) ([]sales.Sale, error) {
	rows, err := r.pool.Query(ctx, listSalesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}
	defer rows.Close()

	var out []sales.Sale
	for rows.Next() {
		var (
			s            sales.Sale
			productID    *string
			productName  *string
			productImage *string
			quantity     *int32
			priceAtSale  decimal.NullDecimal
		)
		err := rows.Scan(
			&s.ID, &s.CustomerName, &s.PaymentMethod, &s.TotalAmount, &s.CreatedAt,
			&productID, &productName, &productImage, &quantity, &priceAtSale,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan sale row")
		}

		if len(out) == 0 || out[len(out)-1].ID != s.ID {
			out = append(out, s)
		}

		if quantity == nil {
			continue // sale without items
		}
		item := sales.SaleItem{
			ProductName: deref(productName),
			Quantity:    *quantity,
			PriceAtSale: priceAtSale.Decimal,
		}
		if productID != nil {
			item.ProductID = *productID
		}
		if productImage != nil {
			item.ProductImage = *productImage
		}
		cur := &out[len(out)-1]
		cur.Items = append(cur.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate sales")
	}
	return out, nil
}

// Delete removes a sale; its items cascade in the store.
func (r *SaleRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteSaleSQL, id)
	if err != nil {
		if isMalformedID(err) {
			return sales.ErrNotFound
		}
		return errors.Wrapf(err, "delete sale %q", id)
	}
	if tag.RowsAffected() == 0 {
		return sales.ErrNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
