package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snackbox/admin-api/internal/domain/catalog"
)

const productColumns = `p.id, p.name, p.description, p.price, p.promo_price, p.stock,
	p.in_stock, p.category_id, COALESCE(c.name, ''), p.image_urls, p.is_deleted, p.created_at`

const (
	listVisibleSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_deleted = FALSE
		ORDER BY p.created_at DESC`

	listTrashedSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_deleted = TRUE`

	getProductSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`

	insertProductSQL = `INSERT INTO products
		(name, description, price, promo_price, stock, in_stock, category_id, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	updateProductSQL = `UPDATE products SET
		name = $2, description = $3, price = $4, promo_price = $5, stock = $6,
		in_stock = $7, category_id = $8, image_urls = $9
		WHERE id = $1`

	setDeletedSQL = `UPDATE products SET is_deleted = $2 WHERE id = $1`
	setInStockSQL = `UPDATE products SET in_stock = $2 WHERE id = $1`
	deleteSQL     = `DELETE FROM products WHERE id = $1`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// ListVisible returns Active products, newest first, with the category name
// joined in.
func (r *ProductRepository) ListVisible(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listVisibleSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list visible products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListTrashed returns Trashed products in store order.
func (r *ProductRepository) ListTrashed(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listTrashedSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list trashed products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier, any lifecycle state.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// Insert persists a new Active product. The store assigns the id and
// creation timestamp.
func (r *ProductRepository) Insert(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	var id string
	err := r.pool.QueryRow(ctx, insertProductSQL,
		p.Name, p.Description, p.Price, p.PromoPrice, p.Stock,
		p.InStock, p.CategoryID, p.ImageURLs,
	).Scan(&id)
	if err != nil {
		return nil, mapProductErr(err, "insert product")
	}
	return r.GetByID(ctx, id)
}

// Update rewrites the editable fields; is_deleted is not in the set.
func (r *ProductRepository) Update(ctx context.Context, id string, p *catalog.Product) (*catalog.Product, error) {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		id, p.Name, p.Description, p.Price, p.PromoPrice, p.Stock,
		p.InStock, p.CategoryID, p.ImageURLs,
	)
	if err != nil {
		if isMalformedID(err) {
			return nil, catalog.ErrNotFound
		}
		return nil, mapProductErr(err, "update product")
	}
	if tag.RowsAffected() == 0 {
		return nil, catalog.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// SetDeleted flips the lifecycle flag. Writing the current value again is a
// no-op success.
func (r *ProductRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	return r.setFlag(ctx, setDeletedSQL, id, deleted)
}

// SetInStock flips the availability flag only.
func (r *ProductRepository) SetInStock(ctx context.Context, id string, inStock bool) error {
	return r.setFlag(ctx, setInStockSQL, id, inStock)
}

func (r *ProductRepository) setFlag(ctx context.Context, sql, id string, value bool) error {
	tag, err := r.pool.Exec(ctx, sql, id, value)
	if err != nil {
		if isMalformedID(err) {
			return catalog.ErrNotFound
		}
		return errors.Wrapf(err, "update product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes the record permanently. Sale items referencing it keep
// their denormalized copy; the store nulls their product reference.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteSQL, id)
	if err != nil {
		if isMalformedID(err) {
			return catalog.ErrNotFound
		}
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.PromoPrice, &p.Stock,
		&p.InStock, &p.CategoryID, &p.Category, &p.ImageURLs, &p.Deleted, &p.CreatedAt,
	)
	return p, err
}

// mapProductErr translates constraint violations into domain errors.
func mapProductErr(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return catalog.ErrCategoryNotFound
	}
	return errors.Wrap(err, msg)
}

// isMalformedID reports a 22P02 invalid_text_representation error, which is
// what a non-UUID path parameter produces. Treated as not found so a probe
// with a junk id gets a 404, not a 500.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
