package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snackbox/admin-api/internal/domain/catalog"
)

const (
	listCategoriesSQL = `SELECT id, name, created_at FROM categories ORDER BY name`

	insertCategorySQL = `INSERT INTO categories (name) VALUES ($1)
		RETURNING id, name, created_at`
)

var _ catalog.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements catalog.CategoryRepository backed by
// PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
		return c, err
	})
}

// Insert creates a category. The unique constraint on name surfaces as
// catalog.ErrDuplicateCategory.
func (r *CategoryRepository) Insert(ctx context.Context, name string) (*catalog.Category, error) {
	var c catalog.Category
	err := r.pool.QueryRow(ctx, insertCategorySQL, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, catalog.ErrDuplicateCategory
		}
		return nil, errors.Wrapf(err, "insert category %q", name)
	}
	return &c, nil
}
