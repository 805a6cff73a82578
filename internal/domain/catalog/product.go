package catalog

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog operations.
var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrNotTrashed is returned when a permanent delete is attempted on a
	// product that has not been soft-deleted first.
	ErrNotTrashed = errors.New("product is not in the trash")

	// ErrCategoryNotFound is returned when a product references a category
	// that does not exist in the store.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDuplicateCategory is returned when a category with the same name
	// already exists. Uniqueness is enforced by the store.
	ErrDuplicateCategory = errors.New("category already exists")
)

// ValidationError reports a field that failed pre-submit validation. It is
// produced before any store or blob call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Product represents one sellable catalog item.
//
// Lifecycle: created Active (Deleted=false), soft-deleted to Trashed
// (Deleted=true, record and assets intact), restored back to Active, or
// permanently destroyed (assets removed, record deleted — an event outcome,
// not a stored state).
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	PromoPrice  decimal.NullDecimal
	Stock       int32
	InStock     bool
	CategoryID  string
	Category    string // joined category name, read-only
	ImageURLs   []string
	Deleted     bool
	CreatedAt   time.Time
}

// EffectivePrice returns the price the shop displays: the promo price when
// one is set and strictly below the regular price, otherwise the regular
// price. A promo price at or above the regular price counts as no discount.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice.Valid && p.PromoPrice.Decimal.LessThan(p.Price) {
		return p.PromoPrice.Decimal
	}
	return p.Price
}

// OnSale reports whether EffectivePrice differs from Price.
func (p Product) OnSale() bool {
	return p.PromoPrice.Valid && p.PromoPrice.Decimal.LessThan(p.Price)
}

// Category is a named product grouping, created ad hoc from the product form.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Repository defines persistence operations for products. Implementations
// own identifier and creation-timestamp assignment.
type Repository interface {
	// ListVisible returns Active products, newest first, category name joined.
	ListVisible(ctx context.Context) ([]Product, error)
	// ListTrashed returns Trashed products in store order.
	ListTrashed(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// Insert persists a new product and returns it with the store-assigned
	// id and creation timestamp.
	Insert(ctx context.Context, p *Product) (*Product, error)
	// Update rewrites the editable fields of an existing product. The
	// deletion flag is not part of the editable set.
	Update(ctx context.Context, id string, p *Product) (*Product, error)
	SetDeleted(ctx context.Context, id string, deleted bool) error
	SetInStock(ctx context.Context, id string, inStock bool) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Insert(ctx context.Context, name string) (*Category, error)
}

// AssetStore is the blob-storage collaborator holding product images.
type AssetStore interface {
	// Upload stores the content under key and returns the stored key.
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
	// PublicURL resolves a stored key to a publicly reachable locator.
	PublicURL(key string) string
	// Remove deletes the given keys. Missing keys are not an error.
	Remove(ctx context.Context, keys []string) error
}
