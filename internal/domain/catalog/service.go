package catalog

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/go-faster/errors"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// uploadKeyLength is the length of the random token prefixed to uploaded
// file names. 12 characters of the nanoid alphabet keep collisions
// negligible for a single-tenant catalog.
const uploadKeyLength = 12

// Upload is one binary asset submitted with a product form.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProductInput carries the editable fields of a product form submission.
// RetainedImages lists the existing locators the user kept in the draft;
// anything removed from the draft stays in blob storage untouched.
type ProductInput struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	PromoPrice     decimal.NullDecimal
	Stock          int32
	InStock        bool
	CategoryID     string
	RetainedImages []string
	Uploads        []Upload
}

// PurgeResult reports the outcome of a permanent delete. Record deletion is
// the commit point; AssetError carries a non-blocking asset cleanup failure.
type PurgeResult struct {
	AssetError error
}

// Service is the product lifecycle manager. It coordinates record updates
// with asset uploads and cleanup, and owns the validation and visibility
// rules consumed by the listing views. It holds no durable state.
type Service struct {
	products   Repository
	categories CategoryRepository
	assets     AssetStore
	newToken   func() string
}

// NewService creates the lifecycle manager with its store collaborators.
func NewService(products Repository, categories CategoryRepository, assets AssetStore) (*Service, error) {
	gen, err := nanoid.Standard(uploadKeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "create upload key generator")
	}
	return &Service{
		products:   products,
		categories: categories,
		assets:     assets,
		newToken:   gen,
	}, nil
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !in.Price.IsPositive() {
		return &ValidationError{Field: "price", Message: "price must be greater than 0"}
	}
	if in.PromoPrice.Valid && !in.PromoPrice.Decimal.IsPositive() {
		return &ValidationError{Field: "promo_price", Message: "promo price must be greater than 0"}
	}
	if in.Stock < 0 {
		return &ValidationError{Field: "stock", Message: "stock cannot be negative"}
	}
	if in.CategoryID == "" {
		return &ValidationError{Field: "category_id", Message: "category is required"}
	}
	return nil
}

// Create validates the input, uploads any submitted images, and inserts the
// record as Active. Validation failures are reported before any store or
// blob call. An upload failure aborts the save before the insert; blobs
// uploaded by the failed batch are not cleaned up.
func (s *Service) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	urls, err := s.uploadAll(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	p := &Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		PromoPrice:  in.PromoPrice,
		Stock:       in.Stock,
		InStock:     in.InStock,
		CategoryID:  in.CategoryID,
		ImageURLs:   urls,
	}

	created, err := s.products.Insert(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	return created, nil
}

// Update validates the input, uploads newly submitted images, and rewrites
// the record. The final locator list is the retained existing locators
// followed by the newly uploaded ones, order preserved. The deletion flag is
// not alterable through this path, so both Active and Trashed products keep
// their state.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadAll(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(in.RetainedImages)+len(uploaded))
	urls = append(urls, in.RetainedImages...)
	urls = append(urls, uploaded...)

	p := &Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		PromoPrice:  in.PromoPrice,
		Stock:       in.Stock,
		InStock:     in.InStock,
		CategoryID:  in.CategoryID,
		ImageURLs:   urls,
	}

	updated, err := s.products.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// uploadAll uploads the batch concurrently, each blob under a fresh
// token-prefixed key, and returns the public locators in submission order.
// Any failure aborts the whole batch.
func (s *Service) uploadAll(ctx context.Context, uploads []Upload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	urls := make([]string, len(uploads))
	g, ctx := errgroup.WithContext(ctx)
	for i, up := range uploads {
		g.Go(func() error {
			key := s.newToken() + "-" + path.Base(up.Filename)
			stored, err := s.assets.Upload(ctx, key, up.Content)
			if err != nil {
				return errors.Wrapf(err, "upload image %q", up.Filename)
			}
			urls[i] = s.assets.PublicURL(stored)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// SoftDelete moves an Active product to the trash. Repeating it on an
// already-trashed product is a no-op success.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	return s.products.SetDeleted(ctx, id, true)
}

// Restore moves a Trashed product back to Active. Repeating it on an
// already-active product is a no-op success.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.products.SetDeleted(ctx, id, false)
}

// SetAvailability flips the in_stock flag only. Stock count and lifecycle
// state are untouched.
func (s *Service) SetAvailability(ctx context.Context, id string, inStock bool) error {
	return s.products.SetInStock(ctx, id, inStock)
}

// PermanentlyDelete destroys a Trashed product. Asset removal runs first and
// is best effort: a failure is recorded on the result but never blocks the
// record delete, which is the commit point. Orphaned blobs are swept out of
// band.
func (s *Service) PermanentlyDelete(ctx context.Context, id string) (*PurgeResult, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Deleted {
		return nil, ErrNotTrashed
	}

	res := &PurgeResult{}
	if len(p.ImageURLs) > 0 {
		keys := make([]string, len(p.ImageURLs))
		for i, u := range p.ImageURLs {
			keys[i] = assetKey(u)
		}
		if err := s.assets.Remove(ctx, keys); err != nil {
			res.AssetError = err
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return nil, errors.Wrap(err, "delete product record")
	}
	return res, nil
}

// ListVisible returns the Active products for the main catalog view, newest
// first. Each call is an independent fetch.
func (s *Service) ListVisible(ctx context.Context) ([]Product, error) {
	products, err := s.products.ListVisible(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list visible products")
	}
	return products, nil
}

// ListTrashed returns the Trashed products for the trash view.
func (s *Service) ListTrashed(ctx context.Context) ([]Product, error) {
	products, err := s.products.ListTrashed(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list trashed products")
	}
	return products, nil
}

// Get returns a single product by id regardless of lifecycle state, for the
// edit form.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

// ListCategories returns all categories for the product form.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return cats, nil
}

// CreateCategory creates a category ad hoc from the product form. Name
// uniqueness is enforced by the store.
func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	return s.categories.Insert(ctx, name)
}

// assetKey derives the blob key from a public locator: the last path
// segment, matching how keys are minted on upload.
func assetKey(url string) string {
	return path.Base(url)
}
