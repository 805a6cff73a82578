package catalog

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockProductRepo struct {
	mu      sync.Mutex
	byID    map[string]*Product
	nextID  int
	inserts int

	insertErr error
	deleteErr error
}

func newMockProductRepo(products ...Product) *mockProductRepo {
	byID := make(map[string]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func (m *mockProductRepo) ListVisible(context.Context) ([]Product, error) {
	return m.list(false), nil
}

func (m *mockProductRepo) ListTrashed(context.Context) ([]Product, error) {
	return m.list(true), nil
}

func (m *mockProductRepo) list(deleted bool) []Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.byID {
		if p.Deleted == deleted {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Insert(_ context.Context, p *Product) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	cp := *p
	cp.ID = fmt.Sprintf("p-%d", m.nextID)
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockProductRepo) Update(_ context.Context, id string, p *Product) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.ID = id
	cp.Deleted = cur.Deleted
	cp.CreatedAt = cur.CreatedAt
	m.byID[id] = &cp
	out := cp
	return &out, nil
}

func (m *mockProductRepo) SetDeleted(_ context.Context, id string, deleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Deleted = deleted
	return nil
}

func (m *mockProductRepo) SetInStock(_ context.Context, id string, inStock bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.InStock = inStock
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockCategoryRepo struct {
	categories []Category
}

func (m *mockCategoryRepo) List(context.Context) ([]Category, error) {
	return m.categories, nil
}

func (m *mockCategoryRepo) Insert(_ context.Context, name string) (*Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return nil, ErrDuplicateCategory
		}
	}
	c := Category{ID: fmt.Sprintf("c-%d", len(m.categories)+1), Name: name, CreatedAt: time.Now()}
	m.categories = append(m.categories, c)
	return &c, nil
}

type mockAssetStore struct {
	mu       sync.Mutex
	stored   map[string]string // key -> content
	removed  []string
	uploads  int
	failName string // fail uploads whose key contains this filename
	remErr   error
}

func newMockAssetStore() *mockAssetStore {
	return &mockAssetStore{stored: make(map[string]string)}
}

func (m *mockAssetStore) Upload(_ context.Context, key string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	if m.failName != "" && strings.Contains(key, m.failName) {
		return "", errors.New("blob store unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.stored[key] = string(data)
	return key, nil
}

func (m *mockAssetStore) PublicURL(key string) string {
	return "/assets/" + key
}

func (m *mockAssetStore) Remove(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.remErr != nil {
		return m.remErr
	}
	m.removed = append(m.removed, keys...)
	return nil
}

// --- Helpers ---

func newTestService(t *testing.T, products *mockProductRepo, cats *mockCategoryRepo, assets *mockAssetStore) *Service {
	t.Helper()
	svc, err := NewService(products, cats, assets)
	require.NoError(t, err)
	return svc
}

func validInput() ProductInput {
	return ProductInput{
		Name:       "Sea Salt Chips",
		Price:      decimal.RequireFromString("3.50"),
		Stock:      10,
		InStock:    true,
		CategoryID: "c-1",
	}
}

// --- Tests ---

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		field  string
	}{
		{"empty name", func(in *ProductInput) { in.Name = "  " }, "name"},
		{"zero price", func(in *ProductInput) { in.Price = decimal.Zero }, "price"},
		{"negative price", func(in *ProductInput) { in.Price = decimal.NewFromInt(-2) }, "price"},
		{"zero promo price", func(in *ProductInput) {
			in.PromoPrice = decimal.NewNullDecimal(decimal.Zero)
		}, "promo_price"},
		{"negative stock", func(in *ProductInput) { in.Stock = -1 }, "stock"},
		{"missing category", func(in *ProductInput) { in.CategoryID = "" }, "category_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockProductRepo()
			assets := newMockAssetStore()
			svc := newTestService(t, repo, &mockCategoryRepo{}, assets)

			in := validInput()
			in.Uploads = []Upload{{Filename: "a.png", Content: strings.NewReader("img")}}
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			// Validation fires before any store or blob call.
			assert.Zero(t, repo.inserts)
			assert.Zero(t, assets.uploads)
		})
	}
}

func TestCreateUploadsImages(t *testing.T) {
	repo := newMockProductRepo()
	assets := newMockAssetStore()
	svc := newTestService(t, repo, &mockCategoryRepo{}, assets)

	in := validInput()
	in.Uploads = []Upload{
		{Filename: "front.png", Content: strings.NewReader("front-bytes")},
		{Filename: "back.png", Content: strings.NewReader("back-bytes")},
	}

	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, p.ImageURLs, 2)

	// Locators come back in submission order with fresh token-prefixed keys.
	assert.True(t, strings.HasSuffix(p.ImageURLs[0], "-front.png"), p.ImageURLs[0])
	assert.True(t, strings.HasSuffix(p.ImageURLs[1], "-back.png"), p.ImageURLs[1])
	assert.NotEqual(t, p.ImageURLs[0], p.ImageURLs[1])
	assert.Len(t, assets.stored, 2)
	assert.False(t, p.Deleted)
}

func TestCreateUploadFailureAbortsSave(t *testing.T) {
	repo := newMockProductRepo()
	assets := newMockAssetStore()
	assets.failName = "broken.png"
	svc := newTestService(t, repo, &mockCategoryRepo{}, assets)

	in := validInput()
	in.Uploads = []Upload{
		{Filename: "ok.png", Content: strings.NewReader("ok")},
		{Filename: "broken.png", Content: strings.NewReader("nope")},
	}

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Zero(t, repo.inserts, "insert must not run after a failed upload")
}

func TestUpdateMergesRetainedAndUploaded(t *testing.T) {
	repo := newMockProductRepo(Product{
		ID:         "p-1",
		Name:       "Old",
		Price:      decimal.NewFromInt(2),
		CategoryID: "c-1",
		ImageURLs:  []string{"/assets/keep-1.png", "/assets/drop-2.png"},
	})
	assets := newMockAssetStore()
	svc := newTestService(t, repo, &mockCategoryRepo{}, assets)

	in := validInput()
	in.RetainedImages = []string{"/assets/keep-1.png"}
	in.Uploads = []Upload{{Filename: "new.png", Content: strings.NewReader("new")}}

	p, err := svc.Update(context.Background(), "p-1", in)
	require.NoError(t, err)
	require.Len(t, p.ImageURLs, 2)
	assert.Equal(t, "/assets/keep-1.png", p.ImageURLs[0])
	assert.True(t, strings.HasSuffix(p.ImageURLs[1], "-new.png"))

	// Removed locators are not deleted from blob storage on update.
	assert.Empty(t, assets.removed)
}

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService(t, newMockProductRepo(), &mockCategoryRepo{}, newMockAssetStore())

	_, err := svc.Update(context.Background(), "missing", validInput())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	repo := newMockProductRepo(Product{ID: "p-1", Name: "Chips", Price: decimal.NewFromInt(3)})
	svc := newTestService(t, repo, &mockCategoryRepo{}, newMockAssetStore())
	ctx := context.Background()

	require.NoError(t, svc.SoftDelete(ctx, "p-1"))
	// Trashing an already-trashed product is a no-op success.
	require.NoError(t, svc.SoftDelete(ctx, "p-1"))

	trashed, err := svc.ListTrashed(ctx)
	require.NoError(t, err)
	require.Len(t, trashed, 1)

	visible, err := svc.ListVisible(ctx)
	require.NoError(t, err)
	assert.Empty(t, visible)

	require.NoError(t, svc.Restore(ctx, "p-1"))
	require.NoError(t, svc.Restore(ctx, "p-1"))

	visible, err = svc.ListVisible(ctx)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	assert.ErrorIs(t, svc.SoftDelete(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Restore(ctx, "missing"), ErrNotFound)
}

func TestSetAvailability(t *testing.T) {
	repo := newMockProductRepo(Product{ID: "p-1", InStock: true, Stock: 7})
	svc := newTestService(t, repo, &mockCategoryRepo{}, newMockAssetStore())

	require.NoError(t, svc.SetAvailability(context.Background(), "p-1", false))

	p, err := svc.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.False(t, p.InStock)
	assert.Equal(t, int32(7), p.Stock, "stock count is untouched")

	assert.ErrorIs(t, svc.SetAvailability(context.Background(), "missing", true), ErrNotFound)
}

func TestPermanentlyDeleteRequiresTrash(t *testing.T) {
	repo := newMockProductRepo(Product{ID: "p-1", Deleted: false})
	svc := newTestService(t, repo, &mockCategoryRepo{}, newMockAssetStore())

	_, err := svc.PermanentlyDelete(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrNotTrashed)

	_, err = svc.PermanentlyDelete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPermanentlyDeleteRemovesAssets(t *testing.T) {
	repo := newMockProductRepo(Product{
		ID:        "p-1",
		Deleted:   true,
		ImageURLs: []string{"/assets/tok1-a.png", "/assets/tok2-b.png"},
	})
	assets := newMockAssetStore()
	svc := newTestService(t, repo, &mockCategoryRepo{}, assets)

	res, err := svc.PermanentlyDelete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.NoError(t, res.AssetError)

	// Keys are derived from the last locator segment.
	assert.Equal(t, []string{"tok1-a.png", "tok2-b.png"}, assets.removed)

	_, err = svc.Get(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPermanentlyDeleteAssetFailureDoesNotBlock(t *testing.T) {
	repo := newMockProductRepo(Product{
		ID:        "p-1",
		Deleted:   true,
		ImageURLs: []string{"/assets/tok1-a.png"},
	})
	assets := newMockAssetStore()
	assets.remErr = errors.New("bucket gone")
	svc := newTestService(t, repo, &mockCategoryRepo{}, assets)

	res, err := svc.PermanentlyDelete(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Error(t, res.AssetError)

	// The record delete is the commit point; it still ran.
	_, err = svc.Get(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCategory(t *testing.T) {
	cats := &mockCategoryRepo{}
	svc := newTestService(t, newMockProductRepo(), cats, newMockAssetStore())
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, "  Drinks  ")
	require.NoError(t, err)
	assert.Equal(t, "Drinks", c.Name)

	_, err = svc.CreateCategory(ctx, "Drinks")
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	_, err = svc.CreateCategory(ctx, "   ")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestEffectivePrice(t *testing.T) {
	price := decimal.RequireFromString("5.00")

	p := Product{Price: price}
	assert.True(t, p.EffectivePrice().Equal(price))
	assert.False(t, p.OnSale())

	p.PromoPrice = decimal.NewNullDecimal(decimal.RequireFromString("3.50"))
	assert.True(t, p.EffectivePrice().Equal(decimal.RequireFromString("3.50")))
	assert.True(t, p.OnSale())

	// A promo at or above the regular price is not a discount.
	p.PromoPrice = decimal.NewNullDecimal(decimal.RequireFromString("5.00"))
	assert.True(t, p.EffectivePrice().Equal(price))
	assert.False(t, p.OnSale())
}
