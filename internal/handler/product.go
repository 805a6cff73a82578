package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/snackbox/admin-api/internal/domain/catalog"
)

// maxUploadMemory bounds the in-memory part of a multipart product form;
// larger file parts spill to disk.
const maxUploadMemory = 32 << 20

type productResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          string    `json:"price"`
	PromoPrice     *string   `json:"promo_price"`
	EffectivePrice string    `json:"effective_price"`
	OnSale         bool      `json:"on_sale"`
	Stock          int32     `json:"stock"`
	InStock        bool      `json:"in_stock"`
	CategoryID     string    `json:"category_id"`
	Category       string    `json:"category"`
	Images         []string  `json:"images"`
	Deleted        bool      `json:"deleted"`
	CreatedAt      time.Time `json:"created_at"`
}

func toProductResponse(p *catalog.Product) productResponse {
	resp := productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price.String(),
		EffectivePrice: p.EffectivePrice().String(),
		OnSale:         p.OnSale(),
		Stock:          p.Stock,
		InStock:        p.InStock,
		CategoryID:     p.CategoryID,
		Category:       p.Category,
		Images:         p.ImageURLs,
		Deleted:        p.Deleted,
		CreatedAt:      p.CreatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if p.PromoPrice.Valid {
		s := p.PromoPrice.Decimal.String()
		resp.PromoPrice = &s
	}
	return resp
}

func toProductList(products []catalog.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}
	return out
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListVisible(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductList(products))
}

func (h *Handler) listTrash(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListTrashed(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductList(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := parseProductForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer cleanup()

	p, err := h.catalog.Create(r.Context(), *input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := parseProductForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer cleanup()

	p, err := h.catalog.Update(r.Context(), r.PathValue("id"), *input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) trashProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.SoftDelete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restoreProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Restore(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	InStock bool `json:"in_stock"`
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	if err := h.catalog.SetAvailability(r.Context(), r.PathValue("id"), req.InStock); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) purgeProduct(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.PermanentlyDelete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.AssetError != nil {
		// The record is gone; report the cleanup failure without failing the
		// request.
		respond(w, http.StatusOK, map[string]string{
			"status":  "deleted",
			"warning": "asset cleanup failed",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseProductForm decodes the multipart product form shared by create and
// update. The returned cleanup closes the opened file parts and must be
// called after the service is done reading them.
func parseProductForm(r *http.Request) (*catalog.ProductInput, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, noop, &catalog.ValidationError{Field: "body", Message: "malformed multipart form"}
	}

	input := &catalog.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		CategoryID:  r.FormValue("category_id"),
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		return nil, noop, &catalog.ValidationError{Field: "price", Message: "price must be a number"}
	}
	input.Price = price

	if raw := r.FormValue("promo_price"); raw != "" {
		promo, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, noop, &catalog.ValidationError{Field: "promo_price", Message: "promo price must be a number"}
		}
		input.PromoPrice = decimal.NewNullDecimal(promo)
	}

	stock, err := strconv.ParseInt(r.FormValue("stock"), 10, 32)
	if err != nil {
		return nil, noop, &catalog.ValidationError{Field: "stock", Message: "stock must be an integer"}
	}
	input.Stock = int32(stock)

	if raw := r.FormValue("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, noop, &catalog.ValidationError{Field: "in_stock", Message: "in_stock must be a boolean"}
		}
		input.InStock = inStock
	}

	input.RetainedImages = r.MultipartForm.Value["retained_images"]

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, noop, &catalog.ValidationError{Field: "images", Message: "unreadable file part"}
		}
		opened = append(opened, f)
		input.Uploads = append(input.Uploads, catalog.Upload{
			Filename: fh.Filename,
			Content:  f,
		})
	}
	return input, cleanup, nil
}
