package handler

import (
	"net/http"
	"time"

	"github.com/snackbox/admin-api/internal/domain/sales"
)

type saleItemResponse struct {
	ProductID    string `json:"product_id,omitempty"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image,omitempty"`
	Quantity     int32  `json:"quantity"`
	PriceAtSale  string `json:"price_at_sale"`
	LineTotal    string `json:"line_total"`
}

type saleResponse struct {
	ID            string             `json:"id"`
	CustomerName  string             `json:"customer_name"`
	PaymentMethod string             `json:"payment_method"`
	TotalAmount   string             `json:"total_amount"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []saleItemResponse `json:"items"`
}

func toSaleResponse(s *sales.Sale) saleResponse {
	items := make([]saleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = saleItemResponse{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			PriceAtSale:  it.PriceAtSale.String(),
			LineTotal:    it.LineTotal().String(),
		}
	}
	return saleResponse{
		ID:            s.ID,
		CustomerName:  s.CustomerName,
		PaymentMethod: s.PaymentMethod,
		TotalAmount:   s.TotalAmount.String(),
		CreatedAt:     s.CreatedAt,
		Items:         items,
	}
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	list, err := h.sales.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]saleResponse, len(list))
	for i := range list {
		out[i] = toSaleResponse(&list[i])
	}
	respond(w, http.StatusOK, out)
}

type summaryResponse struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Revenue string `json:"revenue"`
}

// salesSummary aggregates the calendar day given by ?date=YYYY-MM-DD,
// defaulting to today. Days are delimited in UTC.
func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	ref := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			respond(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD", Field: "date"})
			return
		}
		ref = parsed
	}

	sum, err := h.sales.SummaryFor(r.Context(), ref, time.UTC)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, summaryResponse{
		Date:    ref.Format(time.DateOnly),
		Count:   sum.Count,
		Revenue: sum.Revenue.String(),
	})
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.sales.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
