package handler

import "net/http"

// Routes returns the API mux. Everything except the auth endpoints sits
// behind the session gate.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)

	mux.HandleFunc("GET /api/products", h.protected(h.listProducts))
	mux.HandleFunc("POST /api/products", h.protected(h.createProduct))
	mux.HandleFunc("GET /api/products/trash", h.protected(h.listTrash))
	mux.HandleFunc("GET /api/products/{id}", h.protected(h.getProduct))
	mux.HandleFunc("PUT /api/products/{id}", h.protected(h.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", h.protected(h.purgeProduct))
	mux.HandleFunc("POST /api/products/{id}/trash", h.protected(h.trashProduct))
	mux.HandleFunc("POST /api/products/{id}/restore", h.protected(h.restoreProduct))
	mux.HandleFunc("PATCH /api/products/{id}/availability", h.protected(h.setAvailability))

	mux.HandleFunc("GET /api/categories", h.protected(h.listCategories))
	mux.HandleFunc("POST /api/categories", h.protected(h.createCategory))

	mux.HandleFunc("GET /api/sales", h.protected(h.listSales))
	mux.HandleFunc("GET /api/sales/summary", h.protected(h.salesSummary))
	mux.HandleFunc("DELETE /api/sales/{id}", h.protected(h.deleteSale))

	return mux
}

// protected rejects requests without a live session cookie.
func (h *Handler) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(h.cookie.Name)
		if err != nil {
			respond(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		if _, err := h.sessions.Verify(r.Context(), c.Value); err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r)
	}
}
