package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/snackbox/admin-api/internal/domain/catalog"
)

type categoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryResponse(c *catalog.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, len(cats))
	for i := range cats {
		out[i] = toCategoryResponse(&cats[i])
	}
	respond(w, http.StatusOK, out)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toCategoryResponse(c))
}
