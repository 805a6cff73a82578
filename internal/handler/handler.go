// Package handler exposes the admin API over HTTP: session endpoints,
// catalog CRUD with multipart image uploads, the trash lifecycle, and the
// sales ledger.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/snackbox/admin-api/internal/domain/catalog"
	"github.com/snackbox/admin-api/internal/domain/sales"
	"github.com/snackbox/admin-api/internal/domain/session"
)

// CookieConfig describes the session cookie issued on login.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Handler holds the services behind the admin API.
type Handler struct {
	catalog  *catalog.Service
	sales    *sales.Service
	sessions *session.Manager
	cookie   CookieConfig
}

// New creates the API handler.
func New(cat *catalog.Service, sl *sales.Service, sm *session.Manager, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "snackbox_session"
	}
	return &Handler{
		catalog:  cat,
		sales:    sl,
		sessions: sm,
		cookie:   cookie,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything unmapped is a
// 500 with the detail kept out of the response body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *catalog.ValidationError
	switch {
	case errors.As(err, &vErr):
		respond(w, http.StatusUnprocessableEntity, errorResponse{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, catalog.ErrCategoryNotFound):
		respond(w, http.StatusUnprocessableEntity, errorResponse{Error: "category does not exist", Field: "category_id"})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, sales.ErrNotFound):
		respond(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, catalog.ErrNotTrashed):
		respond(w, http.StatusConflict, errorResponse{Error: "product must be trashed before permanent deletion"})
	case errors.Is(err, catalog.ErrDuplicateCategory):
		respond(w, http.StatusConflict, errorResponse{Error: "category already exists", Field: "name"})
	case errors.Is(err, session.ErrInvalidCredentials), errors.Is(err, session.ErrInvalidSession):
		respond(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		zctx.From(r.Context()).Error("Internal error", zap.Error(err))
		respond(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
