package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) publicDues(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personId")
	if personID == "" {
		ErrorBadRequest(w, "personId is required")
		return
	}

	result, err := h.lookup.DuesFor(r.Context(), personID)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", result)
}
