package rest

import (
	"net/http"

	"duestrack/internal/transport/auth"
)

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	stats, err := h.stats.Stats(r.Context(), p, r.URL.Query().Get("department"))
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", stats)
}
