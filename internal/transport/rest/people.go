package rest

import (
	"net/http"

	"duestrack/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	students, err := h.directory.Students(r.Context(), p)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", students)
}

func (h *Handler) listFaculty(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	faculty, err := h.directory.Faculty(r.Context(), p)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", faculty)
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.directory.Departments(r.Context())
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", departments)
}

func (h *Handler) studentDueStatus(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	statuses, err := h.directory.StudentDueStatus(r.Context(), p)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", statuses)
}

func (h *Handler) studentDues(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	rollNumber := chi.URLParam(r, "rollNumber")
	dues, err := h.directory.StudentDues(r.Context(), p, rollNumber)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", dues)
}
