package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"duestrack/internal/domain"
	"duestrack/internal/repository"
	"duestrack/internal/service"
	"duestrack/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) createDue(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	req, err := ValidateCreateDueRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	due, err := h.dues.Create(r.Context(), p, req.ToServiceRequest())
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	SuccessCreated(w, "due created", due)
}

// bulkCreateDues accepts either a multipart xlsx upload (field "file") or a
// JSON body with raw rows. Either way the batch is non-transactional: the
// response reports imported and skipped counts with per-row reasons.
func (h *Handler) bulkCreateDues(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var (
		rows []service.RawRow
		ic   service.IngestContext
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 MB
			ErrorBadRequest(w, "invalid multipart form")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			ErrorBadRequest(w, "file is required")
			return
		}
		defer file.Close()

		rows, err = service.ParseWorkbook(file)
		if err != nil {
			ErrorFrom(w, err)
			return
		}

		ic.DefaultPersonType = domain.PersonType(r.FormValue("person_type"))
		ic.DefaultDepartment = r.FormValue("department")
	} else {
		req, err := ValidateBulkDuesRequest(r)
		if err != nil {
			ErrorBadRequest(w, err.Error())
			return
		}
		rows = req.Rows
		ic.DefaultPersonType = domain.PersonType(req.PersonType)
		ic.DefaultDepartment = req.Department
	}

	result, err := h.ingest.Ingest(r.Context(), p, rows, ic)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, fmt.Sprintf("%d imported, %d skipped", result.Imported, result.Skipped), result)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	due, already, err := h.dues.ConfirmPayment(r.Context(), p, id)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	message := "payment confirmed"
	if already {
		message = "payment already confirmed"
	}
	Success(w, message, due)
}

func (h *Handler) clearDue(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	due, err := h.dues.ClearDue(r.Context(), p, id)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "due cleared", due)
}

func (h *Handler) listDues(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var f repository.DuesFilter
	q := r.URL.Query()

	if dept := q.Get("department"); dept != "" {
		f.Department = &dept
	}
	if status := q.Get("status"); status != "" {
		s := domain.Status(status)
		if s != domain.StatusPending && s != domain.StatusCleared {
			ErrorBadRequest(w, "status must be pending or cleared")
			return
		}
		f.Status = &s
	}
	if personID := q.Get("person_id"); personID != "" {
		f.PersonID = &personID
	}
	if pt := q.Get("person_type"); pt != "" {
		personType := domain.PersonType(pt)
		if !personType.Valid() {
			ErrorBadRequest(w, "person_type must be Student or Faculty")
			return
		}
		f.PersonType = &personType
	}

	dues, err := h.dues.List(r.Context(), p, f)
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", dues)
}

func (h *Handler) pendingTotal(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	total, err := h.dues.PendingTotal(r.Context(), p, r.URL.Query().Get("department"))
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	Success(w, "", map[string]interface{}{"pending_amount": total})
}

func (h *Handler) sampleTemplate(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetPrincipal(r.Context()); err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	data, err := service.SampleTemplate()
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	filename := fmt.Sprintf("dues_template_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		ErrorInternal(w, "failed to write template")
	}
}
