package rest

import (
	"context"
	"net/http"
	"time"

	"duestrack/internal/domain"
	"duestrack/internal/repository"
	"duestrack/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type DueLifecycle interface {
	Create(ctx context.Context, p domain.Principal, req service.CreateDueRequest) (*domain.Due, error)
	ConfirmPayment(ctx context.Context, p domain.Principal, id string) (*domain.Due, bool, error)
	ClearDue(ctx context.Context, p domain.Principal, id string) (*domain.Due, error)
	List(ctx context.Context, p domain.Principal, f repository.DuesFilter) ([]domain.Due, error)
	PendingTotal(ctx context.Context, p domain.Principal, department string) (float64, error)
}

type BulkIngester interface {
	Ingest(ctx context.Context, p domain.Principal, rows []service.RawRow, ic service.IngestContext) (*service.IngestResult, error)
}

type StatsProvider interface {
	Stats(ctx context.Context, p domain.Principal, department string) (*service.Stats, error)
}

type PublicLookup interface {
	DuesFor(ctx context.Context, personID string) (*service.PersonDues, error)
}

type Directory interface {
	Students(ctx context.Context, p domain.Principal) ([]domain.Student, error)
	Faculty(ctx context.Context, p domain.Principal) ([]domain.Faculty, error)
	Departments(ctx context.Context) ([]domain.Department, error)
	StudentDueStatus(ctx context.Context, p domain.Principal) ([]domain.StudentDueStatus, error)
	StudentDues(ctx context.Context, p domain.Principal, rollNumber string) ([]domain.Due, error)
}

type Handler struct {
	dues      DueLifecycle
	ingest    BulkIngester
	stats     StatsProvider
	lookup    PublicLookup
	directory Directory
}

func NewHandler(dues DueLifecycle, ingest BulkIngester, stats StatsProvider, lookup PublicLookup, directory Directory) *Handler {
	return &Handler{
		dues:      dues,
		ingest:    ingest,
		stats:     stats,
		lookup:    lookup,
		directory: directory,
	}
}

// InitRouter builds the protected route tree. The auth middleware resolves
// the bearer token into a Principal; everything mounted here relies on it.
func (h *Handler) InitRouter(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/dues", func(r chi.Router) {
		r.Post("/", h.createDue)
		r.Post("/bulk", h.bulkCreateDues)
		r.Get("/", h.listDues)
		r.Get("/pending-total", h.pendingTotal)
		r.Get("/sample-template", h.sampleTemplate)
		r.Put("/{id}/payment", h.confirmPayment)
		r.Put("/{id}/clear", h.clearDue)
	})

	r.Get("/stats", h.getStats)

	r.Get("/students", h.listStudents)
	r.Get("/students/due-status", h.studentDueStatus)
	r.Get("/students/{rollNumber}/dues", h.studentDues)
	r.Get("/faculty", h.listFaculty)
	r.Get("/departments", h.listDepartments)

	return r
}

// InitPublicRouter builds the unauthenticated routes: the public dues
// lookup and liveness.
func (h *Handler) InitPublicRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(30*time.Second),
	)

	r.Get("/public/dues/{personId}", h.publicDues)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	return r
}
