package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"duestrack/internal/domain"
	"duestrack/internal/repository"

	"github.com/google/uuid"
)

// DueStore is the slice of the dues repository the lifecycle needs.
type DueStore interface {
	Insert(ctx context.Context, d *domain.Due) error
	GetByID(ctx context.Context, id string) (*domain.Due, error)
	List(ctx context.Context, f repository.DuesFilter) ([]domain.Due, error)
	ConfirmPayment(ctx context.Context, id string) (*domain.Due, error)
	Clear(ctx context.Context, id string, clearDate time.Time) (*domain.Due, error)
	PendingAmount(ctx context.Context, department *string) (float64, error)
}

// Notifier pushes dues events to department dashboards. Nil-safe on the
// client side, so tests pass nil.
type Notifier interface {
	NotifyPaymentConfirmed(ctx context.Context, due *domain.Due) error
	NotifyDueCleared(ctx context.Context, due *domain.Due) error
	NotifyBulkImported(ctx context.Context, department string, imported, skipped int) error
}

// StatsInvalidator drops cached stats snapshots after a mutation.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context, department string)
}

type DueService struct {
	store       DueStore
	notifier    Notifier
	invalidator StatsInvalidator
	now         func() time.Time
}

func NewDueService(store DueStore, notifier Notifier, invalidator StatsInvalidator) *DueService {
	return &DueService{
		store:       store,
		notifier:    notifier,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// CreateDueRequest carries the fields an operator supplies when raising a
// due. Status, payment status, clear date and date added are never caller
// input.
type CreateDueRequest struct {
	PersonID    string
	PersonName  string
	PersonType  domain.PersonType
	Department  string
	Description string
	Amount      float64
	DueDate     time.Time
	Category    domain.Category
	DueType     domain.DueType
	Link        string
}

// atMidnightUTC drops any time-of-day component; persisted dates are
// calendar dates only.
func atMidnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newDueID() string {
	return uuid.NewString()
}

func (r *CreateDueRequest) validate() error {
	if strings.TrimSpace(r.PersonID) == "" {
		return &domain.ValidationError{Field: "person_id", Message: "required"}
	}
	if strings.TrimSpace(r.PersonName) == "" {
		return &domain.ValidationError{Field: "person_name", Message: "required"}
	}
	if !r.PersonType.Valid() {
		return &domain.ValidationError{Field: "person_type", Message: "must be Student or Faculty"}
	}
	if strings.TrimSpace(r.Department) == "" {
		return &domain.ValidationError{Field: "department", Message: "required"}
	}
	if strings.TrimSpace(r.Description) == "" {
		return &domain.ValidationError{Field: "description", Message: "required"}
	}
	if r.Amount < 0 {
		return &domain.ValidationError{Field: "amount", Message: "must not be negative"}
	}
	if r.DueDate.IsZero() {
		return &domain.ValidationError{Field: "due_date", Message: "required"}
	}
	if !r.Category.Valid() {
		return &domain.ValidationError{Field: "category", Message: "must be payable or non-payable"}
	}
	if !domain.ValidDueType(r.PersonType, r.DueType) {
		return &domain.ValidationError{
			Field:   "due_type",
			Message: fmt.Sprintf("%q is not a valid due type for %s", r.DueType, r.PersonType),
		}
	}
	return nil
}

// Create raises a single due in the operator's department. New dues always
// start pending with payment outstanding.
func (s *DueService) Create(ctx context.Context, p domain.Principal, req CreateDueRequest) (*domain.Due, error) {
	if d := CanPerform(p, ActionCreateDue, nil); !d.Allowed {
		return nil, &domain.AuthorizationError{Reason: d.Reason}
	}

	if req.Department == "" {
		req.Department = p.Department
	}
	if req.Category == "" {
		req.Category = domain.CategoryPayable
	}

	if err := req.validate(); err != nil {
		return nil, err
	}

	due := &domain.Due{
		ID:            newDueID(),
		PersonID:      req.PersonID,
		PersonName:    req.PersonName,
		PersonType:    req.PersonType,
		Department:    req.Department,
		Description:   req.Description,
		Amount:        req.Amount,
		DueDate:       atMidnightUTC(req.DueDate),
		Category:      req.Category,
		DueType:       req.DueType,
		Link:          req.Link,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentDue,
		ClearDate:     nil,
		DateAdded:     atMidnightUTC(s.now()),
	}

	if err := s.store.Insert(ctx, due); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx, due.Department)

	return due, nil
}

// ConfirmPayment marks money received for a payable due. Re-confirming an
// already confirmed payment is a harmless no-op; the second return value
// reports whether this call was such a repeat.
func (s *DueService) ConfirmPayment(ctx context.Context, p domain.Principal, id string) (*domain.Due, bool, error) {
	due, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if d := CanPerform(p, ActionConfirmPayment, due); !d.Allowed {
		return nil, false, &domain.AuthorizationError{Reason: d.Reason}
	}

	if !due.Payable() {
		return nil, false, &domain.PreconditionError{Message: "due is non-payable, payment confirmation does not apply"}
	}
	if due.Status != domain.StatusPending {
		return nil, false, &domain.PreconditionError{Message: "due is already cleared"}
	}
	if due.PaymentStatus == domain.PaymentDone {
		return due, true, nil
	}

	updated, err := s.store.ConfirmPayment(ctx, id)
	if err != nil {
		if err == repository.ErrNoRowUpdated {
			// Lost a race: someone confirmed or cleared it between our read
			// and the conditional update.
			current, gerr := s.store.GetByID(ctx, id)
			if gerr != nil {
				return nil, false, gerr
			}
			if current.PaymentStatus == domain.PaymentDone && current.Status == domain.StatusPending {
				return current, true, nil
			}
			return nil, false, &domain.PreconditionError{Message: "due is no longer pending payment"}
		}
		return nil, false, err
	}

	if s.notifier != nil {
		if nerr := s.notifier.NotifyPaymentConfirmed(ctx, updated); nerr != nil {
			log.Printf("[DUES] payment notify error: %v", nerr)
		}
	}
	s.invalidateStats(ctx, updated.Department)

	return updated, false, nil
}

// ClearDue finalizes a due for its owning department. The payment guard for
// payable dues is enforced here and again inside the conditional update, so
// an untrusted caller cannot clear around it and a racing clear fails
// instead of stamping clear_date twice.
func (s *DueService) ClearDue(ctx context.Context, p domain.Principal, id string) (*domain.Due, error) {
	due, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := CanPerform(p, ActionClearDue, due); !d.Allowed {
		return nil, &domain.AuthorizationError{Reason: d.Reason}
	}

	if due.Status != domain.StatusPending {
		return nil, &domain.PreconditionError{Message: "due is already cleared"}
	}
	if !due.Clearable() {
		return nil, &domain.PreconditionError{Message: "payment must be confirmed by accounts before clearing"}
	}

	updated, err := s.store.Clear(ctx, id, atMidnightUTC(s.now()))
	if err != nil {
		if err == repository.ErrNoRowUpdated {
			return nil, &domain.PreconditionError{Message: "due is no longer clearable"}
		}
		return nil, err
	}

	if s.notifier != nil {
		if nerr := s.notifier.NotifyDueCleared(ctx, updated); nerr != nil {
			log.Printf("[DUES] clear notify error: %v", nerr)
		}
	}
	s.invalidateStats(ctx, updated.Department)

	return updated, nil
}

// List returns dues under the caller's read scope: cross-department readers
// may filter freely, everyone else is pinned to their own department.
func (s *DueService) List(ctx context.Context, p domain.Principal, f repository.DuesFilter) ([]domain.Due, error) {
	if f.Department != nil {
		if !CanReadDepartment(p, *f.Department) {
			return nil, &domain.AuthorizationError{Reason: ReasonCrossDepartment}
		}
	} else if d := CanPerform(p, ActionReadAllDues, nil); !d.Allowed {
		dept := p.Department
		f.Department = &dept
	}

	return s.store.List(ctx, f)
}

// PendingTotal returns the outstanding amount for a department (or the
// whole institution with an empty department, cross-department readers only).
func (s *DueService) PendingTotal(ctx context.Context, p domain.Principal, department string) (float64, error) {
	if department == "" {
		if d := CanPerform(p, ActionReadAllDues, nil); !d.Allowed {
			department = p.Department
		}
	} else if !CanReadDepartment(p, department) {
		return 0, &domain.AuthorizationError{Reason: ReasonCrossDepartment}
	}

	var dept *string
	if department != "" {
		dept = &department
	}
	return s.store.PendingAmount(ctx, dept)
}

func (s *DueService) invalidateStats(ctx context.Context, department string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateStats(ctx, department)
	}
}
