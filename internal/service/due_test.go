package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"duestrack/internal/domain"
	"duestrack/internal/repository"
)

// fakeDueStore mimics the per-row conditional update semantics of the real
// repository against an in-memory map.
type fakeDueStore struct {
	dues map[string]*domain.Due
}

func newFakeDueStore() *fakeDueStore {
	return &fakeDueStore{dues: make(map[string]*domain.Due)}
}

func (f *fakeDueStore) Insert(ctx context.Context, d *domain.Due) error {
	cp := *d
	f.dues[d.ID] = &cp
	return nil
}

func (f *fakeDueStore) GetByID(ctx context.Context, id string) (*domain.Due, error) {
	d, ok := f.dues[id]
	if !ok {
		return nil, &domain.NotFoundError{What: "due"}
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDueStore) List(ctx context.Context, flt repository.DuesFilter) ([]domain.Due, error) {
	var out []domain.Due
	for _, d := range f.dues {
		if flt.Department != nil && d.Department != *flt.Department {
			continue
		}
		if flt.Status != nil && d.Status != *flt.Status {
			continue
		}
		if flt.PersonID != nil && d.PersonID != *flt.PersonID {
			continue
		}
		if flt.PersonType != nil && d.PersonType != *flt.PersonType {
			continue
		}
		if flt.Category != nil && d.Category != *flt.Category {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDueStore) ConfirmPayment(ctx context.Context, id string) (*domain.Due, error) {
	d, ok := f.dues[id]
	if !ok || d.Category != domain.CategoryPayable ||
		d.Status != domain.StatusPending || d.PaymentStatus != domain.PaymentDue {
		return nil, repository.ErrNoRowUpdated
	}
	d.PaymentStatus = domain.PaymentDone
	cp := *d
	return &cp, nil
}

func (f *fakeDueStore) Clear(ctx context.Context, id string, clearDate time.Time) (*domain.Due, error) {
	d, ok := f.dues[id]
	if !ok || d.Status != domain.StatusPending {
		return nil, repository.ErrNoRowUpdated
	}
	if d.Category != domain.CategoryNonPayable && d.PaymentStatus != domain.PaymentDone {
		return nil, repository.ErrNoRowUpdated
	}
	d.Status = domain.StatusCleared
	d.ClearDate = &clearDate
	cp := *d
	return &cp, nil
}

func (f *fakeDueStore) PendingAmount(ctx context.Context, department *string) (float64, error) {
	var total float64
	for _, d := range f.dues {
		if d.Status != domain.StatusPending {
			continue
		}
		if department != nil && d.Department != *department {
			continue
		}
		total += d.Amount
	}
	return total, nil
}

var (
	libraryOperator  = domain.Principal{OperatorID: 1, Role: domain.RoleDepartmentOperator, Department: "LIBRARY"}
	accountsOperator = domain.Principal{OperatorID: 2, Role: domain.RoleDepartmentOperator, Department: domain.DeptAccounts}
	hostelOperator   = domain.Principal{OperatorID: 3, Role: domain.RoleDepartmentOperator, Department: "HOSTEL"}
)

func mustCreate(t *testing.T, svc *DueService, p domain.Principal, req CreateDueRequest) *domain.Due {
	t.Helper()
	due, err := svc.Create(context.Background(), p, req)
	if err != nil {
		t.Fatalf("create due: %v", err)
	}
	return due
}

func payableRequest() CreateDueRequest {
	return CreateDueRequest{
		PersonID:    "21CS042",
		PersonName:  "R. Iyer",
		PersonType:  domain.PersonStudent,
		Description: "Overdue book fine",
		Amount:      500,
		DueDate:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Category:    domain.CategoryPayable,
		DueType:     "library-fine",
	}
}

func TestCreate_DefaultsAndInitialState(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	due := mustCreate(t, svc, libraryOperator, payableRequest())

	if due.Department != "LIBRARY" {
		t.Errorf("expected department LIBRARY from principal, got %q", due.Department)
	}
	if due.Status != domain.StatusPending {
		t.Errorf("expected pending status, got %q", due.Status)
	}
	if due.PaymentStatus != domain.PaymentDue {
		t.Errorf("expected payment status due, got %q", due.PaymentStatus)
	}
	if due.ClearDate != nil {
		t.Errorf("expected nil clear date, got %v", due.ClearDate)
	}
	if due.ID == "" {
		t.Error("expected generated id")
	}
	if h, m, sec := due.DueDate.Clock(); h != 0 || m != 0 || sec != 0 {
		t.Errorf("expected UTC-midnight due date, got %v", due.DueDate)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	tests := []struct {
		name   string
		mutate func(*CreateDueRequest)
	}{
		{"negative amount", func(r *CreateDueRequest) { r.Amount = -1 }},
		{"missing person id", func(r *CreateDueRequest) { r.PersonID = "" }},
		{"missing description", func(r *CreateDueRequest) { r.Description = "" }},
		{"zero due date", func(r *CreateDueRequest) { r.DueDate = time.Time{} }},
		{"unknown due type", func(r *CreateDueRequest) { r.DueType = "parking-ticket" }},
		{"faculty type on student", func(r *CreateDueRequest) { r.DueType = "salary-deduction" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := payableRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), libraryOperator, req)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestConfirmPayment_HappyPathAndIdempotence(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	due := mustCreate(t, svc, libraryOperator, payableRequest())

	updated, already, err := svc.ConfirmPayment(context.Background(), accountsOperator, due.ID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if already {
		t.Error("first confirmation should not report already-confirmed")
	}
	if updated.PaymentStatus != domain.PaymentDone {
		t.Errorf("expected payment done, got %q", updated.PaymentStatus)
	}
	if updated.Status != domain.StatusPending {
		t.Errorf("confirmation must not clear the due, got status %q", updated.Status)
	}

	// Re-confirming is a no-op, not an error.
	again, already, err := svc.ConfirmPayment(context.Background(), accountsOperator, due.ID)
	if err != nil {
		t.Fatalf("repeat confirm payment: %v", err)
	}
	if !already {
		t.Error("repeat confirmation should report already-confirmed")
	}
	if again.ClearDate != nil || again.Status != domain.StatusPending {
		t.Errorf("repeat confirmation changed state: status=%q clearDate=%v", again.Status, again.ClearDate)
	}
}

func TestConfirmPayment_Denied(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	due := mustCreate(t, svc, libraryOperator, payableRequest())

	// Only accounts confirms payments, even for the owning department.
	_, _, err := svc.ConfirmPayment(context.Background(), libraryOperator, due.ID)
	var aerr *domain.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestConfirmPayment_NonPayable(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	req := payableRequest()
	req.Category = domain.CategoryNonPayable
	due := mustCreate(t, svc, libraryOperator, req)

	// Accounts holds the authority; the due's state is what refuses here.
	_, _, err := svc.ConfirmPayment(context.Background(), accountsOperator, due.ID)
	var perr *domain.PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PreconditionError for non-payable due, got %v", err)
	}
}

func TestClearDue_PayableRequiresPayment(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	due := mustCreate(t, svc, libraryOperator, payableRequest())

	// Clearing before payment confirmation is the one hard gate.
	_, err := svc.ClearDue(context.Background(), libraryOperator, due.ID)
	var perr *domain.PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}

	if _, _, err := svc.ConfirmPayment(context.Background(), accountsOperator, due.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	cleared, err := svc.ClearDue(context.Background(), libraryOperator, due.ID)
	if err != nil {
		t.Fatalf("clear after payment: %v", err)
	}
	if cleared.Status != domain.StatusCleared {
		t.Errorf("expected cleared status, got %q", cleared.Status)
	}
	if cleared.ClearDate == nil {
		t.Fatal("expected clear date to be set")
	}
	if cleared.ClearDate.Before(cleared.DateAdded) {
		t.Errorf("clear date %v before date added %v", cleared.ClearDate, cleared.DateAdded)
	}
}

func TestClearDue_NonPayableClearsDirectly(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	req := payableRequest()
	req.Category = domain.CategoryNonPayable
	due := mustCreate(t, svc, libraryOperator, req)

	cleared, err := svc.ClearDue(context.Background(), libraryOperator, due.ID)
	if err != nil {
		t.Fatalf("clear non-payable: %v", err)
	}
	if cleared.Status != domain.StatusCleared {
		t.Errorf("expected cleared, got %q", cleared.Status)
	}
	// paymentStatus stays at its default; it is not load-bearing here.
	if cleared.PaymentStatus != domain.PaymentDue {
		t.Errorf("expected payment status left at due, got %q", cleared.PaymentStatus)
	}
}

func TestClearDue_AccountsNeverClears(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	// Even a due owned by ACCOUNTS itself.
	req := payableRequest()
	req.Category = domain.CategoryNonPayable
	due, err := svc.Create(context.Background(), accountsOperator, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.ClearDue(context.Background(), accountsOperator, due.ID)
	var aerr *domain.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestClearDue_CrossDepartmentDenied(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	req := payableRequest()
	req.Category = domain.CategoryNonPayable
	due := mustCreate(t, svc, libraryOperator, req)

	_, err := svc.ClearDue(context.Background(), hostelOperator, due.ID)
	var aerr *domain.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestClearDue_AlreadyClearedFails(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	req := payableRequest()
	req.Category = domain.CategoryNonPayable
	due := mustCreate(t, svc, libraryOperator, req)

	if _, err := svc.ClearDue(context.Background(), libraryOperator, due.ID); err != nil {
		t.Fatalf("first clear: %v", err)
	}

	// A retried clear is a correctness bug, not a transient failure.
	_, err := svc.ClearDue(context.Background(), libraryOperator, due.ID)
	var perr *domain.PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PreconditionError on second clear, got %v", err)
	}
}

func TestClearDue_NotFound(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	_, err := svc.ClearDue(context.Background(), libraryOperator, "no-such-id")
	var nerr *domain.NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestList_ScopedToOwnDepartment(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	mustCreate(t, svc, libraryOperator, payableRequest())
	hostelReq := payableRequest()
	hostelReq.DueType = "hostel-dues"
	mustCreate(t, svc, hostelOperator, hostelReq)

	// Plain operator without a filter sees only their department.
	dues, err := svc.List(context.Background(), libraryOperator, repository.DuesFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(dues) != 1 || dues[0].Department != "LIBRARY" {
		t.Fatalf("expected only LIBRARY dues, got %+v", dues)
	}

	// Accounts reads everything.
	all, err := svc.List(context.Background(), accountsOperator, repository.DuesFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 dues for accounts, got %d", len(all))
	}

	// Explicit foreign department filter is denied.
	hostel := "HOSTEL"
	if _, err := svc.List(context.Background(), libraryOperator, repository.DuesFilter{Department: &hostel}); err == nil {
		t.Fatal("expected cross-department list to be denied")
	}
}

func TestLifecycle_FullScenario(t *testing.T) {
	store := newFakeDueStore()
	svc := NewDueService(store, nil, nil)

	due := mustCreate(t, svc, libraryOperator, payableRequest())

	before, err := svc.PendingTotal(context.Background(), libraryOperator, "LIBRARY")
	if err != nil {
		t.Fatalf("pending total: %v", err)
	}
	if before != 500 {
		t.Fatalf("expected pending 500, got %v", before)
	}

	if _, _, err := svc.ConfirmPayment(context.Background(), accountsOperator, due.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.ClearDue(context.Background(), libraryOperator, due.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	after, err := svc.PendingTotal(context.Background(), libraryOperator, "LIBRARY")
	if err != nil {
		t.Fatalf("pending total: %v", err)
	}
	if after != 0 {
		t.Fatalf("expected pending 0 after clearance, got %v", after)
	}
}
