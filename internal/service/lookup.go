package service

import (
	"context"
	"errors"

	"duestrack/internal/domain"
	"duestrack/internal/repository"
)

// PersonStore resolves people and the department list from the identity
// tables.
type PersonStore interface {
	FindStudent(ctx context.Context, rollNumber string) (*domain.Student, error)
	FindFaculty(ctx context.Context, facultyID string) (*domain.Faculty, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
}

type DepartmentDues struct {
	Department string       `json:"department"`
	Dues       []domain.Due `json:"dues"`
}

type PersonDues struct {
	PersonName     string            `json:"person_name"`
	PersonType     domain.PersonType `json:"person_type"`
	DepartmentDues []DepartmentDues  `json:"department_dues"`
}

// LookupService is the public read-only projection: a person's pending
// dues grouped by department.
type LookupService struct {
	people PersonStore
	dues   DueStore
}

func NewLookupService(people PersonStore, dues DueStore) *LookupService {
	return &LookupService{
		people: people,
		dues:   dues,
	}
}

// DuesFor resolves personID against students first, then faculty, and
// groups that person's pending dues by department. Every known department
// appears in the result, empty or not, so callers can render the full
// clearance checklist.
func (s *LookupService) DuesFor(ctx context.Context, personID string) (*PersonDues, error) {
	var (
		name       string
		personType domain.PersonType
	)

	student, err := s.people.FindStudent(ctx, personID)
	switch {
	case err == nil:
		name = student.Name
		personType = domain.PersonStudent
	case isNotFound(err):
		faculty, ferr := s.people.FindFaculty(ctx, personID)
		if ferr != nil {
			if isNotFound(ferr) {
				return nil, &domain.NotFoundError{What: "person"}
			}
			return nil, ferr
		}
		name = faculty.Name
		personType = domain.PersonFaculty
	default:
		return nil, err
	}

	departments, err := s.people.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}

	pending := domain.StatusPending
	dues, err := s.dues.List(ctx, repository.DuesFilter{
		PersonID: &personID,
		Status:   &pending,
	})
	if err != nil {
		return nil, err
	}

	grouped := make([]DepartmentDues, 0, len(departments))
	for _, dept := range departments {
		entry := DepartmentDues{Department: dept.Name, Dues: []domain.Due{}}
		for _, d := range dues {
			if d.Department == dept.Name {
				entry.Dues = append(entry.Dues, d)
			}
		}
		grouped = append(grouped, entry)
	}

	return &PersonDues{
		PersonName:     name,
		PersonType:     personType,
		DepartmentDues: grouped,
	}, nil
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}
