package service

import (
	"context"

	"duestrack/internal/domain"
	"duestrack/internal/repository"
)

// DirectoryStore is the identity-listing slice of the person repository.
type DirectoryStore interface {
	ListStudents(ctx context.Context) ([]domain.Student, error)
	ListFaculty(ctx context.Context) ([]domain.Faculty, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	ListStudentDueStatus(ctx context.Context) ([]domain.StudentDueStatus, error)
	FindStudent(ctx context.Context, rollNumber string) (*domain.Student, error)
}

// DirectoryService serves the reference listings operator forms need, plus
// the accounts-only overviews.
type DirectoryService struct {
	people DirectoryStore
	dues   DueStore
}

func NewDirectoryService(people DirectoryStore, dues DueStore) *DirectoryService {
	return &DirectoryService{
		people: people,
		dues:   dues,
	}
}

func (s *DirectoryService) Students(ctx context.Context, p domain.Principal) ([]domain.Student, error) {
	if !operatorRole(p.Role) && p.Role != domain.RoleHOD {
		return nil, &domain.AuthorizationError{Reason: ReasonRoleInsufficient}
	}
	return s.people.ListStudents(ctx)
}

func (s *DirectoryService) Faculty(ctx context.Context, p domain.Principal) ([]domain.Faculty, error) {
	if !operatorRole(p.Role) && p.Role != domain.RoleHOD {
		return nil, &domain.AuthorizationError{Reason: ReasonRoleInsufficient}
	}
	return s.people.ListFaculty(ctx)
}

func (s *DirectoryService) Departments(ctx context.Context) ([]domain.Department, error) {
	return s.people.ListDepartments(ctx)
}

// StudentDueStatus is the accounts overview: every student with their
// pending position.
func (s *DirectoryService) StudentDueStatus(ctx context.Context, p domain.Principal) ([]domain.StudentDueStatus, error) {
	if !operatorRole(p.Role) || p.Department != domain.DeptAccounts {
		return nil, &domain.AuthorizationError{Reason: ReasonCrossDepartment}
	}
	return s.people.ListStudentDueStatus(ctx)
}

// StudentDues returns every due of one student, any status, for the
// accounts drill-down.
func (s *DirectoryService) StudentDues(ctx context.Context, p domain.Principal, rollNumber string) ([]domain.Due, error) {
	if !operatorRole(p.Role) || p.Department != domain.DeptAccounts {
		return nil, &domain.AuthorizationError{Reason: ReasonCrossDepartment}
	}

	if _, err := s.people.FindStudent(ctx, rollNumber); err != nil {
		return nil, err
	}

	return s.dues.List(ctx, repository.DuesFilter{PersonID: &rollNumber})
}
