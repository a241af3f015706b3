package repository

import (
	"context"
	"database/sql"
	"errors"

	"duestrack/internal/domain"
)

type PersonRepository struct {
	db *sql.DB
}

func NewPersonRepository(db *sql.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) ListStudents(ctx context.Context) ([]domain.Student, error) {
	query := `
		SELECT s.roll_number, s.name, s.department, s.email, s.year
		FROM students s
		ORDER BY s.roll_number
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.RollNumber, &s.Name, &s.Department, &s.Email, &s.Year); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PersonRepository) FindStudent(ctx context.Context, rollNumber string) (*domain.Student, error) {
	query := `SELECT roll_number, name, department, email, year FROM students WHERE roll_number = $1`

	var s domain.Student
	err := r.db.QueryRowContext(ctx, query, rollNumber).Scan(
		&s.RollNumber, &s.Name, &s.Department, &s.Email, &s.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{What: "student"}
		}
		return nil, err
	}
	return &s, nil
}

func (r *PersonRepository) ListFaculty(ctx context.Context) ([]domain.Faculty, error) {
	query := `
		SELECT f.faculty_id, f.name, f.department, f.email
		FROM faculty f
		ORDER BY f.name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Faculty
	for rows.Next() {
		var f domain.Faculty
		if err := rows.Scan(&f.FacultyID, &f.Name, &f.Department, &f.Email); err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PersonRepository) FindFaculty(ctx context.Context, facultyID string) (*domain.Faculty, error) {
	query := `SELECT faculty_id, name, department, email FROM faculty WHERE faculty_id = $1`

	var f domain.Faculty
	err := r.db.QueryRowContext(ctx, query, facultyID).Scan(
		&f.FacultyID, &f.Name, &f.Department, &f.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{What: "faculty"}
		}
		return nil, err
	}
	return &f, nil
}

func (r *PersonRepository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.Name); err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListStudentDueStatus returns every student together with their pending
// dues count and amount, for the accounts overview.
func (r *PersonRepository) ListStudentDueStatus(ctx context.Context) ([]domain.StudentDueStatus, error) {
	query := `
		SELECT
			s.roll_number,
			s.name,
			s.department,
			COUNT(d.id)                   AS pending_count,
			COALESCE(SUM(d.amount), 0)    AS pending_amount
		FROM students s
		LEFT JOIN dues d ON d.person_id = s.roll_number AND d.status = $1
		GROUP BY s.roll_number, s.name, s.department
		ORDER BY s.roll_number
	`

	rows, err := r.db.QueryContext(ctx, query, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StudentDueStatus
	for rows.Next() {
		var st domain.StudentDueStatus
		if err := rows.Scan(&st.RollNumber, &st.Name, &st.Department, &st.PendingCount, &st.PendingAmount); err != nil {
			return nil, err
		}
		result = append(result, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
