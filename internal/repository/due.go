package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"duestrack/internal/domain"
)

// ErrNoRowUpdated signals that a conditional update matched no row: the due
// either does not exist or is no longer in the state the condition requires.
var ErrNoRowUpdated = errors.New("no row updated")

type DuesFilter struct {
	Department *string
	Status     *domain.Status
	PersonID   *string
	PersonType *domain.PersonType
	Category   *domain.Category
}

type DueRepository struct {
	db *sql.DB
}

func NewDueRepository(db *sql.DB) *DueRepository {
	return &DueRepository{db: db}
}

const dueColumns = `
	d.id,
	d.person_id,
	d.person_name,
	d.person_type,
	d.department,
	d.description,
	d.amount,
	d.due_date,
	d.category,
	d.due_type,
	d.link,
	d.status,
	d.payment_status,
	d.clear_date,
	d.date_added
`

func scanDue(row interface{ Scan(...any) error }) (domain.Due, error) {
	var d domain.Due
	var link sql.NullString
	var clearDate sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.PersonID,
		&d.PersonName,
		&d.PersonType,
		&d.Department,
		&d.Description,
		&d.Amount,
		&d.DueDate,
		&d.Category,
		&d.DueType,
		&link,
		&d.Status,
		&d.PaymentStatus,
		&clearDate,
		&d.DateAdded,
	)
	if err != nil {
		return domain.Due{}, err
	}

	if link.Valid {
		d.Link = link.String
	}
	if clearDate.Valid {
		t := clearDate.Time
		d.ClearDate = &t
	}

	return d, nil
}

func (r *DueRepository) Insert(ctx context.Context, d *domain.Due) error {
	query := `
		INSERT INTO dues (
			id, person_id, person_name, person_type, department, description,
			amount, due_date, category, due_type, link, status, payment_status,
			clear_date, date_added
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var link any
	if d.Link != "" {
		link = d.Link
	}

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.PersonID,
		d.PersonName,
		d.PersonType,
		d.Department,
		d.Description,
		d.Amount,
		d.DueDate,
		d.Category,
		d.DueType,
		link,
		d.Status,
		d.PaymentStatus,
		d.ClearDate,
		d.DateAdded,
	)
	return err
}

func (r *DueRepository) GetByID(ctx context.Context, id string) (*domain.Due, error) {
	query := `SELECT ` + dueColumns + ` FROM dues d WHERE d.id = $1`

	d, err := scanDue(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{What: "due"}
		}
		return nil, err
	}
	return &d, nil
}

func (r *DueRepository) List(ctx context.Context, f DuesFilter) ([]domain.Due, error) {
	base := `SELECT ` + dueColumns + ` FROM dues d`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.Department != nil {
		where = append(where, fmt.Sprintf("d.department = $%d", i))
		args = append(args, *f.Department)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("d.status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.PersonID != nil {
		where = append(where, fmt.Sprintf("d.person_id = $%d", i))
		args = append(args, *f.PersonID)
		i++
	}
	if f.PersonType != nil {
		where = append(where, fmt.Sprintf("d.person_type = $%d", i))
		args = append(args, *f.PersonType)
		i++
	}
	if f.Category != nil {
		where = append(where, fmt.Sprintf("d.category = $%d", i))
		args = append(args, *f.Category)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY d.date_added DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Due
	for rows.Next() {
		d, err := scanDue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ConfirmPayment flips payment_status to done for a pending payable due.
// The WHERE clause carries the whole precondition so that concurrent
// confirmations are serialized by the per-row update; ErrNoRowUpdated means
// the due was not in the expected state (or does not exist).
func (r *DueRepository) ConfirmPayment(ctx context.Context, id string) (*domain.Due, error) {
	query := `
		UPDATE dues
		SET payment_status = $1
		WHERE id = $2
		  AND category = $3
		  AND status = $4
		  AND payment_status = $5
		RETURNING ` + strings.ReplaceAll(dueColumns, "d.", "") + `
	`

	d, err := scanDue(r.db.QueryRowContext(ctx, query,
		domain.PaymentDone, id, domain.CategoryPayable, domain.StatusPending, domain.PaymentDue))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRowUpdated
		}
		return nil, err
	}
	return &d, nil
}

// Clear marks a pending due cleared and stamps clear_date exactly once.
// For payable dues the payment guard is part of the condition, so a clear
// that races a confirmation (or another clear) fails rather than silently
// succeeding.
func (r *DueRepository) Clear(ctx context.Context, id string, clearDate time.Time) (*domain.Due, error) {
	query := `
		UPDATE dues
		SET status = $1, clear_date = $2
		WHERE id = $3
		  AND status = $4
		  AND (category = $5 OR payment_status = $6)
		RETURNING ` + strings.ReplaceAll(dueColumns, "d.", "") + `
	`

	d, err := scanDue(r.db.QueryRowContext(ctx, query,
		domain.StatusCleared, clearDate, id,
		domain.StatusPending, domain.CategoryNonPayable, domain.PaymentDone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRowUpdated
		}
		return nil, err
	}
	return &d, nil
}

// PendingAmount sums outstanding amounts for one department, or for the
// whole institution when department is nil.
func (r *DueRepository) PendingAmount(ctx context.Context, department *string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM dues WHERE status = $1`
	args := []any{domain.StatusPending}

	if department != nil {
		query += " AND department = $2"
		args = append(args, *department)
	}

	var total float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
