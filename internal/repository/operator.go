package repository

import (
	"context"
	"database/sql"
	"errors"

	"duestrack/internal/domain"
)

type OperatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func (r *OperatorRepository) GetByID(ctx context.Context, id int64) (*domain.Operator, error) {
	query := `
		SELECT o.id, o.username, o.first_name, o.last_name, o.role, o.department
		FROM operators o
		WHERE o.id = $1 AND o.deleted_at IS NULL
	`

	var op domain.Operator
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&op.ID,
		&op.Username,
		&op.FirstName,
		&op.LastName,
		&op.Role,
		&op.Department,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{What: "operator"}
		}
		return nil, err
	}

	return &op, nil
}
