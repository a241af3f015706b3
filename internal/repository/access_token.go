package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"duestrack/internal/domain"
)

type AccessTokenRepository struct {
	db *sql.DB
}

func NewAccessTokenRepository(db *sql.DB) *AccessTokenRepository {
	return &AccessTokenRepository{db: db}
}

// FindByPlainToken hashes the presented bearer token and looks it up.
// Expired tokens are filtered out at the query level.
func (r *AccessTokenRepository) FindByPlainToken(ctx context.Context, plainToken string) (*domain.AccessToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	sum := sha256.Sum256([]byte(plainToken))
	hashStr := fmt.Sprintf("%x", sum)

	query := `
		SELECT id, token_hash, operator_id, expires_at
		FROM access_tokens
		WHERE token_hash = $1
		  AND (expires_at IS NULL OR expires_at > $2)
		LIMIT 1
	`

	var t domain.AccessToken
	err := r.db.QueryRowContext(ctx, query, hashStr, time.Now()).Scan(
		&t.ID,
		&t.TokenHash,
		&t.OperatorID,
		&t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("token not found")
		}
		return nil, err
	}

	return &t, nil
}
