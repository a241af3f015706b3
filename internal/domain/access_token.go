package domain

import "time"

type AccessToken struct {
	ID         int64
	TokenHash  string
	OperatorID int64
	ExpiresAt  *time.Time
}
