package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duestrack/internal/domain"
	"duestrack/internal/service"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CreateDueRequest is the wire shape for raising a single due. Amount and
// due date arrive from loosely typed clients, so both tolerate string and
// number encodings.
type CreateDueRequest struct {
	PersonID    string
	PersonName  string
	PersonType  string
	Department  string
	Description string
	Amount      float64
	DueDate     time.Time
	Category    string
	DueType     string
	Link        string
}

type rawCreateDueRequest struct {
	PersonID    string      `json:"person_id"`
	PersonName  string      `json:"person_name"`
	PersonType  string      `json:"person_type"`
	Department  string      `json:"department"`
	Description string      `json:"description"`
	Amount      interface{} `json:"amount"`
	DueDate     interface{} `json:"due_date"`
	Category    string      `json:"category"`
	DueType     string      `json:"due_type"`
	Link        string      `json:"link"`
}

func ValidateCreateDueRequest(r *http.Request) (*CreateDueRequest, error) {
	var raw rawCreateDueRequest

	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, &ValidationError{Message: "invalid JSON body"}
	}

	amount, err := toFloat(raw.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "amount must be a number"}
	}

	dueDate, err := toDueDate(raw.DueDate)
	if err != nil {
		return nil, &ValidationError{Field: "due_date", Message: "due_date must be a YYYY-MM-DD date or a spreadsheet serial number"}
	}

	return &CreateDueRequest{
		PersonID:    strings.TrimSpace(raw.PersonID),
		PersonName:  strings.TrimSpace(raw.PersonName),
		PersonType:  strings.TrimSpace(raw.PersonType),
		Department:  strings.TrimSpace(raw.Department),
		Description: strings.TrimSpace(raw.Description),
		Amount:      amount,
		DueDate:     dueDate,
		Category:    strings.TrimSpace(raw.Category),
		DueType:     strings.TrimSpace(raw.DueType),
		Link:        strings.TrimSpace(raw.Link),
	}, nil
}

func (r *CreateDueRequest) ToServiceRequest() service.CreateDueRequest {
	return service.CreateDueRequest{
		PersonID:    r.PersonID,
		PersonName:  r.PersonName,
		PersonType:  domain.PersonType(r.PersonType),
		Department:  r.Department,
		Description: r.Description,
		Amount:      r.Amount,
		DueDate:     r.DueDate,
		Category:    domain.Category(r.Category),
		DueType:     domain.DueType(r.DueType),
		Link:        r.Link,
	}
}

// BulkDuesRequest is the JSON flavor of the bulk upload: raw rows plus the
// optional scoping defaults.
type BulkDuesRequest struct {
	Rows       []service.RawRow `json:"rows"`
	PersonType string           `json:"person_type"`
	Department string           `json:"department"`
}

func ValidateBulkDuesRequest(r *http.Request) (*BulkDuesRequest, error) {
	var req BulkDuesRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return nil, &ValidationError{Message: "invalid JSON body"}
	}

	if len(req.Rows) == 0 {
		return nil, &ValidationError{Field: "rows", Message: "rows is required and must be a non-empty array"}
	}

	return &req, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return f, nil
	default:
		return 0, &ValidationError{Message: "invalid type for number field"}
	}
}

var dueDateLayouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

func toDueDate(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case float64:
		if parsed, ok := service.SerialDate(t); ok {
			return parsed, nil
		}
		return time.Time{}, &ValidationError{Message: "serial date out of range"}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range dueDateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, &ValidationError{Message: "unparsable date"}
	default:
		return time.Time{}, &ValidationError{Message: "invalid type for date field"}
	}
}
