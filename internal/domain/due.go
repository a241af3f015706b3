package domain

import (
	"sort"
	"time"
)

type PersonType string

const (
	PersonStudent PersonType = "Student"
	PersonFaculty PersonType = "Faculty"
)

func (p PersonType) Valid() bool {
	return p == PersonStudent || p == PersonFaculty
}

type Category string

const (
	CategoryPayable    Category = "payable"
	CategoryNonPayable Category = "non-payable"
)

func (c Category) Valid() bool {
	return c == CategoryPayable || c == CategoryNonPayable
}

type Status string

const (
	StatusPending Status = "pending"
	StatusCleared Status = "cleared"
)

type PaymentStatus string

const (
	PaymentDue  PaymentStatus = "due"
	PaymentDone PaymentStatus = "done"
)

// DueType is a closed reason-code vocabulary. Students and faculty use
// disjoint sets; validation always goes through ValidDueType with the
// resolved person type.
type DueType string

var studentDueTypes = map[DueType]bool{
	"damage-to-property": true,
	"fee-delay":          true,
	"scholarship-issue":  true,
	"library-fine":       true,
	"hostel-dues":        true,
	"lab-equipment":      true,
	"sports-equipment":   true,
	"exam-malpractice":   true,
	"other":              true,
}

var facultyDueTypes = map[DueType]bool{
	"damage-to-property": true,
	"equipment-loss":     true,
	"salary-deduction":   true,
	"library-fine":       true,
	"lab-equipment":      true,
	"research-cost":      true,
	"other":              true,
}

func ValidDueType(pt PersonType, dt DueType) bool {
	switch pt {
	case PersonStudent:
		return studentDueTypes[dt]
	case PersonFaculty:
		return facultyDueTypes[dt]
	default:
		return false
	}
}

// DueTypesFor returns the allowed reason codes for a person type. Used by
// the sample template generator; order is stable for output.
func DueTypesFor(pt PersonType) []DueType {
	var src map[DueType]bool
	switch pt {
	case PersonStudent:
		src = studentDueTypes
	case PersonFaculty:
		src = facultyDueTypes
	default:
		return nil
	}
	out := make([]DueType, 0, len(src))
	for dt := range src {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Due is one obligation owed by one person to one department.
type Due struct {
	ID string `json:"id"`

	PersonID   string     `json:"person_id"`
	PersonName string     `json:"person_name"`
	PersonType PersonType `json:"person_type"`

	Department  string    `json:"department"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	DueDate     time.Time `json:"due_date"`

	Category Category `json:"category"`
	DueType  DueType  `json:"due_type"`
	Link     string   `json:"link,omitempty"`

	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	ClearDate *time.Time `json:"clear_date,omitempty"`
	DateAdded time.Time  `json:"date_added"`
}

// Payable reports whether clearing this due requires a confirmed payment.
func (d *Due) Payable() bool {
	return d.Category == CategoryPayable
}

// Clearable reports whether the due satisfies the clearance precondition:
// still pending, and for payable dues the payment has been confirmed.
func (d *Due) Clearable() bool {
	if d.Status != StatusPending {
		return false
	}
	return !d.Payable() || d.PaymentStatus == PaymentDone
}
