package domain

type Student struct {
	RollNumber string  `json:"roll_number"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Email      *string `json:"email,omitempty"`
	Year       *string `json:"year,omitempty"`
}

type Faculty struct {
	FacultyID  string  `json:"faculty_id"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Email      *string `json:"email,omitempty"`
}

type Department struct {
	Name string `json:"name"`
}

// StudentDueStatus annotates a student with their pending-dues position,
// for the accounts overview screen.
type StudentDueStatus struct {
	RollNumber    string  `json:"roll_number"`
	Name          string  `json:"name"`
	Department    string  `json:"department"`
	PendingCount  int     `json:"pending_count"`
	PendingAmount float64 `json:"pending_amount"`
}
