package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"duestrack/internal/domain"
)

func TestCoerceDueDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{"serial number", float64(45108), time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"serial unix epoch", float64(25569), time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"serial as string", "45108", time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"iso string", "2025-06-30", time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), true},
		{"rfc3339 keeps only the date", "2025-06-30T15:04:05Z", time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), true},
		{"slash format", "2025/06/30", time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), true},
		{"zero serial", float64(0), time.Time{}, false},
		{"negative serial", float64(-5), time.Time{}, false},
		{"huge serial", float64(9e6), time.Time{}, false},
		{"garbage string", "next tuesday", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceDueDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func validRow() RawRow {
	return RawRow{
		"person_id":   "21CS001",
		"person_name": "A. Kumar",
		"person_type": "Student",
		"description": "Overdue book fine",
		"amount":      "150",
		"due_date":    "2025-06-30",
		"category":    "payable",
		"due_type":    "library-fine",
	}
}

func TestNormalize_PartialSuccess(t *testing.T) {
	// Ten rows, row 5 carries a negative amount: nine survive.
	rows := make([]RawRow, 10)
	for i := range rows {
		rows[i] = validRow()
	}
	rows[4]["amount"] = "-1"

	valid, rowErrors := Normalize(rows, IngestContext{DefaultDepartment: "LIBRARY"})

	if len(valid) != 9 {
		t.Fatalf("expected 9 valid rows, got %d", len(valid))
	}
	if len(rowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(rowErrors))
	}
	if rowErrors[0].Row != 4 || rowErrors[0].Reason != ReasonInvalidAmount {
		t.Errorf("unexpected row error %+v", rowErrors[0])
	}
}

func TestNormalize_RowRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(RawRow)
		ic     IngestContext
		reason string
	}{
		{
			name:   "bad date",
			mutate: func(r RawRow) { r["due_date"] = "soon" },
			reason: ReasonInvalidDate,
		},
		{
			name:   "missing person type without default",
			mutate: func(r RawRow) { delete(r, "person_type") },
			reason: ReasonMissingPersonType,
		},
		{
			name:   "bogus person type without default",
			mutate: func(r RawRow) { r["person_type"] = "Alumni" },
			reason: ReasonMissingPersonType,
		},
		{
			name:   "due type from the wrong vocabulary",
			mutate: func(r RawRow) { r["due_type"] = "salary-deduction" },
			reason: ReasonInvalidDueType,
		},
		{
			name:   "unknown due type",
			mutate: func(r RawRow) { r["due_type"] = "vibes" },
			reason: ReasonInvalidDueType,
		},
		{
			name:   "bad category",
			mutate: func(r RawRow) { r["category"] = "maybe" },
			reason: ReasonInvalidCategory,
		},
		{
			name:   "missing person id",
			mutate: func(r RawRow) { r["person_id"] = " " },
			reason: ReasonMissingPersonID,
		},
		{
			name:   "non-numeric amount",
			mutate: func(r RawRow) { r["amount"] = "a lot" },
			reason: ReasonInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)

			valid, rowErrors := Normalize([]RawRow{row}, tt.ic)
			if len(valid) != 0 {
				t.Fatalf("expected rejection, got %+v", valid)
			}
			if len(rowErrors) != 1 || rowErrors[0].Reason != tt.reason {
				t.Fatalf("expected reason %q, got %+v", tt.reason, rowErrors)
			}
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	row := validRow()
	delete(row, "person_type")
	delete(row, "category")
	row["due_type"] = "research-cost"

	// HR-style faculty upload: context pins the person type.
	valid, rowErrors := Normalize([]RawRow{row}, IngestContext{
		DefaultDepartment: "HR",
		DefaultPersonType: domain.PersonFaculty,
	})

	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %+v", rowErrors)
	}
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid row, got %d", len(valid))
	}
	req := valid[0]
	if req.PersonType != domain.PersonFaculty {
		t.Errorf("expected faculty from context default, got %q", req.PersonType)
	}
	if req.Department != "HR" {
		t.Errorf("expected department HR from context, got %q", req.Department)
	}
	if req.Category != domain.CategoryPayable {
		t.Errorf("expected payable default, got %q", req.Category)
	}
}

func TestNormalize_RowDepartmentWins(t *testing.T) {
	row := validRow()
	row["department"] = "SPORTS"
	row["due_type"] = "sports-equipment"

	valid, _ := Normalize([]RawRow{row}, IngestContext{DefaultDepartment: "LIBRARY"})
	if len(valid) != 1 || valid[0].Department != "SPORTS" {
		t.Fatalf("expected row department to win, got %+v", valid)
	}
}

func TestIngest_PersistsValidRows(t *testing.T) {
	store := newFakeDueStore()
	svc := NewIngestService(store, nil, nil)

	rows := make([]RawRow, 10)
	for i := range rows {
		rows[i] = validRow()
	}
	rows[4]["amount"] = "-1"

	result, err := svc.Ingest(context.Background(), libraryOperator, rows, IngestContext{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if result.Imported != 9 || result.Skipped != 1 {
		t.Fatalf("expected imported=9 skipped=1, got %+v", result)
	}
	if len(store.dues) != 9 {
		t.Fatalf("expected 9 persisted dues, got %d", len(store.dues))
	}
	for _, d := range store.dues {
		if d.Status != domain.StatusPending || d.PaymentStatus != domain.PaymentDue {
			t.Fatalf("persisted due in wrong initial state: %+v", d)
		}
		if d.Department != "LIBRARY" {
			t.Fatalf("expected uploader department backfill, got %q", d.Department)
		}
	}
}

func TestIngest_RequiresOperator(t *testing.T) {
	store := newFakeDueStore()
	svc := NewIngestService(store, nil, nil)

	hod := domain.Principal{Role: domain.RoleHOD, Department: "LIBRARY"}
	if _, err := svc.Ingest(context.Background(), hod, []RawRow{validRow()}, IngestContext{}); err == nil {
		t.Fatal("expected authorization error for hod")
	}
}

func TestSampleTemplateRoundTrip(t *testing.T) {
	data, err := SampleTemplate()
	if err != nil {
		t.Fatalf("sample template: %v", err)
	}

	rows, err := ParseWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 example row, got %d", len(rows))
	}

	valid, rowErrors := Normalize(rows, IngestContext{DefaultDepartment: "LIBRARY"})
	if len(rowErrors) != 0 {
		t.Fatalf("template example row rejected: %+v", rowErrors)
	}
	if len(valid) != 1 || valid[0].DueType != "library-fine" {
		t.Fatalf("unexpected normalized template row: %+v", valid)
	}
}
